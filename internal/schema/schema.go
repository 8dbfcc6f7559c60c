// Package schema loads the versioned constraint tables (levels, domains,
// question-count bounds, SEO bounds) that the validator, the catalog and the
// generators share.
package schema

import (
	"fmt"
	"os"

	"jementraine/configs"
	"jementraine/internal/domain"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the schema version this code understands.
const CurrentVersion = 2

// Bounds is an inclusive [Min, Max] range.
type Bounds struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Contains reports whether n lies within the bounds.
func (b Bounds) Contains(n int) bool {
	return n >= b.Min && n <= b.Max
}

// SEOBounds holds the recommended lengths of seo.title and seo.description.
type SEOBounds struct {
	Title       Bounds `yaml:"title"`
	Description Bounds `yaml:"description"`
}

// Level describes one grade tier.
type Level struct {
	Name               domain.Level `yaml:"name"`
	Label              string       `yaml:"label"`
	Emoji              string       `yaml:"emoji"`
	Color              string       `yaml:"color"`
	Questions          Bounds       `yaml:"questions"`
	MinutesPerQuestion float64      `yaml:"minutes_per_question"`
	Style              string       `yaml:"style"`
}

// Domain describes one subject area.
type Domain struct {
	Name   domain.Subject            `yaml:"name"`
	Label  string                    `yaml:"label"`
	Emoji  string                    `yaml:"emoji"`
	Weight int                       `yaml:"weight"`
	Types  []string                  `yaml:"types"`
	Skills map[domain.Level][]string `yaml:"skills"`
}

// Schema is the immutable set of constraint tables. Treat values returned by
// Load, Parse and Default as read-only.
type Schema struct {
	Version       int       `yaml:"version"`
	StrictDates   bool      `yaml:"strict_dates"`
	SEO           SEOBounds `yaml:"seo"`
	ExerciseTypes []string  `yaml:"exercise_types"`
	Levels        []Level   `yaml:"levels"`
	Domains       []Domain  `yaml:"domains"`
}

// Default returns the embedded canonical schema.
func Default() (*Schema, error) {
	return Parse(configs.DefaultSchema)
}

// MustDefault is Default for package-level initialisation and tests.
func MustDefault() *Schema {
	s, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded schema is invalid: %v", err))
	}
	return s
}

// Load reads a schema file. An empty path selects the embedded default.
func Load(path string) (*Schema, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and checks a schema document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the internal consistency of the tables.
func (s *Schema) Validate() error {
	if s.Version != CurrentVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", s.Version, CurrentVersion)
	}
	if len(s.Levels) == 0 {
		return fmt.Errorf("schema defines no levels")
	}
	if len(s.Domains) == 0 {
		return fmt.Errorf("schema defines no domains")
	}
	if s.SEO.Title.Min > s.SEO.Title.Max || s.SEO.Description.Min > s.SEO.Description.Max {
		return fmt.Errorf("seo bounds have min > max")
	}

	levels := make(map[domain.Level]bool, len(s.Levels))
	for _, l := range s.Levels {
		if l.Name == "" {
			return fmt.Errorf("level with empty name")
		}
		if levels[l.Name] {
			return fmt.Errorf("duplicate level %q", l.Name)
		}
		levels[l.Name] = true
		if l.Questions.Min < 0 || l.Questions.Min > l.Questions.Max {
			return fmt.Errorf("level %s: invalid question bounds [%d, %d]", l.Name, l.Questions.Min, l.Questions.Max)
		}
	}

	domains := make(map[domain.Subject]bool, len(s.Domains))
	for _, d := range s.Domains {
		if d.Name == "" {
			return fmt.Errorf("domain with empty name")
		}
		if domains[d.Name] {
			return fmt.Errorf("duplicate domain %q", d.Name)
		}
		domains[d.Name] = true
		if d.Weight < 0 {
			return fmt.Errorf("domain %s: negative weight", d.Name)
		}
		for level := range d.Skills {
			if !levels[level] {
				return fmt.Errorf("domain %s: skills for unknown level %q", d.Name, level)
			}
		}
	}
	return nil
}

// Level looks up a level by name.
func (s *Schema) Level(name domain.Level) (Level, bool) {
	for _, l := range s.Levels {
		if l.Name == name {
			return l, true
		}
	}
	return Level{}, false
}

// Domain looks up a domain by name.
func (s *Schema) Domain(name domain.Subject) (Domain, bool) {
	for _, d := range s.Domains {
		if d.Name == name {
			return d, true
		}
	}
	return Domain{}, false
}

// LevelNames returns the levels in their configured order.
func (s *Schema) LevelNames() []domain.Level {
	names := make([]domain.Level, len(s.Levels))
	for i, l := range s.Levels {
		names[i] = l.Name
	}
	return names
}

// DomainNames returns the domains in their configured order.
func (s *Schema) DomainNames() []domain.Subject {
	names := make([]domain.Subject, len(s.Domains))
	for i, d := range s.Domains {
		names[i] = d.Name
	}
	return names
}

// HasExerciseType reports whether t is in the known exercise-type vocabulary.
func (s *Schema) HasExerciseType(t string) bool {
	for _, known := range s.ExerciseTypes {
		if known == t {
			return true
		}
	}
	return false
}
