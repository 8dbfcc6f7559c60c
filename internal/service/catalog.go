package service

import (
	"slices"
	"strings"

	"jementraine/internal/domain"
	"jementraine/internal/schema"

	"golang.org/x/text/cases"
)

const (
	relatedLevelScore  = 2
	relatedDomainScore = 1
)

// Catalog is a read-only view over a loaded set of valid exercises. Every
// query returns a new slice; the records themselves are shared and must not
// be mutated.
type Catalog struct {
	exercises []*domain.Exercise
	schema    *schema.Schema
}

// NewCatalog wraps exercises, kept in the given order.
func NewCatalog(exercises []*domain.Exercise, s *schema.Schema) *Catalog {
	return &Catalog{exercises: slices.Clone(exercises), schema: s}
}

// Len returns the number of exercises.
func (c *Catalog) Len() int {
	return len(c.exercises)
}

// All returns every exercise in load order.
func (c *Catalog) All() []*domain.Exercise {
	return slices.Clone(c.exercises)
}

func (c *Catalog) filter(keep func(*domain.Exercise) bool) []*domain.Exercise {
	out := []*domain.Exercise{}
	for _, ex := range c.exercises {
		if keep(ex) {
			out = append(out, ex)
		}
	}
	return out
}

func (c *Catalog) ByLevel(level domain.Level) []*domain.Exercise {
	return c.filter(func(ex *domain.Exercise) bool { return ex.Level == level })
}

func (c *Catalog) ByDomain(subject domain.Subject) []*domain.Exercise {
	return c.filter(func(ex *domain.Exercise) bool { return ex.Domain == subject })
}

func (c *Catalog) ByLevelAndDomain(level domain.Level, subject domain.Subject) []*domain.Exercise {
	return c.filter(func(ex *domain.Exercise) bool { return ex.Level == level && ex.Domain == subject })
}

// Filter applies the optional level and domain filters; an empty value matches anything.
func (c *Catalog) Filter(level domain.Level, subject domain.Subject) []*domain.Exercise {
	return c.filter(func(ex *domain.Exercise) bool {
		return (level == "" || ex.Level == level) && (subject == "" || ex.Domain == subject)
	})
}

// BySlug returns the first exercise with the given slug.
func (c *Catalog) BySlug(slug string) (*domain.Exercise, bool) {
	for _, ex := range c.exercises {
		if ex.Slug == slug {
			return ex, true
		}
	}
	return nil, false
}

// Recent returns the n most recent exercises. Equal dates keep load order.
func (c *Catalog) Recent(n int) []*domain.Exercise {
	sorted := slices.Clone(c.exercises)
	// YYYY-MM-DD compares correctly as text.
	slices.SortStableFunc(sorted, func(a, b *domain.Exercise) int {
		return strings.Compare(string(b.Date), string(a.Date))
	})
	return head(sorted, n)
}

// Search matches query case-insensitively against title, h1, skill and SEO
// tags. An empty query matches every exercise.
func (c *Catalog) Search(query string) []*domain.Exercise {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	contains := func(s string) bool {
		return strings.Contains(fold.String(s), needle)
	}

	return c.filter(func(ex *domain.Exercise) bool {
		if contains(ex.Title) || contains(ex.H1) || contains(ex.Skill) {
			return true
		}
		return slices.ContainsFunc(ex.SEO.Tags, contains)
	})
}

// Related ranks the other exercises sharing the level or the domain of ex.
// A shared level is worth more than a shared domain; ties keep load order.
func (c *Catalog) Related(ex *domain.Exercise, n int) []*domain.Exercise {
	type scored struct {
		exercise *domain.Exercise
		score    int
	}

	var candidates []scored
	for _, other := range c.exercises {
		if other.Slug == ex.Slug {
			continue
		}
		score := 0
		if other.Level == ex.Level {
			score += relatedLevelScore
		}
		if other.Domain == ex.Domain {
			score += relatedDomainScore
		}
		if score > 0 {
			candidates = append(candidates, scored{exercise: other, score: score})
		}
	}

	slices.SortStableFunc(candidates, func(a, b scored) int {
		return b.score - a.score
	})

	out := make([]*domain.Exercise, len(candidates))
	for i, cand := range candidates {
		out[i] = cand.exercise
	}
	return head(out, n)
}

// CountByLevel tallies exercises per level. Every schema level is present.
func (c *Catalog) CountByLevel() map[domain.Level]int {
	counts := make(map[domain.Level]int)
	if c.schema != nil {
		for _, level := range c.schema.LevelNames() {
			counts[level] = 0
		}
	}
	for _, ex := range c.exercises {
		counts[ex.Level]++
	}
	return counts
}

// CountByDomain tallies exercises per domain. Every schema domain is present.
func (c *Catalog) CountByDomain() map[domain.Subject]int {
	counts := make(map[domain.Subject]int)
	if c.schema != nil {
		for _, subject := range c.schema.DomainNames() {
			counts[subject] = 0
		}
	}
	for _, ex := range c.exercises {
		counts[ex.Domain]++
	}
	return counts
}

// Themes returns the distinct non-empty themes in order of first appearance.
func (c *Catalog) Themes() []string {
	seen := make(map[string]bool)
	themes := []string{}
	for _, ex := range c.exercises {
		if ex.Theme == "" || seen[ex.Theme] {
			continue
		}
		seen[ex.Theme] = true
		themes = append(themes, ex.Theme)
	}
	return themes
}

// head returns the first n items; negative n is treated as 0.
func head(items []*domain.Exercise, n int) []*domain.Exercise {
	if n < 0 {
		n = 0
	}
	if n > len(items) {
		n = len(items)
	}
	return items[:n:n]
}
