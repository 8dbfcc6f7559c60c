package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the layout of Exercise.Date.
const DateLayout = "2006-01-02"

// Level is a school-grade tier (CP, CE1, CE2).
type Level string

// Subject is the subject area stored in the record's "domain" field.
type Subject string

// MatchingType is the exercise type whose questions must form a 1:1 relation.
const MatchingType = "relier"

// Date is a publication date in YYYY-MM-DD form. It is kept as text because
// format validity and calendar validity are checked separately.
type Date string

// Time parses the date. It fails for strings that only look like dates (2024-02-30).
func (d Date) Time() (time.Time, error) {
	return time.Parse(DateLayout, string(d))
}

// Question is one graded item within an exercise.
type Question struct {
	Prompt  string   `json:"prompt"`
	Answer  string   `json:"answer"`
	Hint    string   `json:"hint,omitempty"`
	Options []string `json:"options,omitempty"`
	Pair    string   `json:"pair,omitempty"`
}

// SEO holds the page metadata of an exercise.
type SEO struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	InternalLinks   []string `json:"internalLinks"`
	NextSuggestions []string `json:"nextSuggestions"`
}

// Exercise is one published exercise record.
type Exercise struct {
	Date        Date       `json:"date"`
	Level       Level      `json:"level"`
	Domain      Subject    `json:"domain"`
	Skill       string     `json:"skill"`
	Type        string     `json:"type"`
	Theme       string     `json:"theme"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	H1          string     `json:"h1"`
	Instruction string     `json:"instruction"`
	Questions   []Question `json:"questions"`
	Correction  Correction `json:"-"`
	SEO         SEO        `json:"seo"`
}

// exerciseJSON mirrors Exercise with the correction left raw.
type exerciseJSON struct {
	Date        Date            `json:"date"`
	Level       Level           `json:"level"`
	Domain      Subject         `json:"domain"`
	Skill       string          `json:"skill"`
	Type        string          `json:"type"`
	Theme       string          `json:"theme"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	H1          string          `json:"h1"`
	Instruction string          `json:"instruction"`
	Questions   []Question      `json:"questions"`
	Correction  json.RawMessage `json:"correction"`
	SEO         SEO             `json:"seo"`
}

// MarshalJSON implements json.Marshaler.
func (e Exercise) MarshalJSON() ([]byte, error) {
	raw, err := MarshalCorrection(e.Correction)
	if err != nil {
		return nil, err
	}
	return json.Marshal(exerciseJSON{
		Date:        e.Date,
		Level:       e.Level,
		Domain:      e.Domain,
		Skill:       e.Skill,
		Type:        e.Type,
		Theme:       e.Theme,
		Title:       e.Title,
		Slug:        e.Slug,
		H1:          e.H1,
		Instruction: e.Instruction,
		Questions:   e.Questions,
		Correction:  raw,
		SEO:         e.SEO,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Exercise) UnmarshalJSON(data []byte) error {
	var aux exerciseJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	correction, err := UnmarshalCorrection(aux.Correction)
	if err != nil {
		return err
	}
	*e = Exercise{
		Date:        aux.Date,
		Level:       aux.Level,
		Domain:      aux.Domain,
		Skill:       aux.Skill,
		Type:        aux.Type,
		Theme:       aux.Theme,
		Title:       aux.Title,
		Slug:        aux.Slug,
		H1:          aux.H1,
		Instruction: aux.Instruction,
		Questions:   aux.Questions,
		Correction:  correction,
		SEO:         aux.SEO,
	}
	return nil
}

// IsMatching reports whether the exercise is a matching ("relier") exercise.
func (e *Exercise) IsMatching() bool {
	return e.Type == MatchingType
}

// Answers returns the expected answers in question order.
func (e *Exercise) Answers() []string {
	answers := make([]string, len(e.Questions))
	for i, q := range e.Questions {
		answers[i] = q.Answer
	}
	return answers
}

// ExerciseFromDocument builds an Exercise from a generic JSON object. Callers
// validate the document first. Fields are read by their exact key, the same
// way the validator reads them, so the record holds only checked values.
func ExerciseFromDocument(doc any) (*Exercise, error) {
	record, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document is %T, not an object", doc)
	}

	var r documentReader
	ex := &Exercise{
		Date:        Date(r.text(record, "date")),
		Level:       Level(r.text(record, "level")),
		Domain:      Subject(r.text(record, "domain")),
		Skill:       r.text(record, "skill"),
		Type:        r.text(record, "type"),
		Theme:       r.text(record, "theme"),
		Title:       r.text(record, "title"),
		Slug:        r.text(record, "slug"),
		H1:          r.text(record, "h1"),
		Instruction: r.text(record, "instruction"),
	}

	for i, item := range r.list(record, "questions") {
		q, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("questions[%d] is %T, not an object", i, item)
		}
		ex.Questions = append(ex.Questions, Question{
			Prompt:  r.text(q, "prompt"),
			Answer:  r.text(q, "answer"),
			Hint:    r.text(q, "hint"),
			Options: r.texts(q, "options"),
			Pair:    r.text(q, "pair"),
		})
	}

	if seo, ok := record["seo"].(map[string]any); ok {
		ex.SEO = SEO{
			Title:           r.text(seo, "title"),
			Description:     r.text(seo, "description"),
			Tags:            r.texts(seo, "tags"),
			InternalLinks:   r.texts(seo, "internalLinks"),
			NextSuggestions: r.texts(seo, "nextSuggestions"),
		}
	}

	if raw, present := record["correction"]; present && raw != nil {
		correction, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("correction is %T, not an object", raw)
		}
		switch mode := CorrectionMode(r.text(correction, "mode")); mode {
		case CorrectionModeList:
			ex.Correction = ListCorrection{Values: r.texts(correction, "v")}
		case CorrectionModeShortText:
			ex.Correction = ShortTextCorrection{Text: r.text(correction, "v")}
		default:
			return nil, fmt.Errorf("unknown correction mode %q", mode)
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	return ex, nil
}

// documentReader reads typed values out of untyped JSON objects and keeps the
// first type mismatch. Absent and null values read as zero values.
type documentReader struct {
	err error
}

func (r *documentReader) fail(key string, v any, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("field %q is %T, not %s", key, v, want)
	}
}

func (r *documentReader) text(obj map[string]any, key string) string {
	v := obj[key]
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(key, v, "a string")
	}
	return s
}

func (r *documentReader) list(obj map[string]any, key string) []any {
	v := obj[key]
	if v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		r.fail(key, v, "an array")
	}
	return items
}

func (r *documentReader) texts(obj map[string]any, key string) []string {
	items := r.list(obj, key)
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			r.fail(key, item, "a list of strings")
			return nil
		}
		out = append(out, s)
	}
	return out
}
