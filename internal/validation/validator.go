package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"jementraine/internal/domain"
	"jementraine/internal/schema"
)

var (
	dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slugFormat = regexp.MustCompile(`^[a-z0-9-]+$`)
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindArray
	kindObject
)

// requiredFields lists the record-level fields in report order.
var requiredFields = []struct {
	name string
	kind fieldKind
}{
	{"date", kindText},
	{"level", kindText},
	{"domain", kindText},
	{"skill", kindText},
	{"type", kindText},
	{"title", kindText},
	{"slug", kindText},
	{"h1", kindText},
	{"instruction", kindText},
	{"questions", kindArray},
	{"correction", kindObject},
	{"seo", kindObject},
}

// Result is the verdict on one candidate record.
type Result struct {
	Valid    bool           `json:"valid"`
	Errors   []domain.Issue `json:"errors"`
	Warnings []domain.Issue `json:"warnings"`
}

// Validator checks candidate exercise records against a schema, and the
// query parameters of the HTTP API against the same enumerations.
type Validator struct {
	schema *schema.Schema
}

// NewValidator creates a new validator instance
func NewValidator(s *schema.Schema) *Validator {
	return &Validator{schema: s}
}

// Schema returns the constraint tables the validator was built with.
func (v *Validator) Schema() *schema.Schema {
	return v.schema
}

// Validate inspects an untyped JSON value (as produced by encoding/json into
// an any) and reports every problem it finds. It never panics and never stops
// at the first problem.
func (v *Validator) Validate(doc any) Result {
	c := &checker{schema: v.schema}

	record, ok := doc.(map[string]any)
	if !ok {
		c.fail("", "Le document doit être un objet JSON")
		return c.result()
	}

	c.checkRequired(record)
	c.checkEnumerations(record)
	c.checkQuestionCount(record)
	c.checkQuestions(record)
	c.checkCorrection(record)
	c.checkMatching(record)
	c.checkDate(record)
	c.checkSlug(record)
	c.checkSEO(record)

	return c.result()
}

type checker struct {
	schema   *schema.Schema
	errors   []domain.Issue
	warnings []domain.Issue
}

func (c *checker) fail(field, format string, args ...any) {
	c.errors = append(c.errors, domain.Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) warn(field, format string, args ...any) {
	c.warnings = append(c.warnings, domain.Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) result() Result {
	errs := c.errors
	if errs == nil {
		errs = []domain.Issue{}
	}
	warnings := c.warnings
	if warnings == nil {
		warnings = []domain.Issue{}
	}
	return Result{Valid: len(errs) == 0, Errors: errs, Warnings: warnings}
}

func (c *checker) checkRequired(record map[string]any) {
	for _, field := range requiredFields {
		value, present := record[field.name]
		if !present || value == nil {
			c.fail(field.name, "Le champ %q est obligatoire", field.name)
			continue
		}
		switch field.kind {
		case kindText:
			s, ok := value.(string)
			if !ok {
				c.fail(field.name, "Le champ %q doit être une chaîne de caractères", field.name)
			} else if strings.TrimSpace(s) == "" {
				c.fail(field.name, "Le champ %q est obligatoire", field.name)
			}
		case kindArray:
			if _, ok := value.([]any); !ok {
				c.fail(field.name, "Le champ %q doit être un tableau", field.name)
			}
		case kindObject:
			if _, ok := value.(map[string]any); !ok {
				c.fail(field.name, "Le champ %q doit être un objet", field.name)
			}
		}
	}

	if theme, present := record["theme"]; present && theme != nil {
		if _, ok := theme.(string); !ok {
			c.fail("theme", "Le champ %q doit être une chaîne de caractères", "theme")
		}
	}
}

// checkEnumerations only looks at well-formed, non-blank values; absence and
// wrong types are already reported by checkRequired.
func (c *checker) checkEnumerations(record map[string]any) {
	if level, ok := nonBlank(record, "level"); ok {
		if _, known := c.schema.Level(domain.Level(level)); !known {
			c.fail("level", "Niveau %q inconnu (attendu: %s)", level, strings.Join(names(c.schema.LevelNames()), ", "))
		}
	}
	if subject, ok := nonBlank(record, "domain"); ok {
		if _, known := c.schema.Domain(domain.Subject(subject)); !known {
			c.fail("domain", "Domaine %q inconnu (attendu: %s)", subject, strings.Join(names(c.schema.DomainNames()), ", "))
		}
	}
}

func (c *checker) checkQuestionCount(record map[string]any) {
	level, ok := nonBlank(record, "level")
	if !ok {
		return
	}
	tier, known := c.schema.Level(domain.Level(level))
	if !known {
		return
	}
	questions, ok := record["questions"].([]any)
	if !ok {
		return
	}

	count := len(questions)
	if count < tier.Questions.Min {
		c.fail("questions", "Niveau %s: minimum %d questions requises, %d fournies", level, tier.Questions.Min, count)
	}
	if count > tier.Questions.Max {
		c.warn("questions", "Niveau %s: maximum %d questions recommandé, %d fournies", level, tier.Questions.Max, count)
	}
}

func (c *checker) checkQuestions(record map[string]any) {
	questions, ok := record["questions"].([]any)
	if !ok {
		return
	}
	for i, raw := range questions {
		path := fmt.Sprintf("questions[%d]", i)
		q, ok := raw.(map[string]any)
		if !ok {
			c.fail(path, "Question %d: doit être un objet", i+1)
			continue
		}

		if prompt, present := q["prompt"]; present && prompt != nil && !isString(prompt) {
			c.fail(path+".prompt", "Question %d: la question doit être une chaîne", i+1)
		} else if _, ok := nonBlank(q, "prompt"); !ok {
			c.fail(path+".prompt", "Question %d: la question est vide", i+1)
		}

		if answer, present := q["answer"]; present && answer != nil && !isString(answer) {
			c.fail(path+".answer", "Question %d: la réponse doit être une chaîne", i+1)
		} else if _, ok := nonBlank(q, "answer"); !ok {
			c.fail(path+".answer", "Question %d: la réponse est vide", i+1)
		}

		if hint, present := q["hint"]; present && hint != nil && !isString(hint) {
			c.fail(path+".hint", "Question %d: l'indice doit être une chaîne", i+1)
		}
		if options, present := q["options"]; present && options != nil && !isStringArray(options) {
			c.fail(path+".options", "Question %d: les options doivent être une liste de chaînes", i+1)
		}
		if pair, present := q["pair"]; present && pair != nil && !isString(pair) {
			c.fail(path+".pair", "Question %d: la paire doit être une chaîne", i+1)
		}
	}
}

func (c *checker) checkCorrection(record map[string]any) {
	correction, ok := record["correction"].(map[string]any)
	if !ok {
		return
	}

	mode, _ := correction["mode"].(string)
	switch domain.CorrectionMode(mode) {
	case domain.CorrectionModeList:
		values, ok := correction["v"].([]any)
		if !ok {
			c.fail("correction.v", "Correction \"list\": v doit être une liste")
			return
		}
		for i, value := range values {
			if !isString(value) {
				c.fail(fmt.Sprintf("correction.v[%d]", i), "Correction %d: doit être une chaîne", i+1)
			}
		}

		questions, ok := record["questions"].([]any)
		if !ok {
			return
		}
		if len(values) != len(questions) {
			c.fail("correction", "Incohérence: %d questions mais %d réponses dans la correction", len(questions), len(values))
		}
		for i, raw := range questions {
			if i >= len(values) {
				break
			}
			expected, _ := values[i].(string)
			if expected == "" {
				continue
			}
			answer, _ := stringField(raw, "answer")
			if answer != expected {
				c.warn(fmt.Sprintf("correction.v[%d]", i), "Question %d: réponse %q différente de la correction %q", i+1, answer, expected)
			}
		}

	case domain.CorrectionModeShortText:
		if !isString(correction["v"]) {
			c.fail("correction.v", "Correction \"short_text\": v doit être une chaîne")
		}

	default:
		c.fail("correction.mode", "Mode de correction %q inconnu (attendu: list, short_text)", mode)
	}
}

func (c *checker) checkMatching(record map[string]any) {
	if kind, _ := record["type"].(string); kind != domain.MatchingType {
		return
	}
	questions, ok := record["questions"].([]any)
	if !ok {
		return
	}

	seen := make(map[string]bool, len(questions))
	duplicated := false
	withoutPair := 0
	for _, raw := range questions {
		if answer, ok := stringField(raw, "answer"); ok {
			if seen[answer] {
				duplicated = true
			}
			seen[answer] = true
		}
		if pair, _ := stringField(raw, "pair"); pair == "" {
			withoutPair++
		}
	}

	if duplicated {
		c.fail("questions", "Exercice \"relier\": les réponses doivent être uniques (relation 1-1)")
	}
	if withoutPair > 0 {
		c.fail("questions", "Exercice \"relier\": %d question(s) sans \"pair\" défini", withoutPair)
	}
}

func (c *checker) checkDate(record map[string]any) {
	date, ok := nonBlank(record, "date")
	if !ok {
		return
	}
	if !dateFormat.MatchString(date) {
		c.fail("date", "Le format de date doit être YYYY-MM-DD")
		return
	}
	if c.schema.StrictDates {
		if _, err := domain.Date(date).Time(); err != nil {
			c.fail("date", "La date %s n'existe pas dans le calendrier", date)
		}
	}
}

func (c *checker) checkSlug(record map[string]any) {
	slug, ok := nonBlank(record, "slug")
	if !ok {
		return
	}
	if !slugFormat.MatchString(slug) {
		c.fail("slug", "Le slug ne doit contenir que des minuscules, chiffres et tirets")
	}
}

func (c *checker) checkSEO(record map[string]any) {
	seo, ok := record["seo"].(map[string]any)
	if !ok {
		return
	}
	bounds := c.schema.SEO

	if title, present := seo["title"]; present && title != nil && !isString(title) {
		c.fail("seo.title", "Le titre SEO doit être une chaîne")
	} else {
		length := runeLen(seo, "title")
		if length < bounds.Title.Min {
			c.warn("seo.title", "Le titre SEO devrait faire au moins %d caractères (%d)", bounds.Title.Min, length)
		}
		if length > bounds.Title.Max {
			c.warn("seo.title", "Le titre SEO ne devrait pas dépasser %d caractères (%d)", bounds.Title.Max, length)
		}
	}

	if description, present := seo["description"]; present && description != nil && !isString(description) {
		c.fail("seo.description", "La description SEO doit être une chaîne")
	} else {
		length := runeLen(seo, "description")
		if length < bounds.Description.Min {
			c.warn("seo.description", "La description SEO devrait faire au moins %d caractères (%d)", bounds.Description.Min, length)
		}
		if length > bounds.Description.Max {
			c.warn("seo.description", "La description SEO ne devrait pas dépasser %d caractères (%d)", bounds.Description.Max, length)
		}
	}

	for _, field := range []string{"tags", "internalLinks", "nextSuggestions"} {
		if value, present := seo[field]; present && value != nil && !isStringArray(value) {
			c.fail("seo."+field, "Le champ %q doit être une liste de chaînes", "seo."+field)
		}
	}
}

// Helpers for reading untyped JSON

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isStringArray(v any) bool {
	items, ok := v.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if !isString(item) {
			return false
		}
	}
	return true
}

// stringField reads obj[key] when obj is a JSON object and the value a string.
func stringField(obj any, key string) (string, bool) {
	m, ok := obj.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok
}

// nonBlank returns the value of a string field that is non-empty after trimming.
func nonBlank(obj map[string]any, key string) (string, bool) {
	s, ok := obj[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func runeLen(obj map[string]any, key string) int {
	s, _ := obj[key].(string)
	return utf8.RuneCountInString(s)
}
