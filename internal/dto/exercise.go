package dto

import (
	"jementraine/internal/domain"
)

// ExerciseSummary is the listing form of an exercise
// @Description Exercise card information
type ExerciseSummary struct {
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Date          string `json:"date"`
	Level         string `json:"level"`
	Domain        string `json:"domain"`
	Skill         string `json:"skill"`
	Type          string `json:"type"`
	Theme         string `json:"theme,omitempty"`
	QuestionCount int    `json:"question_count"`
	Minutes       int    `json:"minutes"`
}

// QuestionResponse is one question of an exercise
type QuestionResponse struct {
	Prompt  string   `json:"prompt"`
	Hint    string   `json:"hint,omitempty"`
	Options []string `json:"options,omitempty"`
	Pair    string   `json:"pair,omitempty"`
}

// CorrectionResponse is the answer key. Values is set for list corrections,
// Text for short_text ones.
type CorrectionResponse struct {
	Mode   string   `json:"mode"`
	Values []string `json:"values,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// SEOResponse holds the page metadata
type SEOResponse struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	InternalLinks   []string `json:"internal_links"`
	NextSuggestions []string `json:"next_suggestions"`
}

// ExerciseResponse is the full exercise page
// @Description Exercise with questions and correction
type ExerciseResponse struct {
	ExerciseSummary
	H1          string             `json:"h1"`
	Instruction string             `json:"instruction"`
	Questions   []QuestionResponse `json:"questions"`
	Correction  CorrectionResponse `json:"correction"`
	SEO         SEOResponse        `json:"seo"`
}

// ExerciseListResponse wraps a list of exercise cards
type ExerciseListResponse struct {
	Items []ExerciseSummary `json:"items"`
	Total int               `json:"total"`
}

// StatsResponse describes the corpus
type StatsResponse struct {
	Total    int            `json:"total"`
	ByLevel  map[string]int `json:"by_level"`
	ByDomain map[string]int `json:"by_domain"`
	Themes   []string       `json:"themes"`
}

// NewExerciseSummary converts a record; minutes is the estimated completion time.
func NewExerciseSummary(ex *domain.Exercise, minutes int) ExerciseSummary {
	return ExerciseSummary{
		Slug:          ex.Slug,
		Title:         ex.Title,
		Date:          string(ex.Date),
		Level:         string(ex.Level),
		Domain:        string(ex.Domain),
		Skill:         ex.Skill,
		Type:          ex.Type,
		Theme:         ex.Theme,
		QuestionCount: len(ex.Questions),
		Minutes:       minutes,
	}
}

// NewExerciseResponse converts a record. Answers only appear in the correction.
func NewExerciseResponse(ex *domain.Exercise, minutes int) ExerciseResponse {
	questions := make([]QuestionResponse, len(ex.Questions))
	for i, q := range ex.Questions {
		questions[i] = QuestionResponse{Prompt: q.Prompt, Hint: q.Hint, Options: q.Options, Pair: q.Pair}
	}

	var correction CorrectionResponse
	switch c := ex.Correction.(type) {
	case domain.ListCorrection:
		correction = CorrectionResponse{Mode: string(domain.CorrectionModeList), Values: c.Values}
	case domain.ShortTextCorrection:
		correction = CorrectionResponse{Mode: string(domain.CorrectionModeShortText), Text: c.Text}
	}

	return ExerciseResponse{
		ExerciseSummary: NewExerciseSummary(ex, minutes),
		H1:              ex.H1,
		Instruction:     ex.Instruction,
		Questions:       questions,
		Correction:      correction,
		SEO: SEOResponse{
			Title:           ex.SEO.Title,
			Description:     ex.SEO.Description,
			Tags:            orEmpty(ex.SEO.Tags),
			InternalLinks:   orEmpty(ex.SEO.InternalLinks),
			NextSuggestions: orEmpty(ex.SEO.NextSuggestions),
		},
	}
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
