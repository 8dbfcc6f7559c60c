package validation

import (
	"jementraine/internal/domain"
)

// InvalidCandidate pairs a rejected document with the verdict that rejected it.
type InvalidCandidate struct {
	Document any    `json:"document"`
	Result   Result `json:"result"`
}

// Summary holds the aggregate counts of a batch.
type Summary struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Warnings int `json:"warnings"`
}

// ExitCode is the process status a command-line wrapper should return:
// 0 when no candidate carries an error. Warnings never affect it.
func (s Summary) ExitCode() int {
	if s.Invalid > 0 {
		return 1
	}
	return 0
}

// BatchResult partitions a batch of candidates. Both partitions keep input order.
type BatchResult struct {
	Valid   []*domain.Exercise `json:"valid"`
	Invalid []InvalidCandidate `json:"invalid"`
	Summary Summary            `json:"summary"`
}

// Decode validates a document and converts it to a typed record when it is
// valid. The returned exercise is nil whenever Result.Valid is false.
func (v *Validator) Decode(doc any) (*domain.Exercise, Result) {
	result := v.Validate(doc)
	if !result.Valid {
		return nil, result
	}
	exercise, err := domain.ExerciseFromDocument(doc)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, decodeIssue(err))
		return nil, result
	}
	return exercise, result
}

// decodeIssue reports a document that passed the checks but could not be
// turned into a record. It concerns the whole document.
func decodeIssue(err error) domain.Issue {
	return domain.Issue{Field: "document", Message: "Document illisible: " + err.Error()}
}

// ValidateAll applies Validate to every candidate independently. There are no
// cross-record checks; see DuplicateSlugs for the advisory slug report.
func (v *Validator) ValidateAll(docs []any) BatchResult {
	batch := BatchResult{
		Valid:   []*domain.Exercise{},
		Invalid: []InvalidCandidate{},
	}
	for _, doc := range docs {
		exercise, result := v.Decode(doc)
		batch.Summary.Warnings += len(result.Warnings)
		if exercise != nil {
			batch.Valid = append(batch.Valid, exercise)
			continue
		}
		batch.Invalid = append(batch.Invalid, InvalidCandidate{Document: doc, Result: result})
	}
	batch.Summary.Total = len(docs)
	batch.Summary.Valid = len(batch.Valid)
	batch.Summary.Invalid = len(batch.Invalid)
	return batch
}

// DuplicateSlugs returns the slugs used by more than one exercise, in order of
// first occurrence, with the number of records carrying each.
func DuplicateSlugs(exercises []*domain.Exercise) ([]string, map[string]int) {
	counts := make(map[string]int, len(exercises))
	var order []string
	for _, ex := range exercises {
		if counts[ex.Slug] == 0 {
			order = append(order, ex.Slug)
		}
		counts[ex.Slug]++
	}

	var duplicates []string
	dupCounts := make(map[string]int)
	for _, slug := range order {
		if counts[slug] > 1 {
			duplicates = append(duplicates, slug)
			dupCounts[slug] = counts[slug]
		}
	}
	return duplicates, dupCounts
}
