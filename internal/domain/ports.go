package domain

import "context"

// IssueReporter receives per-file diagnostics from the content loader.
// Reporting never aborts a load.
type IssueReporter interface {
	Report(path string, issues []Issue)
}

// ExerciseRepository is the flat-file content store.
type ExerciseRepository interface {
	// LoadAll returns every valid record under the content root, in traversal order.
	LoadAll(ctx context.Context) ([]*Exercise, error)

	// Save writes a record to <root>/<year>/<month>/<slug>.json and returns the path.
	Save(ctx context.Context, exercise *Exercise, overwrite bool) (string, error)

	// Root returns the content root directory.
	Root() string
}

// GenerationRequest describes the exercise a generator should produce.
type GenerationRequest struct {
	Date         Date
	Level        Level
	Domain       Subject
	Type         string
	Skill        string
	Theme        string
	MinQuestions int
	MaxQuestions int
	DomainLabel  string
	LevelStyle   string
}

// ExerciseGenerator produces a candidate document. The result is untrusted
// and goes through the same validation as hand-authored files.
type ExerciseGenerator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (any, error)
}

// SubjectRestricted is implemented by generators that only cover some subjects.
type SubjectRestricted interface {
	Supports(subject Subject) bool
}
