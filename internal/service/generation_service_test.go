package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"jementraine/internal/domain"
	"jementraine/internal/schema"
	"jementraine/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var firstOfSeptember = time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

func newTestGenerationService(gen domain.ExerciseGenerator, repo domain.ExerciseRepository, retries int) GenerationService {
	settings := GenerationSettings{MaxRetries: retries, Seed: 1}
	return NewGenerationService(gen, repo, validation.NewValidator(schema.MustDefault()), settings, zap.NewNop())
}

func ce1Maths(count int) GenerateOptions {
	return GenerateOptions{Count: count, Level: "CE1", Domain: "maths", Date: firstOfSeptember}
}

func TestGenerationService_SavesFirstValidCandidate(t *testing.T) {
	gen := new(MockExerciseGenerator)
	repo := &MockExerciseRepository{root: testRoot}
	gen.On("Generate", mock.Anything, mock.Anything).Return(sampleDocument("20240902-additions", "2024-09-02"), nil).Once()
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Exercise"), false).
		Return(testRoot+"/2024/09/20240902-additions.json", nil).Once()

	report, err := newTestGenerationService(gen, repo, 3).Generate(context.Background(), ce1Maths(1))

	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "mock", report.Generator)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.ExitCode())
	require.Len(t, report.Outcomes, 1)
	outcome := report.Outcomes[0]
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, "20240902-additions", outcome.Exercise.Slug)
	assert.Equal(t, testRoot+"/2024/09/20240902-additions.json", outcome.Path)

	req := outcome.Request
	assert.Equal(t, domain.Date("2024-09-02"), req.Date)
	assert.Equal(t, "Automne", req.Theme)
	assert.Equal(t, 8, req.MinQuestions)
	assert.Equal(t, 15, req.MaxQuestions)
	assert.Equal(t, "Mathématiques", req.DomainLabel)
	assert.Contains(t, []string{"calcul-mental", "probleme", "qcm", "relier"}, req.Type)
	assert.NotEmpty(t, req.Skill)

	gen.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestGenerationService_RetriesRejectedCandidates(t *testing.T) {
	gen := new(MockExerciseGenerator)
	repo := &MockExerciseRepository{root: testRoot}
	gen.On("Generate", mock.Anything, mock.Anything).Return(map[string]any{"title": "incomplet"}, nil).Once()
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, domain.NewLLMServiceError(errors.New("timeout"))).Once()
	gen.On("Generate", mock.Anything, mock.Anything).Return(sampleDocument("20240902-additions", "2024-09-02"), nil).Once()
	repo.On("Save", mock.Anything, mock.Anything, false).Return("path.json", nil).Once()

	report, err := newTestGenerationService(gen, repo, 3).Generate(context.Background(), ce1Maths(1))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 3, report.Outcomes[0].Attempts)
	assert.Empty(t, report.Outcomes[0].Issues)
	gen.AssertExpectations(t)
}

func TestGenerationService_GivesUpAfterMaxRetries(t *testing.T) {
	gen := new(MockExerciseGenerator)
	repo := &MockExerciseRepository{root: testRoot}
	gen.On("Generate", mock.Anything, mock.Anything).Return(map[string]any{"title": "incomplet"}, nil).Times(2)

	report, err := newTestGenerationService(gen, repo, 2).Generate(context.Background(), ce1Maths(1))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.ExitCode())
	outcome := report.Outcomes[0]
	assert.Equal(t, 2, outcome.Attempts)
	assert.True(t, domain.HasCode(outcome.Err, domain.ErrGenerationFailed))
	assert.NotEmpty(t, outcome.Issues)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	gen.AssertExpectations(t)
}

func TestGenerationService_RejectsMismatchedCandidate(t *testing.T) {
	gen := new(MockExerciseGenerator)
	repo := &MockExerciseRepository{root: testRoot}
	// Valid record, but dated the day after the request.
	gen.On("Generate", mock.Anything, mock.Anything).Return(sampleDocument("20240903-additions", "2024-09-03"), nil).Once()

	report, err := newTestGenerationService(gen, repo, 1).Generate(context.Background(), ce1Maths(1))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Outcomes[0].Issues, 1)
	assert.Equal(t, "date", report.Outcomes[0].Issues[0].Field)
}

func TestGenerationService_ConfigurationErrorStopsRun(t *testing.T) {
	gen := new(MockExerciseGenerator)
	repo := &MockExerciseRepository{root: testRoot}
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, domain.NewConfigurationError("OPENAI_API_KEY is not set")).Once()

	report, err := newTestGenerationService(gen, repo, 3).Generate(context.Background(), ce1Maths(2))

	assert.True(t, domain.HasCode(err, domain.ErrConfiguration))
	require.NotNil(t, report)
	assert.Empty(t, report.Outcomes)
	gen.AssertExpectations(t)
}

func TestGenerationService_SaveConflictIsAFailure(t *testing.T) {
	gen := new(MockExerciseGenerator)
	repo := &MockExerciseRepository{root: testRoot}
	gen.On("Generate", mock.Anything, mock.Anything).Return(sampleDocument("20240902-additions", "2024-09-02"), nil).Once()
	repo.On("Save", mock.Anything, mock.Anything, false).Return("", domain.NewExerciseExistsError("2024/09/20240902-additions.json")).Once()

	report, err := newTestGenerationService(gen, repo, 3).Generate(context.Background(), ce1Maths(1))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.True(t, domain.HasCode(report.Outcomes[0].Err, domain.ErrExerciseExists))
}

func TestGenerationService_DryRunWritesNothing(t *testing.T) {
	gen := new(MockExerciseGenerator)
	repo := &MockExerciseRepository{root: testRoot}
	gen.On("Generate", mock.Anything, mock.Anything).Return(sampleDocument("20240902-additions", "2024-09-02"), nil).Once()

	opts := ce1Maths(1)
	opts.DryRun = true
	report, err := newTestGenerationService(gen, repo, 3).Generate(context.Background(), opts)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Empty(t, report.Outcomes[0].Path)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationService_RotatesLevelsAndDates(t *testing.T) {
	gen := new(MockExerciseGenerator)
	repo := &MockExerciseRepository{root: testRoot}
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("offline"))

	opts := GenerateOptions{Count: 4, Domain: "emc", Date: firstOfSeptember}
	report, err := newTestGenerationService(gen, repo, 1).Generate(context.Background(), opts)

	require.NoError(t, err)
	require.Len(t, report.Outcomes, 4)
	var levels []domain.Level
	var dates []domain.Date
	for _, o := range report.Outcomes {
		levels = append(levels, o.Request.Level)
		dates = append(dates, o.Request.Date)
		assert.Equal(t, domain.Subject("emc"), o.Request.Domain)
	}
	assert.Equal(t, []domain.Level{"CP", "CE1", "CE2", "CP"}, levels)
	assert.Equal(t, []domain.Date{"2024-09-02", "2024-09-02", "2024-09-02", "2024-09-03"}, dates)
	assert.Equal(t, 4, report.Failed)
}

func TestGenerationService_InvalidOptions(t *testing.T) {
	svc := newTestGenerationService(new(MockExerciseGenerator), &MockExerciseRepository{}, 1)

	tests := []struct {
		name string
		opts GenerateOptions
	}{
		{"zero count", GenerateOptions{Count: 0}},
		{"unknown level", GenerateOptions{Count: 1, Level: "CM1"}},
		{"unknown domain", GenerateOptions{Count: 1, Domain: "latin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := svc.Generate(context.Background(), tt.opts)
			assert.Nil(t, report)
			assert.True(t, domain.HasCode(err, domain.ErrInvalidInput))
		})
	}
}

func TestGenerationService_Cancelled(t *testing.T) {
	gen := new(MockExerciseGenerator)
	ctx, cancel := context.WithCancel(context.Background())
	gen.On("Generate", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil, context.Canceled).Once()

	_, err := newTestGenerationService(gen, &MockExerciseRepository{}, 3).Generate(ctx, ce1Maths(2))

	assert.ErrorIs(t, err, context.Canceled)
	gen.AssertExpectations(t)
}

// restrictedGenerator only covers the subjects it lists.
type restrictedGenerator struct {
	MockExerciseGenerator
	subjects []domain.Subject
}

func (g *restrictedGenerator) Supports(subject domain.Subject) bool {
	for _, s := range g.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

func TestGenerationService_PickDomain(t *testing.T) {
	v := validation.NewValidator(schema.MustDefault())

	t.Run("never picks zero-weight domains", func(t *testing.T) {
		svc := NewGenerationService(new(MockExerciseGenerator), nil, v, GenerationSettings{Seed: 5}, zap.NewNop()).(*generationService)
		seen := map[domain.Subject]int{}
		for i := 0; i < 2000; i++ {
			subject, ok := svc.pickDomain()
			require.True(t, ok)
			seen[subject]++
		}
		assert.Zero(t, seen["arts"])
		assert.Zero(t, seen["eps"])
		assert.Greater(t, seen["francais"], seen["maths"])
		assert.Greater(t, seen["maths"], seen["anglais"])
	})

	t.Run("honours generator restrictions", func(t *testing.T) {
		gen := &restrictedGenerator{subjects: []domain.Subject{"emc", "arts"}}
		svc := NewGenerationService(gen, nil, v, GenerationSettings{Seed: 5}, zap.NewNop()).(*generationService)
		for i := 0; i < 100; i++ {
			subject, ok := svc.pickDomain()
			require.True(t, ok)
			assert.Equal(t, domain.Subject("emc"), subject)
		}
	})

	t.Run("nothing to pick", func(t *testing.T) {
		gen := &restrictedGenerator{subjects: []domain.Subject{"eps"}}
		svc := NewGenerationService(gen, nil, v, GenerationSettings{Seed: 5}, zap.NewNop()).(*generationService)
		_, ok := svc.pickDomain()
		assert.False(t, ok)
	})
}
