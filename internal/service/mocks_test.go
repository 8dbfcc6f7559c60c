package service

import (
	"context"
	"encoding/json"
	"fmt"

	"jementraine/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockExerciseRepository ---
type MockExerciseRepository struct {
	mock.Mock
	root string
}

func (m *MockExerciseRepository) LoadAll(ctx context.Context) ([]*domain.Exercise, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Exercise), args.Error(1)
}

func (m *MockExerciseRepository) Save(ctx context.Context, exercise *domain.Exercise, overwrite bool) (string, error) {
	args := m.Called(ctx, exercise, overwrite)
	return args.String(0), args.Error(1)
}

func (m *MockExerciseRepository) Root() string {
	return m.root
}

// --- MockExerciseGenerator ---
type MockExerciseGenerator struct {
	mock.Mock
}

func (m *MockExerciseGenerator) Name() string {
	return "mock"
}

func (m *MockExerciseGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (any, error) {
	args := m.Called(ctx, req)
	return args.Get(0), args.Error(1)
}

// sampleRecord is a valid CE1 maths exercise.
func sampleRecord(slug string, date domain.Date) *domain.Exercise {
	questions := make([]domain.Question, 8)
	answers := make([]string, 8)
	for i := range questions {
		answers[i] = fmt.Sprintf("%d", 30+i)
		questions[i] = domain.Question{Prompt: fmt.Sprintf("20 + %d = ?", 10+i), Answer: answers[i]}
	}
	return &domain.Exercise{
		Date:        date,
		Level:       "CE1",
		Domain:      "maths",
		Skill:       "Additionner jusqu'à 100",
		Type:        "calcul-mental",
		Theme:       "rentrée",
		Title:       "Additions de la rentrée",
		Slug:        slug,
		H1:          "Additions de la rentrée",
		Instruction: "Calcule chaque addition.",
		Questions:   questions,
		Correction:  domain.ListCorrection{Values: answers},
		SEO: domain.SEO{
			Title:       "Additions de la rentrée pour le CE1 : fiche gratuite",
			Description: "Huit additions jusqu'à 100 pour reprendre le calcul mental en douceur à la rentrée, avec la correction complète et un indice par question.",
			Tags:        []string{"addition", "rentrée"},
		},
	}
}

// sampleDocument is sampleRecord as the generic JSON value a generator returns.
func sampleDocument(slug string, date domain.Date) any {
	data, err := json.Marshal(sampleRecord(slug, date))
	if err != nil {
		panic(err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		panic(err)
	}
	return doc
}
