package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"jementraine/internal/domain"
	"jementraine/internal/schema"
	"jementraine/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var _ domain.ExerciseRepository = (*ExerciseFileRepository)(nil)

type recordingReporter struct {
	mu      sync.Mutex
	reports map[string][]domain.Issue
}

func (r *recordingReporter) Report(path string, issues []domain.Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reports == nil {
		r.reports = make(map[string][]domain.Issue)
	}
	r.reports[path] = issues
}

func sampleExercise(slug string, date domain.Date) *domain.Exercise {
	questions := make([]domain.Question, 8)
	answers := make([]string, 8)
	for i := range questions {
		answers[i] = fmt.Sprintf("%d", 20+i)
		questions[i] = domain.Question{Prompt: fmt.Sprintf("10 + %d = ?", 10+i), Answer: answers[i]}
	}
	return &domain.Exercise{
		Date:        date,
		Level:       "CE1",
		Domain:      "maths",
		Skill:       "Additionner jusqu'à 100",
		Type:        "calcul-mental",
		Theme:       "automne",
		Title:       "Additions d'automne",
		Slug:        slug,
		H1:          "Additions d'automne",
		Instruction: "Calcule.",
		Questions:   questions,
		Correction:  domain.ListCorrection{Values: answers},
		SEO: domain.SEO{
			Title:       "Additions d'automne pour le CE1 : fiche gratuite",
			Description: "Des additions jusqu'à 100 sur le thème de l'automne, avec correction détaillée, pour réviser le calcul mental en classe de CE1 à la maison.",
			Tags:        []string{"addition"},
		},
	}
}

func newTestRepository(t *testing.T, root string, reporter domain.IssueReporter) *ExerciseFileRepository {
	t.Helper()
	s, err := schema.Default()
	require.NoError(t, err)
	return NewExerciseFileRepository(root, 4, validation.NewValidator(s), reporter, zap.NewNop())
}

func TestLoadAll_IsolatesBadFiles(t *testing.T) {
	root := t.TempDir()
	reporter := &recordingReporter{}
	repo := newTestRepository(t, root, reporter)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := repo.Save(ctx, sampleExercise(fmt.Sprintf("20241015-exercice-%02d", i), "2024-10-15"), false)
		require.NoError(t, err)
	}
	badPath := filepath.Join(root, "2024", "10", "casse.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"date": "2024-10-15",`), 0o644))

	exercises, err := repo.LoadAll(ctx)

	require.NoError(t, err)
	assert.Len(t, exercises, 10)
	require.Len(t, reporter.reports, 1)
	assert.Contains(t, reporter.reports, badPath)
	assert.Len(t, reporter.reports[badPath], 1)
}

func TestLoadAll_DropsInvalidRecords(t *testing.T) {
	root := t.TempDir()
	reporter := &recordingReporter{}
	repo := newTestRepository(t, root, reporter)
	ctx := context.Background()

	_, err := repo.Save(ctx, sampleExercise("20241015-valide", "2024-10-15"), false)
	require.NoError(t, err)

	invalid := sampleExercise("20241016-invalide", "2024-10-16")
	invalid.Questions = invalid.Questions[:3]
	invalid.Correction = domain.ListCorrection{Values: invalid.Answers()}
	invalidPath, err := repo.Save(ctx, invalid, false)
	require.NoError(t, err)

	exercises, err := repo.LoadAll(ctx)

	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, "20241015-valide", exercises[0].Slug)
	require.Contains(t, reporter.reports, invalidPath)
	assert.Equal(t, "questions", reporter.reports[invalidPath][0].Field)
}

func TestLoadAll_TraversalOrder(t *testing.T) {
	root := t.TempDir()
	repo := newTestRepository(t, root, &recordingReporter{})
	ctx := context.Background()

	// Saved out of order; traversal is lexical by path.
	for _, item := range []struct {
		slug string
		date domain.Date
	}{
		{"20240301-c", "2024-03-01"},
		{"20240101-a", "2024-01-01"},
		{"20240201-b", "2024-02-01"},
		{"20240102-a2", "2024-01-02"},
	} {
		_, err := repo.Save(ctx, sampleExercise(item.slug, item.date), false)
		require.NoError(t, err)
	}

	exercises, err := repo.LoadAll(ctx)
	require.NoError(t, err)

	var slugs []string
	for _, ex := range exercises {
		slugs = append(slugs, ex.Slug)
	}
	assert.Equal(t, []string{"20240101-a", "20240102-a2", "20240201-b", "20240301-c"}, slugs)
}

func TestLoadAll_MissingRoot(t *testing.T) {
	repo := newTestRepository(t, filepath.Join(t.TempDir(), "absent"), &recordingReporter{})

	exercises, err := repo.LoadAll(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, exercises)
}

func TestLoadAll_IgnoresOtherExtensions(t *testing.T) {
	root := t.TempDir()
	reporter := &recordingReporter{}
	repo := newTestRepository(t, root, reporter)
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# notes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "draft.json.bak"), []byte("{"), 0o644))

	exercises, err := repo.LoadAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, exercises)
	assert.Empty(t, reporter.reports)
}

func TestLoadAll_CancelledContext(t *testing.T) {
	root := t.TempDir()
	repo := newTestRepository(t, root, &recordingReporter{})
	_, err := repo.Save(context.Background(), sampleExercise("20241015-a", "2024-10-15"), false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = repo.LoadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanAll(t *testing.T) {
	root := t.TempDir()
	repo := newTestRepository(t, root, nil)
	ctx := context.Background()

	_, err := repo.Save(ctx, sampleExercise("20241015-a", "2024-10-15"), false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "zz.json"), []byte("pas du json"), 0o644))

	reports, err := repo.ScanAll(ctx)

	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.True(t, reports[0].Valid())
	assert.Equal(t, 0, reports[0].ErrorCount())
	assert.False(t, reports[1].Valid())
	assert.Error(t, reports[1].ParseError)
	assert.Equal(t, 1, reports[1].ErrorCount())
	assert.Len(t, reports[1].Issues(), 1)
}

func TestSave(t *testing.T) {
	root := t.TempDir()
	repo := newTestRepository(t, root, nil)
	ctx := context.Background()
	exercise := sampleExercise("20241015-additions", "2024-10-15")

	path, err := repo.Save(ctx, exercise, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2024", "10", "20241015-additions.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"date\": \"2024-10-15\""))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, map[string]any{"mode": "list", "v": []any{"20", "21", "22", "23", "24", "25", "26", "27"}}, doc["correction"])

	t.Run("existing file is not overwritten", func(t *testing.T) {
		changed := sampleExercise("20241015-additions", "2024-10-15")
		changed.Title = "Autre titre"

		_, err := repo.Save(ctx, changed, false)

		assert.True(t, domain.HasCode(err, domain.ErrExerciseExists))
		after, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, data, after)
	})

	t.Run("overwrite replaces the file", func(t *testing.T) {
		changed := sampleExercise("20241015-additions", "2024-10-15")
		changed.Title = "Autre titre"

		_, err := repo.Save(ctx, changed, true)
		require.NoError(t, err)

		exercises, err := repo.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, exercises, 1)
		assert.Equal(t, "Autre titre", exercises[0].Title)
	})

	t.Run("unsafe slug is rejected", func(t *testing.T) {
		_, err := repo.Save(ctx, sampleExercise("../../etc", "2024-10-15"), false)
		assert.True(t, domain.HasCode(err, domain.ErrInvalidInput))
	})

	t.Run("invalid date is rejected", func(t *testing.T) {
		_, err := repo.Save(ctx, sampleExercise("20241015-x", "2024-13-45"), false)
		assert.True(t, domain.HasCode(err, domain.ErrInvalidInput))
	})
}

func TestLogIssueReporter(t *testing.T) {
	reporter := NewLogIssueReporter(zap.NewNop())
	assert.NotPanics(t, func() {
		reporter.Report("a.json", []domain.Issue{{Field: "slug", Message: "invalide"}})
	})
}
