package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jementraine/internal/domain"
	"jementraine/internal/dto"
	"jementraine/internal/handler"
	"jementraine/internal/middleware"
	"jementraine/internal/schema"
	"jementraine/internal/service"
	"jementraine/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Manual Mocks ---

// MockExerciseService
type MockExerciseService struct {
	CatalogFunc    func(ctx context.Context) (*service.Catalog, error)
	InvalidateFunc func(ctx context.Context) error
}

func (m *MockExerciseService) Catalog(ctx context.Context) (*service.Catalog, error) {
	if m.CatalogFunc != nil {
		return m.CatalogFunc(ctx)
	}
	panic("MockExerciseService.CatalogFunc not implemented")
}
func (m *MockExerciseService) Invalidate(ctx context.Context) error {
	if m.InvalidateFunc != nil {
		return m.InvalidateFunc(ctx)
	}
	panic("MockExerciseService.InvalidateFunc not implemented")
}

func exercise(slug string, level domain.Level, subject domain.Subject, date domain.Date, n int) *domain.Exercise {
	questions := make([]domain.Question, n)
	answers := make([]string, n)
	for i := range questions {
		answers[i] = fmt.Sprint(i + 2)
		questions[i] = domain.Question{Prompt: fmt.Sprintf("1 + %d = ?", i+1), Answer: answers[i]}
	}
	return &domain.Exercise{
		Date: date, Level: level, Domain: subject, Skill: "Additionner", Type: "calcul-mental",
		Title: "Fiche " + slug, Slug: slug, H1: "Fiche " + slug, Instruction: "Calcule.",
		Questions:  questions,
		Correction: domain.ListCorrection{Values: answers},
		SEO:        domain.SEO{Title: "Fiche", Tags: []string{"calcul"}},
	}
}

func setupApp(t *testing.T, svc service.ExerciseService) *fiber.App {
	t.Helper()
	validator := validation.NewValidator(schema.MustDefault())
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
	})
	app.Use(middleware.RequestLogger(zap.NewNop()))
	h := handler.NewExerciseHandler(svc, validator)
	h.RegisterRoutes(app.Group("/api"), middleware.NewValidationMiddleware(validator))
	return app
}

func catalogService(exercises ...*domain.Exercise) *MockExerciseService {
	catalog := service.NewCatalog(exercises, schema.MustDefault())
	return &MockExerciseService{
		CatalogFunc: func(ctx context.Context) (*service.Catalog, error) { return catalog, nil },
	}
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func slugs(t *testing.T, data []byte) []string {
	t.Helper()
	var list dto.ExerciseListResponse
	require.NoError(t, json.Unmarshal(data, &list))
	out := []string{}
	for _, item := range list.Items {
		out = append(out, item.Slug)
	}
	assert.Equal(t, len(out), list.Total)
	return out
}

func corpus() *MockExerciseService {
	return catalogService(
		exercise("20240902-a", "CP", "maths", "2024-09-02", 8),
		exercise("20240903-b", "CE1", "maths", "2024-09-03", 10),
		exercise("20240904-c", "CP", "francais", "2024-09-04", 6),
	)
}

func TestExerciseHandler_List(t *testing.T) {
	app := setupApp(t, corpus())

	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedSlugs  []string
	}{
		{"all", "/api/exercises", http.StatusOK, []string{"20240902-a", "20240903-b", "20240904-c"}},
		{"by level", "/api/exercises?level=CP", http.StatusOK, []string{"20240902-a", "20240904-c"}},
		{"by level and domain", "/api/exercises?level=CP&domain=maths", http.StatusOK, []string{"20240902-a"}},
		{"no match", "/api/exercises?level=CE2", http.StatusOK, []string{}},
		{"unknown level", "/api/exercises?level=CM2", http.StatusBadRequest, nil},
		{"unknown domain", "/api/exercises?domain=latin", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doRequest(t, app, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedSlugs, slugs(t, data))
				return
			}
			var body middleware.ValidationErrorResponse
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Equal(t, middleware.CodeValidation, body.Code)
			assert.Len(t, body.Errors, 1)
		})
	}
}

func TestExerciseHandler_Summary(t *testing.T) {
	app := setupApp(t, corpus())

	_, data := doRequest(t, app, http.MethodGet, "/api/exercises?level=CE1", nil)

	var list dto.ExerciseListResponse
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, 10, list.Items[0].QuestionCount)
	// CE1 allows half a minute per question.
	assert.Equal(t, 5, list.Items[0].Minutes)
}

func TestExerciseHandler_Recent(t *testing.T) {
	app := setupApp(t, corpus())

	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedSlugs  []string
	}{
		{"default limit", "/api/exercises/recent", http.StatusOK, []string{"20240904-c", "20240903-b", "20240902-a"}},
		{"limited", "/api/exercises/recent?n=2", http.StatusOK, []string{"20240904-c", "20240903-b"}},
		{"not a number", "/api/exercises/recent?n=abc", http.StatusBadRequest, nil},
		{"zero", "/api/exercises/recent?n=0", http.StatusBadRequest, nil},
		{"too many", "/api/exercises/recent?n=51", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doRequest(t, app, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedSlugs, slugs(t, data))
			}
		})
	}
}

func TestExerciseHandler_Search(t *testing.T) {
	app := setupApp(t, corpus())

	resp, data := doRequest(t, app, http.MethodGet, "/api/exercises/search?q=FICHE%2020240903", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"20240903-b"}, slugs(t, data))

	resp, _ = doRequest(t, app, http.MethodGet, "/api/exercises/search?q="+strings.Repeat("a", 101), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExerciseHandler_GetExercise(t *testing.T) {
	app := setupApp(t, corpus())

	t.Run("found", func(t *testing.T) {
		resp, data := doRequest(t, app, http.MethodGet, "/api/exercises/20240904-c", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body dto.ExerciseResponse
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, "20240904-c", body.Slug)
		assert.Equal(t, "Calcule.", body.Instruction)
		assert.Len(t, body.Questions, 6)
		assert.Equal(t, "list", body.Correction.Mode)
		assert.Equal(t, []string{"2", "3", "4", "5", "6", "7"}, body.Correction.Values)
		assert.Equal(t, []string{}, body.SEO.InternalLinks)
	})

	t.Run("not found", func(t *testing.T) {
		resp, data := doRequest(t, app, http.MethodGet, "/api/exercises/20990101-absent", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body middleware.ErrorResponse
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, string(domain.ErrExerciseNotFound), body.Code)
	})

	t.Run("malformed slug", func(t *testing.T) {
		resp, _ := doRequest(t, app, http.MethodGet, "/api/exercises/Bad_Slug", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestExerciseHandler_Related(t *testing.T) {
	app := setupApp(t, corpus())

	resp, data := doRequest(t, app, http.MethodGet, "/api/exercises/20240902-a/related?n=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	// Same level ranks above same domain.
	assert.Equal(t, []string{"20240904-c", "20240903-b"}, slugs(t, data))

	resp, _ = doRequest(t, app, http.MethodGet, "/api/exercises/20990101-absent/related", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExerciseHandler_Stats(t *testing.T) {
	app := setupApp(t, corpus())

	resp, data := doRequest(t, app, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.StatsResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, map[string]int{"CP": 2, "CE1": 1, "CE2": 0}, body.ByLevel)
	assert.Equal(t, 2, body.ByDomain["maths"])
	assert.Equal(t, 0, body.ByDomain["eps"])
}

func TestExerciseHandler_Validate(t *testing.T) {
	app := setupApp(t, corpus())

	valid, err := json.Marshal(exercise("20240905-d", "CP", "maths", "2024-09-05", 6))
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		resp, data := doRequest(t, app, http.MethodPost, "/api/validate", strings.NewReader(string(valid)))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result validation.Result
		require.NoError(t, json.Unmarshal(data, &result))
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("invalid", func(t *testing.T) {
		resp, data := doRequest(t, app, http.MethodPost, "/api/validate", strings.NewReader(`{"level": "CP"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var result validation.Result
		require.NoError(t, json.Unmarshal(data, &result))
		assert.False(t, result.Valid)
		assert.NotEmpty(t, result.Errors)
	})

	t.Run("not json", func(t *testing.T) {
		resp, data := doRequest(t, app, http.MethodPost, "/api/validate", strings.NewReader(`{"level":`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body middleware.ErrorResponse
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, string(domain.ErrInvalidInput), body.Code)
	})
}

func TestExerciseHandler_CatalogFailure(t *testing.T) {
	app := setupApp(t, &MockExerciseService{
		CatalogFunc: func(ctx context.Context) (*service.Catalog, error) {
			return nil, domain.NewInternalError("Failed to load exercises", errors.New("permission denied"))
		},
	})

	resp, data := doRequest(t, app, http.MethodGet, "/api/exercises", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, string(domain.ErrInternal), body.Code)
	assert.Equal(t, "Failed to load exercises", body.Message)
}

func TestExerciseHandler_InvalidateCache(t *testing.T) {
	called := false
	svc := corpus()
	svc.InvalidateFunc = func(ctx context.Context) error {
		called = true
		return nil
	}
	app := setupApp(t, svc)

	resp, _ := doRequest(t, app, http.MethodPost, "/api/cache/invalidate", nil)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, called)
}

func TestRequestLogger_RequestID(t *testing.T) {
	app := setupApp(t, corpus())

	resp, _ := doRequest(t, app, http.MethodGet, "/api/stats", nil)
	assert.Len(t, resp.Header.Get(middleware.RequestIDHeader), 26)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set(middleware.RequestIDHeader, "caller-id")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "caller-id", resp.Header.Get(middleware.RequestIDHeader))

	// Errors are rendered before the request is logged.
	resp, _ = doRequest(t, app, http.MethodGet, "/api/exercises/20990101-absent", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}
