package handler

import (
	"encoding/json"

	"jementraine/internal/domain"
	"jementraine/internal/dto"
	"jementraine/internal/middleware"
	"jementraine/internal/service"
	"jementraine/internal/util"
	"jementraine/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ExerciseHandler serves the read-only exercise API
type ExerciseHandler struct {
	service   service.ExerciseService
	validator *validation.Validator
}

// NewExerciseHandler creates a new ExerciseHandler instance
func NewExerciseHandler(service service.ExerciseService, validator *validation.Validator) *ExerciseHandler {
	return &ExerciseHandler{
		service:   service,
		validator: validator,
	}
}

func (h *ExerciseHandler) minutes(ex *domain.Exercise) int {
	perQuestion := 1.0
	if tier, ok := h.validator.Schema().Level(ex.Level); ok && tier.MinutesPerQuestion > 0 {
		perQuestion = tier.MinutesPerQuestion
	}
	return util.EstimateMinutes(len(ex.Questions), perQuestion)
}

func (h *ExerciseHandler) list(exercises []*domain.Exercise) dto.ExerciseListResponse {
	items := make([]dto.ExerciseSummary, len(exercises))
	for i, ex := range exercises {
		items[i] = dto.NewExerciseSummary(ex, h.minutes(ex))
	}
	return dto.ExerciseListResponse{Items: items, Total: len(items)}
}

// ListExercises godoc
// @Summary List exercises
// @Description Returns the exercises, optionally filtered by level and domain, in publication order
// @Tags exercises
// @Produce json
// @Param level query string false "Level (CP, CE1, CE2)"
// @Param domain query string false "Domain"
// @Success 200 {object} dto.ExerciseListResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *fiber.Ctx) error {
	catalog, err := h.service.Catalog(c.UserContext())
	if err != nil {
		return err
	}

	level, _ := c.Locals(middleware.LocalLevel).(domain.Level)
	subject, _ := c.Locals(middleware.LocalDomain).(domain.Subject)
	return c.JSON(h.list(catalog.Filter(level, subject)))
}

// RecentExercises godoc
// @Summary Latest exercises
// @Description Returns the n most recent exercises
// @Tags exercises
// @Produce json
// @Param n query int false "Number of exercises (1-50, default 6)"
// @Success 200 {object} dto.ExerciseListResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /exercises/recent [get]
func (h *ExerciseHandler) RecentExercises(c *fiber.Ctx) error {
	catalog, err := h.service.Catalog(c.UserContext())
	if err != nil {
		return err
	}

	n, _ := c.Locals(middleware.LocalLimit).(int)
	return c.JSON(h.list(catalog.Recent(n)))
}

// SearchExercises godoc
// @Summary Search exercises
// @Description Case-insensitive search over title, heading, skill and tags
// @Tags exercises
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {object} dto.ExerciseListResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /exercises/search [get]
func (h *ExerciseHandler) SearchExercises(c *fiber.Ctx) error {
	catalog, err := h.service.Catalog(c.UserContext())
	if err != nil {
		return err
	}

	q, _ := c.Locals(middleware.LocalQuery).(string)
	return c.JSON(h.list(catalog.Search(q)))
}

// GetExercise godoc
// @Summary Get an exercise
// @Description Returns one exercise with its questions and correction
// @Tags exercises
// @Produce json
// @Param slug path string true "Exercise slug"
// @Success 200 {object} dto.ExerciseResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /exercises/{slug} [get]
func (h *ExerciseHandler) GetExercise(c *fiber.Ctx) error {
	catalog, err := h.service.Catalog(c.UserContext())
	if err != nil {
		return err
	}

	slug, _ := c.Locals(middleware.LocalSlug).(string)
	ex, ok := catalog.BySlug(slug)
	if !ok {
		return domain.NewExerciseNotFoundError(slug)
	}
	return c.JSON(dto.NewExerciseResponse(ex, h.minutes(ex)))
}

// RelatedExercises godoc
// @Summary Related exercises
// @Description Exercises sharing the level or the domain of the given one
// @Tags exercises
// @Produce json
// @Param slug path string true "Exercise slug"
// @Param n query int false "Number of exercises (1-50, default 6)"
// @Success 200 {object} dto.ExerciseListResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /exercises/{slug}/related [get]
func (h *ExerciseHandler) RelatedExercises(c *fiber.Ctx) error {
	catalog, err := h.service.Catalog(c.UserContext())
	if err != nil {
		return err
	}

	slug, _ := c.Locals(middleware.LocalSlug).(string)
	ex, ok := catalog.BySlug(slug)
	if !ok {
		return domain.NewExerciseNotFoundError(slug)
	}
	n, _ := c.Locals(middleware.LocalLimit).(int)
	return c.JSON(h.list(catalog.Related(ex, n)))
}

// GetStats godoc
// @Summary Corpus statistics
// @Description Exercise counts per level and domain, and the themes in use
// @Tags exercises
// @Produce json
// @Success 200 {object} dto.StatsResponse
// @Router /stats [get]
func (h *ExerciseHandler) GetStats(c *fiber.Ctx) error {
	catalog, err := h.service.Catalog(c.UserContext())
	if err != nil {
		return err
	}

	byLevel := make(map[string]int)
	for level, count := range catalog.CountByLevel() {
		byLevel[string(level)] = count
	}
	byDomain := make(map[string]int)
	for subject, count := range catalog.CountByDomain() {
		byDomain[string(subject)] = count
	}
	return c.JSON(dto.StatsResponse{
		Total:    catalog.Len(),
		ByLevel:  byLevel,
		ByDomain: byDomain,
		Themes:   catalog.Themes(),
	})
}

// ValidateExercise godoc
// @Summary Validate a candidate exercise
// @Description Runs the record validator on the request body
// @Tags validation
// @Accept json
// @Produce json
// @Success 200 {object} validation.Result
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 422 {object} validation.Result
// @Router /validate [post]
func (h *ExerciseHandler) ValidateExercise(c *fiber.Ctx) error {
	var doc any
	if err := json.Unmarshal(c.Body(), &doc); err != nil {
		return domain.NewInvalidInputError("Request body is not valid JSON")
	}

	result := h.validator.Validate(doc)
	status := fiber.StatusOK
	if !result.Valid {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(result)
}

// InvalidateCache godoc
// @Summary Reload the content store
// @Description Drops the cached catalog; the next request reloads it from disk
// @Tags admin
// @Success 204
// @Failure 500 {object} middleware.ErrorResponse
// @Router /cache/invalidate [post]
func (h *ExerciseHandler) InvalidateCache(c *fiber.Ctx) error {
	if err := h.service.Invalidate(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterRoutes mounts the exercise routes on router.
func (h *ExerciseHandler) RegisterRoutes(router fiber.Router, vm *middleware.ValidationMiddleware) {
	router.Get("/exercises", vm.ValidateListFilter(), h.ListExercises)
	router.Get("/exercises/recent", vm.ValidateLimit(), h.RecentExercises)
	router.Get("/exercises/search", vm.ValidateSearchQuery(), h.SearchExercises)
	router.Get("/exercises/:slug", vm.ValidateSlug(), h.GetExercise)
	router.Get("/exercises/:slug/related", vm.ValidateSlug(), vm.ValidateLimit(), h.RelatedExercises)
	router.Get("/stats", h.GetStats)
	router.Post("/validate", h.ValidateExercise)
	router.Post("/cache/invalidate", h.InvalidateCache)
}
