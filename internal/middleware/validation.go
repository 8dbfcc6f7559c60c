package middleware

import (
	"jementraine/internal/domain"
	"jementraine/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Keys of the validated request values stored in fiber locals.
const (
	LocalLevel  = "validated_level"
	LocalDomain = "validated_domain"
	LocalLimit  = "validated_limit"
	LocalQuery  = "validated_query"
	LocalSlug   = "validated_slug"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware(validator *validation.Validator) *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validator,
	}
}

// ValidateListFilter validates the optional level and domain query parameters.
func (vm *ValidationMiddleware) ValidateListFilter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		level := c.Query("level")
		subject := c.Query("domain")

		if errors := vm.validator.ValidateListFilter(level, subject); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}

		c.Locals(LocalLevel, domain.Level(level))
		c.Locals(LocalDomain, domain.Subject(subject))
		return c.Next()
	}
}

// ValidateLimit validates the n query parameter.
func (vm *ValidationMiddleware) ValidateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, errors := vm.validator.ValidateLimit(c.Query("n"))
		if len(errors) > 0 {
			return errors
		}

		c.Locals(LocalLimit, n)
		return c.Next()
	}
}

// ValidateSearchQuery validates the q query parameter.
func (vm *ValidationMiddleware) ValidateSearchQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if errors := vm.validator.ValidateSearchQuery(q); len(errors) > 0 {
			return errors
		}

		c.Locals(LocalQuery, q)
		return c.Next()
	}
}

// ValidateSlug validates the :slug path parameter.
func (vm *ValidationMiddleware) ValidateSlug() fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if errors := vm.validator.ValidateSlug(slug); len(errors) > 0 {
			return errors
		}

		c.Locals(LocalSlug, slug)
		return c.Next()
	}
}
