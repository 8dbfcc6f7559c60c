package validation

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"jementraine/internal/domain"
)

const (
	// DefaultLimit is used when a listing request carries no n parameter.
	DefaultLimit = 6
	// MaxLimit caps the n parameter of listing requests.
	MaxLimit = 50
	// MaxQueryLength caps the q parameter of search requests.
	MaxQueryLength = 100
)

// ValidateListFilter validates the optional level and domain filters.
func (v *Validator) ValidateListFilter(level, subject string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if level != "" {
		if _, ok := v.schema.Level(domain.Level(level)); !ok {
			errors = append(errors, domain.NewInvalidValueError("level", level, names(v.schema.LevelNames())))
		}
	}
	if subject != "" {
		if _, ok := v.schema.Domain(domain.Subject(subject)); !ok {
			errors = append(errors, domain.NewInvalidValueError("domain", subject, names(v.schema.DomainNames())))
		}
	}

	return errors
}

// ValidateLimit parses the n parameter. An empty value selects DefaultLimit.
func (v *Validator) ValidateLimit(raw string) (int, domain.ValidationErrors) {
	if strings.TrimSpace(raw) == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ValidationErrors{{Field: "n", Message: "must be an integer"}}
	}
	if n < 1 || n > MaxLimit {
		return 0, domain.ValidationErrors{domain.NewOutOfRangeError("n", n, 1, MaxLimit)}
	}
	return n, nil
}

// ValidateSearchQuery validates the q parameter. An empty query is allowed.
func (v *Validator) ValidateSearchQuery(q string) domain.ValidationErrors {
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return domain.ValidationErrors{domain.NewOutOfRangeError("q", utf8.RuneCountInString(q), 0, MaxQueryLength)}
	}
	return nil
}

// ValidateSlug validates a slug path parameter.
func (v *Validator) ValidateSlug(slug string) domain.ValidationErrors {
	if strings.TrimSpace(slug) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("slug")}
	}
	if !slugFormat.MatchString(slug) {
		return domain.ValidationErrors{{Field: "slug", Message: "must match ^[a-z0-9-]+$"}}
	}
	return nil
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
