package domain

import (
	"fmt"
	"strings"
)

// Issue is one finding about a candidate record, addressed by a field path
// such as "questions[3].answer".
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ValidationErrors is a list of request validation issues returned as an error.
type ValidationErrors []Issue

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, issue := range v {
		parts[i] = issue.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewMissingFieldError reports a required request parameter that is absent.
func NewMissingFieldError(field string) Issue {
	return Issue{Field: field, Message: "is required"}
}

// NewInvalidValueError reports a request parameter outside its allowed values.
func NewInvalidValueError(field, value string, allowed []string) Issue {
	return Issue{
		Field:   field,
		Message: fmt.Sprintf("invalid value %q (allowed: %s)", value, strings.Join(allowed, ", ")),
	}
}

// NewOutOfRangeError reports a numeric request parameter outside [min, max].
func NewOutOfRangeError(field string, value, min, max int) Issue {
	return Issue{
		Field:   field,
		Message: fmt.Sprintf("value %d out of range [%d, %d]", value, min, max),
	}
}
