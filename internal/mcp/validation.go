package mcp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anortham/coa-codenav-mcp-sub005/internal/navigation"
)

// ValidationError represents a parameter validation error.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s is %s", e.Field, e.Message)
}

// Limits for caller-supplied parameters.
const (
	maxSymbolLength = 512
	maxTokenLimit   = 200000
	maxTreeDepth    = 10
)

// validateSymbol checks a required symbol-like parameter.
func validateSymbol(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ValidationError{Field: field, Message: "required"}
	}
	if len(trimmed) > maxSymbolLength {
		return ValidationError{Field: field, Message: fmt.Sprintf("longer than %d characters", maxSymbolLength)}
	}
	return nil
}

// validateTokenLimit checks an optional max_tokens parameter; 0 means the
// server default applies.
func validateTokenLimit(value int) error {
	if value < 0 {
		return ValidationError{Field: "max_tokens", Message: "negative", Value: value}
	}
	if value > maxTokenLimit {
		return ValidationError{Field: "max_tokens", Message: fmt.Sprintf("above the %d cap", maxTokenLimit), Value: value}
	}
	return nil
}

// validateDepth checks an optional call-tree depth; 0 means the default.
func validateDepth(value int) error {
	if value < 0 || value > maxTreeDepth {
		return ValidationError{Field: "depth", Message: fmt.Sprintf("outside 0..%d", maxTreeDepth), Value: value}
	}
	return nil
}

// isUnavailable reports whether an error indicates the language service
// could not be reached.
func isUnavailable(err error) bool {
	var unavailable *navigation.UnavailableError
	return errors.As(err, &unavailable)
}
