// Package api provides the HTTP surface of the collection search engine.
package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
	"github.com/gcbaptista/go-collection-search/internal/search"
	"github.com/gcbaptista/go-collection-search/model"
)

// Result page bounds.
const (
	DefaultResultLimit = 100
	MaxResultLimit     = 10000
)

// maxVerbosity is the highest meaningful verbosity mask.
const maxVerbosity = search.VerboseAdds<<1 - 1

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateProblemName validates a problem name parameter
func ValidateProblemName(problemName string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if problemName == "" {
		result.AddError("name", "Problem name is required")
		return result
	}

	if strings.TrimSpace(problemName) != problemName {
		result.AddError("name", "Problem name cannot have leading or trailing whitespace")
		return result
	}

	return result
}

// ValidateProblemDefinition validates a problem definition for creation.
// Every rule the definition breaks becomes one error.
func ValidateProblemDefinition(def *model.ProblemDefinition) *ValidationResult {
	result := ValidateProblemName(def.Name)
	if result.HasErrors() {
		return result
	}

	err := def.Validate()
	if err == nil {
		return result
	}

	var validationErr *internalErrors.ValidationError
	if !errors.As(err, &validationErr) {
		result.AddError("definition", err.Error())
		return result
	}
	field := validationErr.Field
	if field == "" {
		field = "definition"
	}
	for _, msg := range strings.Split(validationErr.Message, "; ") {
		result.AddError(field, msg)
	}
	return result
}

// ParseVerbosity reads a verbosity mask; an empty string means silent.
func ParseVerbosity(s string) (search.Verbosity, *ValidationResult) {
	result := &ValidationResult{Valid: true}
	if s == "" {
		return 0, result
	}

	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || search.Verbosity(v) > maxVerbosity {
		result.AddError("verbosity", fmt.Sprintf("Verbosity must be an integer between 0 and %d", maxVerbosity))
		return 0, result
	}
	return search.Verbosity(v), result
}

// ParsePagination reads the offset and limit of a result page.
func ParsePagination(offsetStr, limitStr string) (int, int, *ValidationResult) {
	result := &ValidationResult{Valid: true}
	offset, limit := 0, DefaultResultLimit

	if offsetStr != "" {
		v, err := strconv.Atoi(offsetStr)
		if err != nil || v < 0 {
			result.AddError("offset", "Offset must be a non-negative integer")
		} else {
			offset = v
		}
	}

	if limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 || v > MaxResultLimit {
			result.AddError("limit", fmt.Sprintf("Limit must be an integer between 1 and %d", MaxResultLimit))
		} else {
			limit = v
		}
	}

	return offset, limit, result
}

// ParseAsync reads the async query flag.
func ParseAsync(s string) (bool, *ValidationResult) {
	result := &ValidationResult{Valid: true}
	if s == "" {
		return false, result
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		result.AddError("async", "Async must be true or false")
	}
	return v, result
}

// ValidateBatchRequest validates a batch execution request
func ValidateBatchRequest(req *BatchExecuteRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(req.Problems) == 0 {
		result.AddError("problems", "At least one problem name is required")
		return result
	}

	seen := make(map[string]bool, len(req.Problems))
	for i, name := range req.Problems {
		field := fmt.Sprintf("problems[%d]", i)
		if name == "" {
			result.AddError(field, "Problem name cannot be empty")
			continue
		}
		if seen[name] {
			result.AddError(field, "Problem '"+name+"' is listed twice")
		}
		seen[name] = true
	}

	if req.Verbosity > uint(maxVerbosity) {
		result.AddError("verbosity", fmt.Sprintf("Verbosity must be between 0 and %d", maxVerbosity))
	}

	return result
}
