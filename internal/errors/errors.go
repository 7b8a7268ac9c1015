package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrProblemNotFound is returned when a problem is not found
	ErrProblemNotFound = errors.New("problem not found")

	// ErrProblemAlreadyExists is returned when trying to create a problem that already exists
	ErrProblemAlreadyExists = errors.New("problem already exists")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured is returned when an operation needs structure that was never initialized
	ErrNotConfigured = errors.New("problem structure not initialized")

	// ErrAlreadyConfigured is returned when a one-time initialization step is repeated
	ErrAlreadyConfigured = errors.New("already configured")

	// ErrNotLoaded is returned when a search is requested before a successful lock-and-load
	ErrNotLoaded = errors.New("problem not loaded")

	// ErrSearchFailed is returned when the search state could not be constructed
	ErrSearchFailed = errors.New("search failed")
)

// ProblemNotFoundError represents a problem not found error with context
type ProblemNotFoundError struct {
	ProblemName string
}

func (e *ProblemNotFoundError) Error() string {
	return fmt.Sprintf("problem named '%s' not found", e.ProblemName)
}

func (e *ProblemNotFoundError) Is(target error) bool {
	return target == ErrProblemNotFound
}

// NewProblemNotFoundError creates a new ProblemNotFoundError
func NewProblemNotFoundError(problemName string) *ProblemNotFoundError {
	return &ProblemNotFoundError{ProblemName: problemName}
}

// ProblemAlreadyExistsError represents a problem already exists error with context
type ProblemAlreadyExistsError struct {
	ProblemName string
}

func (e *ProblemAlreadyExistsError) Error() string {
	return fmt.Sprintf("problem named '%s' already exists", e.ProblemName)
}

func (e *ProblemAlreadyExistsError) Is(target error) bool {
	return target == ErrProblemAlreadyExists
}

// NewProblemAlreadyExistsError creates a new ProblemAlreadyExistsError
func NewProblemAlreadyExistsError(problemName string) *ProblemAlreadyExistsError {
	return &ProblemAlreadyExistsError{ProblemName: problemName}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// SearchError wraps a failure to build or run the search for a problem.
type SearchError struct {
	ProblemName string
	Cause       error
}

func (e *SearchError) Error() string {
	if e.ProblemName != "" {
		return fmt.Sprintf("search failed for problem '%s': %v", e.ProblemName, e.Cause)
	}
	return fmt.Sprintf("search failed: %v", e.Cause)
}

func (e *SearchError) Is(target error) bool {
	return target == ErrSearchFailed
}

func (e *SearchError) Unwrap() error {
	return e.Cause
}

// NewSearchError creates a new SearchError
func NewSearchError(problemName string, cause error) *SearchError {
	return &SearchError{ProblemName: problemName, Cause: cause}
}
