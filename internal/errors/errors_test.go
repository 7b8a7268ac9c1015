package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestProblemNotFoundError(t *testing.T) {
	err := NewProblemNotFoundError("lineup")

	expectedMsg := "problem named 'lineup' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrProblemNotFound) {
		t.Error("Expected error to match ErrProblemNotFound sentinel")
	}
	if errors.Is(err, ErrJobNotFound) {
		t.Error("Error should not match ErrJobNotFound")
	}
}

func TestProblemAlreadyExistsError(t *testing.T) {
	err := NewProblemAlreadyExistsError("lineup")

	expectedMsg := "problem named 'lineup' already exists"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrProblemAlreadyExists) {
		t.Error("Expected error to match ErrProblemAlreadyExists sentinel")
	}
}

func TestJobNotFoundError(t *testing.T) {
	err := NewJobNotFoundError("job-456")

	expectedMsg := "job with ID 'job-456' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrJobNotFound) {
		t.Error("Expected error to match ErrJobNotFound sentinel")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("picks", "must not be empty")
	expectedMsg := "validation error for field 'picks': must not be empty"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	noField := NewValidationError("", "bad shape")
	if noField.Error() != "validation error: bad shape" {
		t.Errorf("Unexpected message '%s'", noField.Error())
	}

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("Expected error to match ErrInvalidInput sentinel")
	}
}

func TestSearchError(t *testing.T) {
	cause := errors.New("too many combinations")
	err := NewSearchError("lineup", cause)

	expectedMsg := "search failed for problem 'lineup': too many combinations"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrSearchFailed) {
		t.Error("Expected error to match ErrSearchFailed sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected error to unwrap to its cause")
	}

	anonymous := NewSearchError("", cause)
	if anonymous.Error() != "search failed: too many combinations" {
		t.Errorf("Unexpected message '%s'", anonymous.Error())
	}
}

func TestWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", NewProblemNotFoundError("x"))

	if !errors.Is(wrapped, ErrProblemNotFound) {
		t.Error("Expected wrapped error to match ErrProblemNotFound")
	}

	var target *ProblemNotFoundError
	if !errors.As(wrapped, &target) {
		t.Fatal("Expected errors.As to find ProblemNotFoundError")
	}
	if target.ProblemName != "x" {
		t.Errorf("Expected problem name 'x', got '%s'", target.ProblemName)
	}
}
