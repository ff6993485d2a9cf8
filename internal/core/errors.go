package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches any ValidationError via errors.Is
	ErrValidation = errors.New("validation failed")
	// ErrClassification matches any ClassificationError via errors.Is
	ErrClassification = errors.New("classification failed")
	// ErrPersistence matches any PersistenceError via errors.Is
	ErrPersistence = errors.New("memory persistence failed")
	// ErrGeneration is returned when summarization or reply drafting fails
	ErrGeneration = errors.New("text generation failed")
)

// ValidationError reports malformed input to the policy or pipeline
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ClassificationError wraps a failed or timed-out classifier call
type ClassificationError struct {
	Stage string
	Err   error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed during %s: %v", e.Stage, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrClassification) match
func (e *ClassificationError) Is(target error) bool {
	return target == ErrClassification
}

// PersistenceError wraps a memory store load or save failure
type PersistenceError struct {
	Op       string
	Location string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s memory store %s: %v", e.Op, e.Location, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPersistence) match
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
