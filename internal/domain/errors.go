package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing catalog entry.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals a request that cannot be served as given.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateID signals two catalog entries sharing one anime id.
	ErrDuplicateID = errors.New("duplicate anime id")
	// ErrCorpusNotReady signals that no corpus snapshot has been published yet.
	ErrCorpusNotReady = errors.New("corpus not loaded")
	// ErrIngestInProgress signals a reload attempt while another one is running.
	ErrIngestInProgress = errors.New("ingestion already in progress")
)

// NotFoundError wraps ErrNotFound with the kind and id of the missing entry.
type NotFoundError struct {
	Kind string
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound creates a not-found error for the given entry.
func NewNotFound(kind string, id int) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a validation error for a request field.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
