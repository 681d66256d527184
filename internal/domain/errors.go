package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation signals a bad request or bad configuration.
	ErrValidation = errors.New("validation failed")
	// ErrRetrieval signals a vector store call failure.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrEmbedding signals an embedding provider failure.
	ErrEmbedding = errors.New("embedding failed")
	// ErrRerank signals a reranker call failure.
	ErrRerank = errors.New("rerank failed")
	// ErrFormatting signals a malformed internal shape during response assembly.
	ErrFormatting = errors.New("response formatting failed")
)

// FieldIssue describes a single invalid or missing field.
type FieldIssue struct {
	Field  string
	Reason string
}

func (i FieldIssue) String() string {
	return i.Field + ": " + i.Reason
}

// ValidationError wraps ErrValidation with every offending field and reason.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Issues: []FieldIssue{{Field: field, Reason: reason}}}
}
