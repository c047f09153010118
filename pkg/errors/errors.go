package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "VALIDATION"
	ErrorTypeNotFound           ErrorType = "NOT_FOUND"
	ErrorTypeDuplicateName      ErrorType = "DUPLICATE_NAME"
	ErrorTypeCapacityExceeded   ErrorType = "CAPACITY_EXCEEDED"
	ErrorTypeInvalidAssociation ErrorType = "INVALID_ASSOCIATION"
	ErrorTypeHasIncidentEdges   ErrorType = "HAS_INCIDENT_EDGES"
	ErrorTypeTransient          ErrorType = "TRANSIENT"
	ErrorTypeInternal           ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewDuplicateName creates an error for a name already taken within a category
func NewDuplicateName(message string) error {
	return &AppError{Type: ErrorTypeDuplicateName, Message: message}
}

// NewCapacityExceeded creates an error for a category that hit its creation ceiling
func NewCapacityExceeded(message string) error {
	return &AppError{Type: ErrorTypeCapacityExceeded, Message: message}
}

// NewInvalidAssociation creates an error for a forbidden endpoint pairing
func NewInvalidAssociation(message string) error {
	return &AppError{Type: ErrorTypeInvalidAssociation, Message: message}
}

// NewHasIncidentEdges creates an error for deleting a node that still has edges
func NewHasIncidentEdges(message string) error {
	return &AppError{Type: ErrorTypeHasIncidentEdges, Message: message}
}

// NewTransient wraps a provider failure that is safe to retry
func NewTransient(message string, err error) error {
	return &AppError{Type: ErrorTypeTransient, Message: message, Err: err}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// IsType reports whether err is an AppError of the given type anywhere in its chain
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// Type checking functions

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return IsType(err, ErrorTypeValidation) }

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return IsType(err, ErrorTypeNotFound) }

// IsDuplicateName checks if an error is a duplicate name error
func IsDuplicateName(err error) bool { return IsType(err, ErrorTypeDuplicateName) }

// IsCapacityExceeded checks if an error is a capacity ceiling error
func IsCapacityExceeded(err error) bool { return IsType(err, ErrorTypeCapacityExceeded) }

// IsInvalidAssociation checks if an error is a forbidden pairing error
func IsInvalidAssociation(err error) bool { return IsType(err, ErrorTypeInvalidAssociation) }

// IsHasIncidentEdges checks if an error is an incident edge integrity error
func IsHasIncidentEdges(err error) bool { return IsType(err, ErrorTypeHasIncidentEdges) }

// IsTransient checks if an error is safe to retry
func IsTransient(err error) bool { return IsType(err, ErrorTypeTransient) }

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool { return IsType(err, ErrorTypeInternal) }

// DeletionIncompleteError reports the entities a cascade could not remove after
// exhausting its retries. Progress already made is kept; the caller can re-run
// the cascade and it will resume.
type DeletionIncompleteError struct {
	FailedNodes        []string
	FailedAssociations []string
	Causes             []error
}

// Error implements the error interface
func (e *DeletionIncompleteError) Error() string {
	var b strings.Builder
	b.WriteString("deletion incomplete")
	if len(e.FailedNodes) > 0 {
		fmt.Fprintf(&b, ": nodes [%s]", strings.Join(e.FailedNodes, ", "))
	}
	if len(e.FailedAssociations) > 0 {
		fmt.Fprintf(&b, ": associations [%s]", strings.Join(e.FailedAssociations, ", "))
	}
	return b.String()
}

// Unwrap exposes the underlying causes to errors.Is / errors.As
func (e *DeletionIncompleteError) Unwrap() []error {
	return e.Causes
}

// IsDeletionIncomplete checks if an error reports a partially failed cascade
func IsDeletionIncomplete(err error) bool {
	var di *DeletionIncompleteError
	return errors.As(err, &di)
}
