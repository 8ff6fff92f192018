package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Packaging Errors
// ============================================================================

var (
	ErrCapability      = errors.New("board cannot persist this artifact format")
	ErrPinNotFound     = errors.New("pin not found")
	ErrVersionNotFound = errors.New("pin version not found")
	ErrMigration       = errors.New("legacy metadata cannot be interpreted")
	ErrInvalidPinName  = errors.New("pin name is required")
)

// ============================================================================
// Serving Errors
// ============================================================================

var (
	ErrEndpointExists   = errors.New("endpoint with this name is already registered")
	ErrInvalidEndpoint  = errors.New("endpoint name is required")
	ErrAlreadyServing   = errors.New("cannot register endpoints once the server is accepting connections")
	ErrEmptyBatch       = errors.New("prediction request contains no instances")
	ErrMalformedRequest = errors.New("request body is not a valid instance or list of instances")
)

// SchemaViolation reports a single request field that failed prototype
// validation, naming the offending field and the constraint it broke.
type SchemaViolation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Got        any    `json:"got,omitempty"`
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("field %q violates prototype: expected %s, got %v", e.Field, e.Constraint, e.Got)
}
