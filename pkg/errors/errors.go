// Package errors provides common domain error types for the teamsartifacts
// ingestion pipeline.
//
// This package defines sentinel errors for common domain conditions like
// "not found" or "malformed input" that can be used across all packages.
// Using typed errors enables consistent error handling patterns with
// errors.Is() checks.
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrMalformedInput indicates a source file is not valid JSON or has an
	// unexpected top-level shape. It aborts the owning phase only.
	ErrMalformedInput = errors.New("malformed input")

	// ErrValidation indicates invalid configuration or arguments.
	ErrValidation = errors.New("validation error")

	// ErrPhaseOrder indicates a phase was started before its prerequisite
	// phase completed.
	ErrPhaseOrder = errors.New("phase order violation")
)

// IsMalformedInput reports whether any error in err's chain is ErrMalformedInput.
func IsMalformedInput(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsPhaseOrder reports whether any error in err's chain is ErrPhaseOrder.
func IsPhaseOrder(err error) bool {
	return errors.Is(err, ErrPhaseOrder)
}
