package provenance

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Domain errors
	ErrInvalidInput        = errors.New("provenance: invalid input")
	ErrUnauthorized        = errors.New("provenance: unauthorized")
	ErrNotFound            = errors.New("provenance: not found")
	ErrInsufficientPayment = errors.New("provenance: insufficient payment")
	ErrCapacityExceeded    = errors.New("provenance: stock capacity exceeded")
	ErrInsufficientStock   = errors.New("provenance: insufficient stock")
	ErrAlreadyEnrolled     = errors.New("provenance: producer already enrolled")
	ErrUnavailable         = errors.New("provenance: product is not available")

	// Store errors
	ErrAlreadyExists = errors.New("provenance: already exists")

	// Engine errors
	ErrEngineNotStarted = errors.New("provenance: engine not started")
	ErrEngineStopped    = errors.New("provenance: engine stopped")
)

// ValidationError represents a validation failure with details.
// It matches ErrInvalidInput under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("provenance: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "provenance: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("provenance: %d errors occurred: %v", len(e.Errors), errors.Join(e.Errors...))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorOrNil returns e when it holds errors and nil otherwise.
func (e MultiError) ErrorOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuthorizationError returns true if the caller lacked the right to act.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsPaymentError returns true if the payment channel could not collect.
func IsPaymentError(err error) bool {
	return errors.Is(err, ErrInsufficientPayment)
}

// IsStockError returns true if the error is related to stock levels.
func IsStockError(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrUnavailable)
}
