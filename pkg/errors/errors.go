package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrConfiguration indicates missing or invalid startup configuration
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Gateway-specific errors
//
// These classify a single inference call. They are recoverable: the
// orchestrator absorbs them via retry and fallback, they never reach the user.

var (
	// ErrGatewayNetwork indicates the inference service could not be reached
	// (connection failure or timeout)
	ErrGatewayNetwork = errors.New("inference gateway network error")

	// ErrGatewayService indicates the inference service returned a
	// non-success status
	ErrGatewayService = errors.New("inference gateway service error")

	// ErrGatewayEmpty indicates the inference service returned no content
	ErrGatewayEmpty = errors.New("inference gateway empty response")

	// ErrRateLimitExceeded indicates the local request rate limit was hit
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Generation-specific errors

var (
	// ErrFallbackInvalid indicates the deterministic fallback generator
	// produced a document that fails its own constraint. This must not occur
	// under a correct implementation; it aborts the stage.
	ErrFallbackInvalid = errors.New("fallback document violates constraint")

	// ErrStageAborted indicates a pipeline stage was cancelled before a
	// result was produced
	ErrStageAborted = errors.New("stage aborted")
)

// DomainError wraps an error with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
