package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType categorizes application errors by failure policy.
type ErrorType string

const (
	// ErrorTypeValidation marks malformed input rejected before any
	// external call. Recoverable by the user.
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeContract marks an upstream model response that does not
	// conform to the declared output schema (bad enum value, out-of-range
	// probability, non-image annotation output, missing required field).
	ErrorTypeContract ErrorType = "contract_violation"

	// ErrorTypeUpstream marks a failed external model call (network,
	// quota, model unavailable).
	ErrorTypeUpstream ErrorType = "upstream"

	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError is a structured application error.
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error.
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewContractError creates a contract violation error.
func NewContractError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeContract,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewUpstreamError creates an upstream call failure error.
func NewUpstreamError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUpstream,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewUnauthorizedError creates an unauthorized error.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks whether err is an AppError of the given type, unwrapping
// as needed.
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
