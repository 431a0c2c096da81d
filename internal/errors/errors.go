// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies application errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeError      ErrorType = "processing_error"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeTimeout    ErrorType = "timeout"

	// Engine-specific types. ParseDegraded is informational: the segmenter
	// and extractor return empty results instead of failing, and callers
	// treat the empty view as valid. ResolutionAmbiguous marks a character
	// match decided by the conflict heuristic. GenerationFailed is the only
	// user-visible retryable failure. InvalidOperation rejects a state
	// mutation synchronously with no partial effect.
	ErrorTypeParseDegraded       ErrorType = "parse_degraded"
	ErrorTypeResolutionAmbiguous ErrorType = "resolution_ambiguous"
	ErrorTypeGenerationFailed    ErrorType = "generation_failed"
	ErrorTypeInvalidOperation    ErrorType = "invalid_operation"
)

// AppError carries a classified error with a user-facing code.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a classified error.
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewProcessingError creates a generic processing error.
func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

// NewConflictError creates a conflict error.
func NewConflictError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConflict, message, originalError)
}

// NewGenerationFailedError wraps a generation collaborator failure.
func NewGenerationFailedError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeGenerationFailed, message, originalError)
}

// NewInvalidOperationError rejects an asset-store mutation.
func NewInvalidOperationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeInvalidOperation, message, originalError)
}

func isType(err error, t ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == t
	}
	return false
}

// IsValidationError checks for a validation error.
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsNotFoundError checks for a not-found error.
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsConflictError checks for a conflict error.
func IsConflictError(err error) bool { return isType(err, ErrorTypeConflict) }

// IsGenerationFailedError checks for a generation collaborator failure.
func IsGenerationFailedError(err error) bool { return isType(err, ErrorTypeGenerationFailed) }

// IsInvalidOperationError checks for a rejected state mutation.
func IsInvalidOperationError(err error) bool { return isType(err, ErrorTypeInvalidOperation) }

func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	case ErrorTypeConflict:
		return "CONFLICT"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeParseDegraded:
		return "PARSE_DEGRADED"
	case ErrorTypeResolutionAmbiguous:
		return "RESOLUTION_AMBIGUOUS"
	case ErrorTypeGenerationFailed:
		return "GENERATION_FAILED"
	case ErrorTypeInvalidOperation:
		return "INVALID_OPERATION"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError wraps an existing error, preserving an existing classification.
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
