package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

/**
 * Error taxonomy for the land-record OCR pipeline
 *
 * Rasterization and recognition surface hard failures with these types.
 * Normalization and field extraction never fail, and an unmatched
 * classification or an empty document is not an error at all.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Input errors
	ErrorIO     ErrorCode = "IO_ERROR"
	ErrorFormat ErrorCode = "FORMAT_ERROR"

	// Processing errors
	ErrorRecognition       ErrorCode = "RECOGNITION_ERROR"
	ErrorProcessingTimeout ErrorCode = "PROCESSING_TIMEOUT"
	ErrorInvalidMode       ErrorCode = "INVALID_MODE"
	ErrorInternal          ErrorCode = "INTERNAL_ERROR"

	// Storage errors
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"
)

// ProcessingError represents a structured processing error
type ProcessingError struct {
	Code      ErrorCode
	Message   string
	JobID     string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Is matches another ProcessingError by code, so sentinel comparisons work
// with errors.Is(err, &ProcessingError{Code: ErrorIO}).
func (e *ProcessingError) Is(target error) bool {
	t, ok := target.(*ProcessingError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first ProcessingError in err's chain, or ""
func CodeOf(err error) ErrorCode {
	var pe *ProcessingError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// Factory functions for common errors

func NewIOError(path string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorIO,
		Message:   fmt.Sprintf("cannot read input file %s", path),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path": path,
		},
		Cause: cause,
	}
}

func NewFormatError(path string, reason string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorFormat,
		Message:   fmt.Sprintf("unsupported or corrupt input %s: %s", path, reason),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path":   path,
			"reason": reason,
		},
		Cause: cause,
	}
}

func NewRecognitionError(engine string, page int, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorRecognition,
		Message:   fmt.Sprintf("recognition failed on page %d (engine: %s)", page, engine),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"engine": engine,
			"page":   page,
		},
		Cause: cause,
	}
}

func NewProcessingTimeoutError(jobID string, duration time.Duration, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorProcessingTimeout,
		Message:   fmt.Sprintf("Processing timed out after %v", duration),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout_duration": duration.String(),
		},
		Cause: cause,
	}
}

func NewInvalidModeError(mode string, reason string) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorInvalidMode,
		Message:   fmt.Sprintf("mode %q rejected: %s", mode, reason),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"mode": mode,
		},
	}
}

func NewInternalError(jobID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorInternal,
		Message:   "internal pipeline failure",
		JobID:     jobID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewStorageFailedError(jobID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorStorageFailed,
		Message:   "Failed to store extraction results",
		JobID:     jobID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// ToMap converts error to map for result payloads and database storage
func (e *ProcessingError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
