package errors

import (
	"errors"
	"fmt"
	"time"
)

/**
 * Structured error types for the OCR verification worker.
 *
 * Per-engine and per-field failures are absorbed into result data and
 * never travel as errors; the codes here cover the remaining paths
 * (configuration impossibility, storage, queue handling).
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Configuration errors (fatal)
	ErrorNoEnginesConfigured ErrorCode = "NO_ENGINES_CONFIGURED"
	ErrorInvalidConfig       ErrorCode = "INVALID_CONFIG"

	// Processing errors
	ErrorProcessingTimeout ErrorCode = "PROCESSING_TIMEOUT"
	ErrorEngineFailed      ErrorCode = "ENGINE_FAILED"
	ErrorEmptyDocument     ErrorCode = "EMPTY_DOCUMENT"

	// Storage errors
	ErrorStorageFailed  ErrorCode = "STORAGE_FAILED"
	ErrorDatabaseFailed ErrorCode = "DATABASE_FAILED"
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

// IsConfigurationError reports whether err is one of the fatal
// configuration codes that must stop the caller before any engine runs.
func IsConfigurationError(err error) bool {
	var pe *ProcessingError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Code == ErrorNoEnginesConfigured || pe.Code == ErrorInvalidConfig
}

// Factory functions for common errors

func NewNoEnginesConfiguredError() *ProcessingError {
	return &ProcessingError{
		Code:      ErrorNoEnginesConfigured,
		Message:   "no recognition engines configured, nothing to orchestrate",
		Timestamp: time.Now(),
	}
}

func NewInvalidConfigError(field string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorInvalidConfig,
		Message:   fmt.Sprintf("invalid configuration: %s", field),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"field": field,
		},
		Cause: cause,
	}
}

func NewProcessingTimeoutError(jobID string, duration time.Duration, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorProcessingTimeout,
		Message:   fmt.Sprintf("processing timed out after %v", duration),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout_duration": duration.String(),
		},
		Cause: cause,
	}
}

func NewEngineFailedError(jobID string, engineID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorEngineFailed,
		Message:   fmt.Sprintf("recognition engine failed: %s", engineID),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"engine_id": engineID,
		},
		Cause: cause,
	}
}

func NewStorageFailedError(jobID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorStorageFailed,
		Message:   "failed to store processing results",
		JobID:     jobID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// ToMap converts error to map for database storage
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
