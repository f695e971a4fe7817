// Package errors provides standardized error handling for the loan assistant.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes. Sentinel errors
// elsewhere in the service reuse these code strings as their message.
type ErrorCode string

const (
	ErrCodeDirectoryUnavailable   ErrorCode = "DIRECTORY_UNAVAILABLE"
	ErrCodeQueryExecutionFailed   ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeSeedValidationFailed   ErrorCode = "SEED_VALIDATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewDirectoryUnavailableError creates a retryable directory infrastructure error.
func NewDirectoryUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectoryUnavailable,
		Message:   "Applicant directory unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSeedValidationFailedError creates a non-retryable seed file error.
func NewSeedValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSeedValidationFailed,
		Message:   "Directory seed file failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
