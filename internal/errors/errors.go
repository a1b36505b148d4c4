package errors

import (
	"errors"
	"fmt"
)

// RankError is the structured error type for equiprank.
// It provides context for error handling, logging, and fallback decisions.
type RankError struct {
	// Code is the unique error code (e.g., "ERR_202_CORPUS_INVALID").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *RankError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *RankError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *RankError) Is(target error) bool {
	if t, ok := target.(*RankError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new RankError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *RankError {
	return &RankError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a RankError from an existing error.
// Returns nil if err is nil.
func Wrap(code string, err error) *RankError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// CorpusError creates a fatal corpus-load error.
func CorpusError(message string, cause error) *RankError {
	return New(ErrCodeCorpusInvalid, message, cause)
}

// ProviderConstructionError creates a fatal provider-misconfiguration error.
func ProviderConstructionError(message string, cause error) *RankError {
	return New(ErrCodeProviderMisconfig, message, cause)
}

// ProviderCallError creates a transient provider-call error.
func ProviderCallError(message string, cause error) *RankError {
	return New(ErrCodeProviderUnavailable, message, cause)
}

// SnapshotError creates a snapshot corruption error.
func SnapshotError(message string, cause error) *RankError {
	return New(ErrCodeSnapshotCorrupt, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var re *RankError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// IsFatal checks if an error carries fatal severity.
func IsFatal(err error) bool {
	var re *RankError
	if errors.As(err, &re) {
		return re.Severity == SeverityFatal
	}
	return false
}

// CodeOf returns the error code, or empty string for non-RankError values.
func CodeOf(err error) string {
	var re *RankError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
