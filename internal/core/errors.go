// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Dataset errors
	ErrMissingColumn   = &Error{Code: "MISSING_COLUMN", Message: "required column missing"}
	ErrMalformedData   = &Error{Code: "MALFORMED_DATA", Message: "malformed input data"}
	ErrNoUsableRows    = &Error{Code: "NO_USABLE_ROWS", Message: "no rows with a usable forecast"}
	ErrDatasetNotFound = &Error{Code: "DATASET_NOT_FOUND", Message: "dataset not found"}

	// Backtest errors
	ErrInvalidParams = &Error{Code: "INVALID_PARAMS", Message: "invalid backtest parameters"}

	// Job errors
	ErrJobNotFound = &Error{Code: "JOB_NOT_FOUND", Message: "job not found"}

	// Storage errors
	ErrStorageFailed = &Error{Code: "STORAGE_FAILED", Message: "storage operation failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)

// validationErrors are rejected inputs rather than internal failures.
var validationErrors = []*Error{
	ErrMissingColumn,
	ErrNoUsableRows,
	ErrInvalidParams,
	ErrConfigInvalid,
	ErrConfigMissing,
}

// IsValidation reports whether err was caused by invalid user input. The
// API layer maps these to 400 responses, everything else to 500.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is a missing-resource lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDatasetNotFound) || errors.Is(err, ErrJobNotFound)
}
