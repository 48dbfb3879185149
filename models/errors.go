package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidURL    = "INVALID_URL"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeFetchFailed   = "FETCH_FAILED"
	ErrCodeBrowserFailed = "BROWSER_FAILED"
	ErrCodeTimeout       = "TIMEOUT"
	ErrCodeParseFailed   = "PARSE_FAILED"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetadataError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type MetadataError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *MetadataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// NewMetadataError creates a new MetadataError.
func NewMetadataError(code, message string, err error) *MetadataError {
	return &MetadataError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *MetadataError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// HasCode reports whether err (or anything it wraps) is a MetadataError
// with the given code.
func HasCode(err error, code string) bool {
	var me *MetadataError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}
