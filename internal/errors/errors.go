package errors

import (
	"fmt"
	"net/http"
)

// Codes carried by request-level errors
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// APIError is a failure of the request itself (bad query value, unknown
// route) rather than of the dropout pipeline. ErrorHandler renders it as
// a problem document with StatusCode.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets a field rejection match ErrValidationFailed like a domain
// validation AppError does
func (e *APIError) Is(target error) bool {
	return e.ErrorCode == CodeValidationFailed && target == error(ErrValidationFailed)
}

// ValidationError names one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrValidation rejects a single request field
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors rejects one or more request fields
func NewValidationErrors(fields []ValidationError) *APIError {
	msg := "request validation failed"
	if len(fields) == 1 {
		msg = fmt.Sprintf("%s: %s", fields[0].Field, fields[0].Message)
	}
	return &APIError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  CodeValidationFailed,
		Message:    msg,
		Details:    fields,
	}
}

// NotFoundError reports an unknown route or resource
func NotFoundError(resource string) *APIError {
	return &APIError{
		StatusCode: http.StatusNotFound,
		ErrorCode:  CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
	}
}

// MethodNotAllowedError reports a known route hit with the wrong method
func MethodNotAllowedError(method, path string) *APIError {
	return &APIError{
		StatusCode: http.StatusMethodNotAllowed,
		ErrorCode:  CodeMethodNotAllowed,
		Message:    fmt.Sprintf("method %s not allowed on %s", method, path),
	}
}
