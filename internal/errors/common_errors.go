package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeDataSource           ErrorType = "DATA_SOURCE"
	ErrTypeSchema               ErrorType = "SCHEMA"
	ErrTypeEmptyDataset         ErrorType = "EMPTY_DATASET"
	ErrTypeInvalidClusterCount  ErrorType = "INVALID_CLUSTER_COUNT"
	ErrTypeDegenerateClustering ErrorType = "DEGENERATE_CLUSTERING"
	ErrTypeValidation           ErrorType = "VALIDATION"
	ErrTypeConfig               ErrorType = "CONFIG"
)

// Sentinels for errors.Is matching. Any AppError of the same Type matches.
var (
	ErrDataSource           = &AppError{Type: ErrTypeDataSource, Message: "data source error"}
	ErrSchema               = &AppError{Type: ErrTypeSchema, Message: "schema error"}
	ErrEmptyDataset         = &AppError{Type: ErrTypeEmptyDataset, Message: "empty dataset"}
	ErrInvalidClusterCount  = &AppError{Type: ErrTypeInvalidClusterCount, Message: "invalid cluster count"}
	ErrDegenerateClustering = &AppError{Type: ErrTypeDegenerateClustering, Message: "degenerate clustering"}
	ErrValidationFailed     = &AppError{Type: ErrTypeValidation, Message: "validation failed"}
	ErrConfig               = &AppError{Type: ErrTypeConfig, Message: "configuration error"}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewDataSourceError creates an error for a missing or unreadable input source
func NewDataSourceError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDataSource, message, cause)
}

// NewSchemaError creates an error for absent columns or malformed cells
func NewSchemaError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSchema, message, cause)
}

// NewEmptyDatasetError creates an error for a dataset without samples
func NewEmptyDatasetError(message string) *AppError {
	return NewAppError(ErrTypeEmptyDataset, message, nil)
}

// NewInvalidClusterCountError creates an error for an out-of-range k
func NewInvalidClusterCountError(k, min, max int) *AppError {
	return NewAppError(ErrTypeInvalidClusterCount,
		fmt.Sprintf("cluster count %d outside valid range [%d, %d]", k, min, max), nil).
		WithContext("k", k).
		WithContext("min", min).
		WithContext("max", max)
}

// NewDegenerateClusteringError creates an error for an assignment a score is undefined on
func NewDegenerateClusteringError(message string) *AppError {
	return NewAppError(ErrTypeDegenerateClustering, message, nil)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}
