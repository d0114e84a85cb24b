// Package apperror provides structured error handling for the JSON:API layer.
// All client-facing errors must use AppError for consistent error objects.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Query parameter errors (400)
	CodeMalformedFilter       = "MALFORMED_FILTER"
	CodeReservedIdentifier    = "RESERVED_FILTER_ID"
	CodeCyclicGroupReference  = "CYCLIC_GROUP_REFERENCE"
	CodeMalformedSort         = "MALFORMED_SORT"
	CodeMalformedPage         = "MALFORMED_PAGE"
	CodeMalformedInclude      = "MALFORMED_INCLUDE"
	CodeMalformedFields       = "MALFORMED_FIELDS"
	CodeUnresolvableFieldPath = "UNRESOLVABLE_FIELD"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Unavailable (503)
	CodeUnavailable = "SERVICE_UNAVAILABLE"
)

// Query parameter names reported in error details.
const (
	ParamFilter  = "filter"
	ParamSort    = "sort"
	ParamPage    = "page"
	ParamInclude = "include"
	ParamFields  = "fields"
)

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (offending parameter, path, operator)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// Parameter returns the query parameter the error refers to, if any.
func (e *AppError) Parameter() string {
	if p, ok := e.Details["parameter"].(string); ok {
		return p
	}
	return ""
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnavailable creates a service unavailable error (503)
func NewUnavailable(message string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func newParamError(code, param, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"parameter": param},
	}
}

// NewMalformedFilter creates an invalid filter parameter error (400)
func NewMalformedFilter(format string, args ...any) *AppError {
	return newParamError(CodeMalformedFilter, ParamFilter, fmt.Sprintf(format, args...))
}

// NewReservedIdentifier is returned when a client reuses the reserved root group id.
func NewReservedIdentifier(id string) *AppError {
	return newParamError(CodeReservedIdentifier, ParamFilter,
		fmt.Sprintf("'%s' is a reserved filter id", id)).
		WithDetail("id", id)
}

// NewCyclicGroupReference is returned when memberOf references form a loop.
func NewCyclicGroupReference(chain []string) *AppError {
	return newParamError(CodeCyclicGroupReference, ParamFilter,
		fmt.Sprintf("filter groups reference each other in a cycle: %v", chain)).
		WithDetail("cycle", chain)
}

// NewMalformedSort creates an invalid sort parameter error (400)
func NewMalformedSort(format string, args ...any) *AppError {
	return newParamError(CodeMalformedSort, ParamSort, fmt.Sprintf(format, args...))
}

// NewMalformedPage creates an invalid page parameter error (400)
func NewMalformedPage(format string, args ...any) *AppError {
	return newParamError(CodeMalformedPage, ParamPage, fmt.Sprintf(format, args...))
}

// NewMalformedInclude creates an invalid include parameter error (400)
func NewMalformedInclude(format string, args ...any) *AppError {
	return newParamError(CodeMalformedInclude, ParamInclude, fmt.Sprintf(format, args...))
}

// NewMalformedFields creates an invalid sparse fieldset error (400)
func NewMalformedFields(format string, args ...any) *AppError {
	return newParamError(CodeMalformedFields, ParamFields, fmt.Sprintf(format, args...))
}

// NewUnresolvableField is returned by the field path resolver when a public
// path cannot be mapped to an internal one.
func NewUnresolvableField(path, reason string) *AppError {
	return &AppError{
		Code:       CodeUnresolvableFieldPath,
		Message:    fmt.Sprintf("invalid field path '%s': %s", path, reason),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"path": path},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode checks if error chain contains an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsMalformedFilter checks if error is CodeMalformedFilter
func IsMalformedFilter(err error) bool {
	return HasCode(err, CodeMalformedFilter)
}

// IsReservedIdentifier checks if error is CodeReservedIdentifier
func IsReservedIdentifier(err error) bool {
	return HasCode(err, CodeReservedIdentifier)
}

// IsCyclicGroupReference checks if error is CodeCyclicGroupReference
func IsCyclicGroupReference(err error) bool {
	return HasCode(err, CodeCyclicGroupReference)
}

// IsMalformedSort checks if error is CodeMalformedSort
func IsMalformedSort(err error) bool {
	return HasCode(err, CodeMalformedSort)
}

// IsMalformedPage checks if error is CodeMalformedPage
func IsMalformedPage(err error) bool {
	return HasCode(err, CodeMalformedPage)
}

// IsUnresolvableField checks if error is CodeUnresolvableFieldPath
func IsUnresolvableField(err error) bool {
	return HasCode(err, CodeUnresolvableFieldPath)
}

// IsMalformedInclude checks if error is CodeMalformedInclude
func IsMalformedInclude(err error) bool {
	return HasCode(err, CodeMalformedInclude)
}

// IsMalformedFields checks if error is CodeMalformedFields
func IsMalformedFields(err error) bool {
	return HasCode(err, CodeMalformedFields)
}
