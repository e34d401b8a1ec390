// Package apperror provides the structured error type shared by the request
// pipeline, the stores and the mock backend.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Transport failures
	CodeNetwork      = "NETWORK_ERROR"
	CodeHTTP         = "HTTP_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"

	// Non-zero envelope code on an otherwise successful response
	CodeApplication = "APPLICATION_ERROR"

	// Client-side preconditions and payload problems
	CodeNoCredentials = "NO_CREDENTIALS"
	CodeDecode        = "DECODE_ERROR"
	CodeValidation    = "VALIDATION_ERROR"

	// Backend-side codes (mock backend)
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInternal          = "INTERNAL_ERROR"
)

// Default messages shown to the user when nothing better is known.
const (
	DefaultNetworkMessage = "network error"
	DefaultRequestMessage = "request failed"
)

// AppError is the standard error type of the client.
// Error() yields Message alone so it can be shown to the user verbatim.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (status, server detail, ids)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the response status, 0 when no response was received
	HTTPStatus int `json:"-"`

	// Err is the underlying error
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	return e.Message
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

// --- Factory functions ---

// NewNetwork creates an error for a call that produced no response.
func NewNetwork(err error) *AppError {
	msg := DefaultNetworkMessage
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &AppError{
		Code:    CodeNetwork,
		Message: msg,
		Err:     err,
	}
}

// NewHTTPStatus creates an error for a non-2xx response.
func NewHTTPStatus(status int) *AppError {
	code := CodeHTTP
	if status == http.StatusUnauthorized {
		code = CodeUnauthorized
	}
	return &AppError{
		Code:       code,
		Message:    fmt.Sprintf("request failed with status code %d", status),
		HTTPStatus: status,
	}
}

// NewApplication creates an error for a non-zero envelope code.
func NewApplication(message string, status int) *AppError {
	if message == "" {
		message = DefaultRequestMessage
	}
	return &AppError{
		Code:       CodeApplication,
		Message:    message,
		HTTPStatus: status,
	}
}

// NewNoCredentials is returned when identity is refreshed without a stored token.
func NewNoCredentials() *AppError {
	return &AppError{
		Code:    CodeNoCredentials,
		Message: "no access token found",
	}
}

// NewDecode creates an error for a payload that cannot be interpreted.
func NewDecode(what string, err error) *AppError {
	return &AppError{
		Code:    CodeDecode,
		Message: fmt.Sprintf("malformed %s", what),
		Err:     err,
	}
}

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

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewInsufficientStock creates a stock shortage error
func NewInsufficientStock(partID any, requested, available int) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "out of stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"spare_part": partID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewInternal creates an internal error (hides details from the caller)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the response status carried by err, or 0.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return 0
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsUnauthorized checks if error is CodeUnauthorized
func IsUnauthorized(err error) bool {
	return HasCode(err, CodeUnauthorized)
}

// IsNoCredentials checks if error is CodeNoCredentials
func IsNoCredentials(err error) bool {
	return HasCode(err, CodeNoCredentials)
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
