package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the module.
type ErrorCode string

// Transport and discovery error codes
const (
	ErrPluginUnreachable ErrorCode = "PLUGIN_UNREACHABLE"
	ErrPluginTimeout     ErrorCode = "PLUGIN_TIMEOUT"
	ErrPluginHTTPError   ErrorCode = "PLUGIN_HTTP_ERROR"
	ErrDiscoveryFailed   ErrorCode = "DISCOVERY_FAILED"
)

// Routing and invocation error codes
const (
	ErrToolNotFound       ErrorCode = "TOOL_NOT_FOUND"
	ErrPluginNotAvailable ErrorCode = "PLUGIN_NOT_AVAILABLE"
	ErrToolValidation     ErrorCode = "TOOL_VALIDATION"
	ErrCircuitOpen        ErrorCode = "CIRCUIT_OPEN"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Plugin     string    `json:"plugin,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code of the failing response.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithPlugin sets the plugin name.
func (e *Error) WithPlugin(plugin string) *Error {
	e.Plugin = plugin
	return e
}

// GetErrorCode extracts the error code from an error, unwrapping as
// needed. It returns "" when no *Error is in the chain.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
