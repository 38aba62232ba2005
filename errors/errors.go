package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Input errors, reported before any file I/O
	ErrorTypeInvalidFormat ErrorType = "invalid_format"

	// Per-item errors, the batch continues
	ErrorTypeDecode             ErrorType = "decode"
	ErrorTypeUnsupportedFormat  ErrorType = "unsupported_format"
	ErrorTypeUnsupportedQuality ErrorType = "unsupported_quality"
	ErrorTypeEncode             ErrorType = "encode"
	ErrorTypeMirror             ErrorType = "mirror"

	// Infrastructure errors, the batch aborts
	ErrorTypeOutputUnavailable ErrorType = "output_unavailable"
	ErrorTypeDiscovery         ErrorType = "discovery"

	ErrorTypeUnknown ErrorType = "unknown"
)

// Sentinels for errors.Is matching by type.
var (
	ErrInvalidFormat      = &AppError{Type: ErrorTypeInvalidFormat}
	ErrDecode             = &AppError{Type: ErrorTypeDecode}
	ErrUnsupportedFormat  = &AppError{Type: ErrorTypeUnsupportedFormat}
	ErrUnsupportedQuality = &AppError{Type: ErrorTypeUnsupportedQuality}
	ErrEncode             = &AppError{Type: ErrorTypeEncode}
	ErrMirror             = &AppError{Type: ErrorTypeMirror}
	ErrOutputUnavailable  = &AppError{Type: ErrorTypeOutputUnavailable}
	ErrDiscovery          = &AppError{Type: ErrorTypeDiscovery}
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	InnerError error          `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	switch {
	case e.Message != "" && e.InnerError != nil:
		return e.Message + ": " + e.InnerError.Error()
	case e.Message != "":
		return e.Message
	case e.InnerError != nil:
		return e.InnerError.Error()
	}
	return string(e.Type)
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// Is reports whether target is an AppError of the same type.
func (e *AppError) Is(target error) bool {
	if targetApp, ok := target.(*AppError); ok {
		return e.Type == targetApp.Type
	}
	return false
}

// WithMessage adds a message to the error
func (e *AppError) WithMessage(msg string) *AppError {
	e.Message = msg
	return e
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    string(errType),
	}
}

// FromError converts a standard error to AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return &AppError{
		Type:       ErrorTypeUnknown,
		Code:       string(ErrorTypeUnknown),
		Message:    err.Error(),
		InnerError: err,
	}
}

// WrapWithType wraps an error with a specific type
func WrapWithType(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		InnerError: err,
		Code:       string(errType),
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	return FromError(err).Type
}

func NewInvalidFormat(field string, value any, reason string) *AppError {
	return New(ErrorTypeInvalidFormat, fmt.Sprintf("invalid %s %q: %s", field, fmt.Sprint(value), reason)).
		WithDetail("field", field).
		WithDetail("value", value)
}

func NewDecode(file string, err error) *AppError {
	return WrapWithType(err, ErrorTypeDecode, "decode failed").WithDetail("file", file)
}

func NewUnsupportedFormat(format string) *AppError {
	return New(ErrorTypeUnsupportedFormat, fmt.Sprintf("no encoder registered for format %q", format)).
		WithDetail("format", format)
}

func NewUnsupportedQuality(quality, format string) *AppError {
	return New(ErrorTypeUnsupportedQuality, fmt.Sprintf("quality %q has no mapping for %s", quality, format)).
		WithDetail("quality", quality).
		WithDetail("format", format)
}

func NewEncode(file string, err error) *AppError {
	return WrapWithType(err, ErrorTypeEncode, "encode failed").WithDetail("file", file)
}

func NewMirror(key string, err error) *AppError {
	return WrapWithType(err, ErrorTypeMirror, "mirror upload failed").WithDetail("key", key)
}

func NewOutputUnavailable(path string, err error) *AppError {
	return WrapWithType(err, ErrorTypeOutputUnavailable, fmt.Sprintf("output directory %s unavailable", path)).
		WithDetail("path", path)
}

func NewDiscovery(path string, err error) *AppError {
	return WrapWithType(err, ErrorTypeDiscovery, fmt.Sprintf("cannot enumerate %s", path)).
		WithDetail("path", path)
}

// Format renders an error on one line as "[type] message | k=v ...".
// Details are sorted so the output is stable across runs.
func Format(err error) string {
	if err == nil {
		return ""
	}

	appErr := FromError(err)
	parts := []string{fmt.Sprintf("[%s] %s", appErr.Type, appErr.Error())}

	keys := make([]string, 0, len(appErr.Details))
	for k := range appErr.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, appErr.Details[k]))
	}

	return strings.Join(parts, " | ")
}
