// Package errors provides typed errors for the quotereel pipeline.
// Every user-visible failure carries a machine-readable code that maps
// onto an HTTP status, plus optional context fields.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes a pipeline failure.
type Code string

const (
	CodeInternal            Code = "INTERNAL_ERROR"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeAssetNotFound       Code = "ASSET_NOT_FOUND"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeTransferFailed      Code = "TRANSFER_FAILED"
	CodeRenderTimeout       Code = "RENDER_TIMEOUT"
	CodeRenderFailed        Code = "RENDER_FAILED"
	CodeStorageFailure      Code = "STORAGE_FAILURE"
	CodeNotFound            Code = "NOT_FOUND"
)

// Error is the error type used across the pipeline.
type Error struct {
	// Code is the machine-readable failure kind.
	Code Code
	// Message is the human-readable description.
	Message string
	// Op names the operation that failed (e.g. "render.encode").
	Op string
	// Err is the wrapped cause, if any.
	Err error
	// Fields carries extra context (field names, identifiers).
	Fields map[string]any
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString("[")
	b.WriteString(string(e.Code))
	b.WriteString("] ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so errors.Is works against sentinel-style targets.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithField attaches a context field and returns the error.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// HTTPStatus maps the code onto the status the handler should write.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidInput:
		return 400
	case CodeAssetNotFound, CodeNotFound:
		return 404
	case CodeRateLimited:
		return 429
	case CodeUpstreamUnavailable:
		return 502
	default:
		return 500
	}
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps a cause, preserving its code when it is already an *Error.
func Wrap(err error, op string, message string) *Error {
	if err == nil {
		return nil
	}
	code := CodeInternal
	var e *Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return &Error{Code: code, Message: message, Op: op, Err: err}
}

// WrapWithCode wraps a cause under an explicit code.
func WrapWithCode(err error, code Code, op string, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Op: op, Err: err}
}

// InvalidInput creates a validation error for a specific field.
func InvalidInput(field string, message string) *Error {
	return New(CodeInvalidInput, message).WithField("field", field)
}

// AssetNotFound signals the image provider does not know the identifier.
func AssetNotFound(assetID string) *Error {
	return Newf(CodeAssetNotFound, "background asset not found: %s", assetID).
		WithField("asset_id", assetID)
}

// UpstreamUnavailable signals the image provider failed or is unreachable.
func UpstreamUnavailable(service string, err error) *Error {
	return WrapWithCode(err, CodeUpstreamUnavailable, "fetch",
		fmt.Sprintf("upstream unavailable: %s", service))
}

// RenderTimeout signals the encoder was killed after the wall-clock limit.
func RenderTimeout(timeoutSecs float64) *Error {
	return Newf(CodeRenderTimeout, "encode exceeded %.0fs timeout", timeoutSecs)
}

// RenderFailed signals a non-zero encoder exit, carrying the stderr tail.
func RenderFailed(exitCode int, stderrTail string) *Error {
	return New(CodeRenderFailed, "encoder exited non-zero").
		WithField("exit_code", exitCode).
		WithField("stderr_tail", stderrTail)
}

// GetCode extracts the code, defaulting to CodeInternal.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// GetHTTPStatus extracts the HTTP status for an arbitrary error.
func GetHTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return 500
}

// IsCode checks whether err carries the given code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// As is a convenience wrapper for errors.As.
func As(err error, target any) bool { return errors.As(err, target) }

// Is is a convenience wrapper for errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }
