package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeInvalidInput, "bad request")

	if err.Code != CodeInvalidInput {
		t.Errorf("expected code=%s, got %s", CodeInvalidInput, err.Code)
	}
	if err.Message != "bad request" {
		t.Errorf("expected message='bad request', got %s", err.Message)
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "simple error",
			err:      New(CodeInvalidInput, "text is required"),
			contains: []string{"INVALID_INPUT", "text is required"},
		},
		{
			name: "error with op",
			err: &Error{
				Code:    CodeRenderFailed,
				Message: "encoder exited non-zero",
				Op:      "render.encode",
			},
			contains: []string{"render.encode", "RENDER_FAILED", "encoder exited non-zero"},
		},
		{
			name: "error with underlying",
			err: &Error{
				Code:    CodeStorageFailure,
				Message: "upload failed",
				Err:     fmt.Errorf("connection reset"),
			},
			contains: []string{"upload failed", "connection reset"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			str := tt.err.Error()
			for _, c := range tt.contains {
				if !strings.Contains(str, c) {
					t.Errorf("expected error string to contain %q, got: %s", c, str)
				}
			}
		})
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := AssetNotFound("abc123")
	wrapped := Wrap(inner, "pipeline.fetch", "background fetch failed")

	if wrapped.Code != CodeAssetNotFound {
		t.Errorf("expected wrapped code=%s, got %s", CodeAssetNotFound, wrapped.Code)
	}
	if !Is(wrapped, inner) {
		t.Error("expected errors.Is to match on code")
	}
	if unwrapped := wrapped.Unwrap(); unwrapped != inner {
		t.Error("expected Unwrap to return the inner error")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "op", "msg") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if WrapWithCode(nil, CodeInternal, "op", "msg") != nil {
		t.Error("WrapWithCode(nil) should return nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeInvalidInput, 400},
		{CodeAssetNotFound, 404},
		{CodeNotFound, 404},
		{CodeRateLimited, 429},
		{CodeUpstreamUnavailable, 502},
		{CodeRenderTimeout, 500},
		{CodeRenderFailed, 500},
		{CodeStorageFailure, 500},
		{CodeInternal, 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code, "x").HTTPStatus(); got != tt.status {
				t.Errorf("HTTPStatus(%s) = %d, expected %d", tt.code, got, tt.status)
			}
		})
	}
}

func TestGetHTTPStatusPlainError(t *testing.T) {
	if got := GetHTTPStatus(fmt.Errorf("boom")); got != 500 {
		t.Errorf("expected 500 for plain error, got %d", got)
	}
}

func TestIsCode(t *testing.T) {
	err := RenderFailed(1, "some stderr")
	if !IsCode(err, CodeRenderFailed) {
		t.Error("expected IsCode to match RENDER_FAILED")
	}
	if IsCode(err, CodeRenderTimeout) {
		t.Error("did not expect IsCode to match RENDER_TIMEOUT")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !IsCode(wrapped, CodeRenderFailed) {
		t.Error("expected IsCode to match through fmt.Errorf wrapping")
	}
}

func TestWithField(t *testing.T) {
	err := InvalidInput("text", "text is required")
	if err.Fields["field"] != "text" {
		t.Errorf("expected field='text', got %v", err.Fields["field"])
	}
}
