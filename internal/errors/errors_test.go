package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad name %q", "x")
	if got, want := err.Error(), `INVALID_INPUT: bad name "x"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := Wrap(ErrCodeNetwork, errors.New("refused"), "dial %s", "host")
	if got, want := wrapped.Error(), "NETWORK_ERROR: dial host: refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsThroughWrapping(t *testing.T) {
	base := New(ErrCodeFileNotFound, "missing")
	err := fmt.Errorf("outer: %w", base)

	if !Is(err, ErrCodeFileNotFound) {
		t.Error("Is should find code through fmt.Errorf wrapping")
	}
	if Is(err, ErrCodeInternal) {
		t.Error("Is matched the wrong code")
	}
	if Is(errors.New("plain"), ErrCodeInternal) {
		t.Error("plain errors have no code")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(ErrCodeInternal, cause, "ctx")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "nope")); got != "nope" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(errors.New("raw")); got != "raw" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeFileNotFound, ""), http.StatusNotFound},
		{New(ErrCodeInvalidInput, ""), http.StatusBadRequest},
		{New(ErrCodeInvalidTransform, ""), http.StatusBadRequest},
		{New(ErrCodeUploadRejected, ""), http.StatusBadRequest},
		{New(ErrCodeNetwork, ""), http.StatusInternalServerError},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
