package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorCodes(t *testing.T) {
	cause := fmt.Errorf("boom")

	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"InvalidInput", InvalidInput("op", cause, "bad input"), http.StatusBadRequest},
		{"NotFound", NotFound("op", nil, "missing"), http.StatusNotFound},
		{"Conflict", Conflict("op", nil, "exists"), http.StatusConflict},
		{"RateLimited", RateLimited("op", cause, "slow down"), http.StatusTooManyRequests},
		{"Unavailable", Unavailable("op", cause, "try later"), http.StatusServiceUnavailable},
		{"Internal", Internal("op", cause, "oops"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.code)
			}
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code(err) = %d, want %d", got, tt.code)
			}
			if !IsCode(tt.err, tt.code) {
				t.Errorf("IsCode(err, %d) = false", tt.code)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("op", fmt.Errorf("row missing"), "Video not found")
	if want := "Video not found: row missing"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := NotFound("op", nil, "Video not found")
	if bare.Error() != "Video not found" {
		t.Errorf("Error() = %q, want %q", bare.Error(), "Video not found")
	}
}

func TestCodeWrappedError(t *testing.T) {
	inner := Conflict("op", nil, "duplicate")
	wrapped := fmt.Errorf("saving video: %w", inner)

	if got := Code(wrapped); got != http.StatusConflict {
		t.Errorf("Code(wrapped) = %d, want %d", got, http.StatusConflict)
	}
	if got := Code(fmt.Errorf("plain")); got != http.StatusInternalServerError {
		t.Errorf("Code(plain) = %d, want %d", got, http.StatusInternalServerError)
	}
}
