package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries an HTTP status code alongside a user-facing message.
// Op names the operation that produced the error for log correlation.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func E(op string, err error, message string, code int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadRequest)
}

func NotFound(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusNotFound)
}

// Conflict covers duplicate ingestion and questions asked against a video
// that has no stored chunks yet.
func Conflict(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusConflict)
}

func RateLimited(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusTooManyRequests)
}

func Unavailable(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusServiceUnavailable)
}

func Internal(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError)
}

// Code extracts the HTTP status from err, defaulting to 500.
func Code(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// IsCode reports whether err carries the given HTTP status.
func IsCode(err error, code int) bool {
	return Code(err) == code
}
