package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"vidqa/errors"
	"vidqa/middleware"
)

// Response is the standard API envelope.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	response := Response{
		Success:   code >= 200 && code < 300,
		Data:      payload,
		RequestID: middleware.RequestIDValue(r.Context()),
		Timestamp: time.Now().UTC(),
	}

	if !response.Success {
		if msg, ok := payload.(string); ok {
			response.Error = msg
			response.Data = nil
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.Code(err)
	msg := "Internal server error"

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		msg = appErr.Message
	}

	logger := middleware.GetLogger(r.Context())
	entry := logger.WithError(err).WithField("status", code)
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	respondJSON(w, r, code, msg)
}

func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.InvalidInput("readJSON", err, "Invalid JSON format")
	}
	return nil
}
