package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"vidqa/middleware"
	"vidqa/models"
	"vidqa/validation"
)

// QAService answers questions about ingested videos.
type QAService interface {
	Ask(ctx context.Context, videoID, userID, question string) (*models.QuestionResponse, error)
	History(ctx context.Context, videoID, userID string) ([]*models.QuestionResponse, error)
}

type QuestionHandler struct {
	qa        QAService
	validator *validation.Validator
}

func NewQuestionHandler(qaSvc QAService, validator *validation.Validator) *QuestionHandler {
	return &QuestionHandler{qa: qaSvc, validator: validator}
}

// HandleAsk handles POST /api/videos/{id}/questions.
func (h *QuestionHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionRequest
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.validator.ValidateQuestion(req.Question); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validator.ValidateUserID(req.UserID); err != nil {
		respondError(w, r, err)
		return
	}

	videoID := mux.Vars(r)["id"]
	middleware.GetLogger(r.Context()).WithField("video_id", videoID).Info("Received question")

	resp, err := h.qa.Ask(r.Context(), videoID, req.UserID, req.Question)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, resp)
}

// HandleHistory handles GET /api/videos/{id}/questions.
func (h *QuestionHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if err := h.validator.ValidateUserID(userID); err != nil {
		respondError(w, r, err)
		return
	}

	history, err := h.qa.History(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if history == nil {
		history = []*models.QuestionResponse{}
	}
	respondJSON(w, r, http.StatusOK, history)
}
