package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"vidqa/config"
	"vidqa/errors"
	"vidqa/middleware"
	"vidqa/models"
	"vidqa/repository"
	"vidqa/validation"
)

// IngestService runs the full ingestion pipeline for one video.
type IngestService interface {
	Process(ctx context.Context, url, youtubeID, userID string) (*models.IngestResponse, error)
}

type VideoHandler struct {
	ingest    IngestService
	videos    repository.VideoRepository
	validator *validation.Validator
	timeout   config.IngestConfig
}

func NewVideoHandler(ingestSvc IngestService, videos repository.VideoRepository, validator *validation.Validator, cfg config.IngestConfig) *VideoHandler {
	return &VideoHandler{
		ingest:    ingestSvc,
		videos:    videos,
		validator: validator,
		timeout:   cfg,
	}
}

// HandleIngest handles POST /api/videos.
func (h *VideoHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	const op = "VideoHandler.HandleIngest"
	logger := middleware.GetLogger(r.Context())

	var req models.IngestRequest
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.validator.ValidateURL(req.YouTubeURL); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validator.ValidateUserID(req.UserID); err != nil {
		respondError(w, r, err)
		return
	}
	youtubeID, err := h.validator.ExtractVideoID(req.YouTubeURL)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.WithFields(logrus.Fields{
		"youtube_id": youtubeID,
		"user_id":    req.UserID,
	}).Info("Received ingestion request")

	// Ingestion runs synchronously; the per-request deadline bounds it.
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout.ProcessTimeout)
	defer cancel()

	resp, err := h.ingest.Process(ctx, req.YouTubeURL, youtubeID, req.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	code := http.StatusCreated
	if resp.AlreadyProcessed {
		code = http.StatusOK
	}
	respondJSON(w, r, code, resp)
}

// HandleList handles GET /api/videos.
func (h *VideoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "VideoHandler.HandleList"

	userID := r.URL.Query().Get("user_id")
	if err := h.validator.ValidateUserID(userID); err != nil {
		respondError(w, r, err)
		return
	}

	videos, err := h.videos.List(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if videos == nil {
		videos = []*models.Video{}
	}
	respondJSON(w, r, http.StatusOK, videos)
}

// HandleGet handles GET /api/videos/{id}.
func (h *VideoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "VideoHandler.HandleGet"

	video, err := h.findOwned(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, video)
}

// HandleDelete handles DELETE /api/videos/{id}.
func (h *VideoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "VideoHandler.HandleDelete"

	video, err := h.findOwned(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.videos.Delete(r.Context(), video.ID); err != nil {
		respondError(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).WithField("video_id", video.ID).Info("Video deleted")
	respondJSON(w, r, http.StatusOK, map[string]string{"video_id": video.ID})
}

// findOwned loads the video in the path and checks the caller owns it.
// Another user's video is reported as absent, not forbidden.
func (h *VideoHandler) findOwned(r *http.Request) (*models.Video, error) {
	const op = "VideoHandler.findOwned"

	userID := r.URL.Query().Get("user_id")
	if err := h.validator.ValidateUserID(userID); err != nil {
		return nil, err
	}

	video, err := h.videos.Find(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	if video.UserID != userID {
		return nil, errors.NotFound(op, nil, "video not found")
	}
	return video, nil
}
