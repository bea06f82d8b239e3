package models

import "time"

// IngestRequest is the body of POST /api/videos.
type IngestRequest struct {
	YouTubeURL string `json:"youtube_url"`
	UserID     string `json:"user_id"`
}

// IngestResponse reports the outcome of a completed (or short-circuited)
// ingestion.
type IngestResponse struct {
	VideoID           string `json:"video_id"`
	Title             string `json:"title,omitempty"`
	EmbeddingsCreated int    `json:"embeddings_created"`
	AlreadyProcessed  bool   `json:"already_processed,omitempty"`
}

// QuestionRequest is the body of POST /api/videos/{id}/questions.
type QuestionRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id"`
}

// QuestionResponse mirrors the persisted question record.
type QuestionResponse struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Context   []string  `json:"context"`
	CreatedAt time.Time `json:"created_at"`
}

func NewQuestionResponse(q *Question) *QuestionResponse {
	return &QuestionResponse{
		ID:        q.ID,
		Question:  q.Question,
		Answer:    q.Answer,
		Context:   q.Context,
		CreatedAt: q.CreatedAt,
	}
}
