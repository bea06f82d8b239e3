package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Video is created only after a transcript was acquired and at least one
// chunk embedding persisted. A video with zero chunks is still processing
// (or a leftover from a crashed ingestion, cleaned up by the stale sweep).
type Video struct {
	ID        string    `json:"id"`
	YouTubeID string    `json:"youtube_id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Duration  int       `json:"duration"`
	CreatedAt time.Time `json:"created_at"`

	// Populated on listing queries only.
	ChunkCount    int `json:"chunk_count"`
	QuestionCount int `json:"question_count"`
}

// TranscriptChunk is immutable once created and deleted only alongside its
// video. Index is zero-based and contiguous in transcript order.
type TranscriptChunk struct {
	ID        string          `json:"id"`
	VideoID   string          `json:"video_id"`
	Text      string          `json:"chunk_text"`
	Index     int             `json:"chunk_index"`
	StartTime float64         `json:"start_time"`
	EndTime   float64         `json:"end_time"`
	Embedding pgvector.Vector `json:"-"`
}

// ContextSnippet is a retrieved chunk plus its similarity to the question.
type ContextSnippet struct {
	Text       string  `json:"text"`
	Index      int     `json:"chunk_index"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Similarity float64 `json:"similarity"`
}

// Question is append-only.
type Question struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	UserID    string    `json:"user_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Context   []string  `json:"context"`
	CreatedAt time.Time `json:"created_at"`
}
