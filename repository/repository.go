package repository

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"

	"vidqa/models"
)

type VideoRepository interface {
	Save(ctx context.Context, video *models.Video) error
	Find(ctx context.Context, id string) (*models.Video, error)
	FindByYouTubeID(ctx context.Context, userID, youtubeID string) (*models.Video, error)
	List(ctx context.Context, userID string) ([]*models.Video, error)
	Delete(ctx context.Context, id string) error

	// DeleteStale removes videos that never received chunks and are older
	// than the grace period, reporting how many were removed.
	DeleteStale(ctx context.Context, grace time.Duration) (int64, error)
}

type ChunkRepository interface {
	SaveBatch(ctx context.Context, chunks []*models.TranscriptChunk) error
	CountByVideo(ctx context.Context, videoID string) (int, error)

	// Search ranks a video's chunks by cosine similarity to the given
	// embedding, descending. A minSimilarity <= 0 disables the threshold.
	Search(ctx context.Context, videoID string, embedding pgvector.Vector, minSimilarity float64, limit int) ([]models.ContextSnippet, error)
}

type QuestionRepository interface {
	Save(ctx context.Context, question *models.Question) error
	ListByVideo(ctx context.Context, videoID, userID string) ([]*models.Question, error)
}
