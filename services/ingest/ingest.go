package ingest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"vidqa/config"
	"vidqa/errors"
	"vidqa/models"
	"vidqa/repository"
	"vidqa/retry"
	"vidqa/services/youtube"
	"vidqa/transcript"
)

// MetadataFetcher resolves a video's title and duration.
type MetadataFetcher interface {
	Metadata(ctx context.Context, url string) (*youtube.Metadata, error)
}

// TranscriptFetcher obtains the raw transcript text for a video.
type TranscriptFetcher interface {
	Transcript(ctx context.Context, videoID string) (string, error)
}

// Embedder turns a chunk of text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
}

type Service struct {
	videos   repository.VideoRepository
	chunks   repository.ChunkRepository
	fetcher  TranscriptFetcher
	meta     MetadataFetcher
	embedder Embedder
	cfg      config.IngestConfig
	log      *logrus.Logger
}

func NewService(
	videos repository.VideoRepository,
	chunks repository.ChunkRepository,
	fetcher TranscriptFetcher,
	meta MetadataFetcher,
	embedder Embedder,
	cfg config.IngestConfig,
	log *logrus.Logger,
) *Service {
	return &Service{
		videos:   videos,
		chunks:   chunks,
		fetcher:  fetcher,
		meta:     meta,
		embedder: embedder,
		cfg:      cfg,
		log:      log,
	}
}

// Process ingests one video end to end: metadata, transcript, chunking,
// embedding, persistence. The video row is created before the expensive
// work starts and deleted again on any terminal failure, so a video
// either ends up fully queryable or absent.
func (s *Service) Process(ctx context.Context, url, youtubeID, userID string) (*models.IngestResponse, error) {
	const op = "ingest.Service.Process"

	// Re-submitting an already processed video is a no-op.
	if existing, err := s.videos.FindByYouTubeID(ctx, userID, youtubeID); err == nil {
		count, err := s.chunks.CountByVideo(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return &models.IngestResponse{
				VideoID:           existing.ID,
				Title:             existing.Title,
				EmbeddingsCreated: count,
				AlreadyProcessed:  true,
			}, nil
		}
		// A row without chunks is a previous failed attempt; clear it
		// and start over.
		if err := s.videos.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
	}

	meta, err := s.meta.Metadata(ctx, url)
	if err != nil {
		return nil, err
	}

	video := &models.Video{
		ID:        uuid.NewString(),
		YouTubeID: youtubeID,
		UserID:    userID,
		URL:       url,
		Title:     meta.Title,
		Duration:  int(meta.Duration),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.videos.Save(ctx, video); err != nil {
		// A concurrent request for the same video won the insert race.
		if errors.IsCode(err, http.StatusConflict) {
			return nil, errors.Conflict(op, err, "this video is already being processed")
		}
		return nil, err
	}

	resp, err := s.process(ctx, video)
	if err != nil {
		s.rollback(video)
		return nil, err
	}
	return resp, nil
}

func (s *Service) process(ctx context.Context, video *models.Video) (*models.IngestResponse, error) {
	const op = "ingest.Service.process"

	raw, err := s.fetcher.Transcript(ctx, video.YouTubeID)
	if err != nil {
		return nil, err
	}

	cleaned := transcript.Clean(raw)
	chunks := transcript.Split(cleaned, s.cfg.ChunkSize)
	if len(chunks) == 0 {
		return nil, errors.Unavailable(op, nil, "transcript was empty after cleaning")
	}

	embedded, err := s.embedAll(ctx, video, chunks)
	if err != nil {
		return nil, err
	}
	if len(embedded) == 0 {
		return nil, errors.Unavailable(op, nil, "no chunks could be embedded")
	}

	if err := s.chunks.SaveBatch(ctx, embedded); err != nil {
		return nil, err
	}

	count, err := s.chunks.CountByVideo(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.Internal(op, nil, "no chunks were persisted")
	}

	s.log.WithFields(logrus.Fields{
		"video_id":   video.ID,
		"youtube_id": video.YouTubeID,
		"chunks":     len(chunks),
		"embedded":   count,
	}).Info("video processed")

	return &models.IngestResponse{
		VideoID:           video.ID,
		Title:             video.Title,
		EmbeddingsCreated: count,
	}, nil
}

// embedAll embeds chunks with bounded concurrency, retrying each chunk a
// few times before giving up on it. Failed chunks are dropped rather
// than failing the whole video.
func (s *Service) embedAll(ctx context.Context, video *models.Video, chunks []transcript.Chunk) ([]*models.TranscriptChunk, error) {
	concurrency := s.cfg.EmbedConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu       sync.Mutex
		embedded []*models.TranscriptChunk
		wg       sync.WaitGroup
		sem      = make(chan struct{}, concurrency)
	)

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(chunk transcript.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			vec, err := retry.Do(ctx, s.cfg.EmbedRetries, retry.Linear(time.Second), retry.Always,
				func() (pgvector.Vector, error) {
					return s.embedder.Embed(ctx, chunk.Text)
				})
			if err != nil {
				s.log.WithFields(logrus.Fields{
					"video_id": video.ID,
					"chunk":    chunk.Index,
				}).WithError(err).Warn("dropping chunk after embedding failures")
				return
			}

			mu.Lock()
			embedded = append(embedded, &models.TranscriptChunk{
				ID:        uuid.NewString(),
				VideoID:   video.ID,
				Text:      chunk.Text,
				Index:     chunk.Index,
				StartTime: chunk.StartTime,
				EndTime:   chunk.EndTime,
				Embedding: vec,
			})
			mu.Unlock()
		}(chunk)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "embedding interrupted")
	}
	return embedded, nil
}

// rollback removes the video row after a terminal failure. It runs on a
// fresh context because the request's context may already be done.
func (s *Service) rollback(video *models.Video) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.videos.Delete(ctx, video.ID); err != nil {
		s.log.WithFields(logrus.Fields{
			"video_id": video.ID,
		}).WithError(err).Error("failed to remove video after processing failure")
	}
}

// DeleteStale sweeps videos that never received chunks, covering crashes
// that happened between row creation and rollback.
func (s *Service) DeleteStale(ctx context.Context, grace time.Duration) {
	removed, err := s.videos.DeleteStale(ctx, grace)
	if err != nil {
		s.log.WithError(err).Error("stale video sweep failed")
		return
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("removed stale videos")
	}
}
