package qa

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"vidqa/errors"
	"vidqa/models"
	"vidqa/repository"
)

// Embedder turns the question into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
}

type Service struct {
	videos    repository.VideoRepository
	questions repository.QuestionRepository
	retriever *retriever
	embedder  Embedder
	generator Generator
	log       *logrus.Logger
}

func NewService(
	videos repository.VideoRepository,
	chunks repository.ChunkRepository,
	questions repository.QuestionRepository,
	embedder Embedder,
	generator Generator,
	log *logrus.Logger,
) *Service {
	return &Service{
		videos:    videos,
		questions: questions,
		retriever: &retriever{chunks: chunks},
		embedder:  embedder,
		generator: generator,
		log:       log,
	}
}

// Ask answers a question about one of the user's videos and records the
// exchange.
func (s *Service) Ask(ctx context.Context, videoID, userID, question string) (*models.QuestionResponse, error) {
	const op = "qa.Service.Ask"

	video, err := s.videos.Find(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.UserID != userID {
		return nil, errors.NotFound(op, nil, "video not found")
	}

	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	snippets, err := s.retriever.Retrieve(ctx, videoID, embedding)
	if err != nil {
		return nil, err
	}

	contextTexts := make([]string, len(snippets))
	for i, snippet := range snippets {
		contextTexts[i] = snippet.Text
	}

	answer, err := s.generator.Generate(ctx, question, contextTexts)
	if err != nil {
		return nil, err
	}

	record := &models.Question{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		UserID:    userID,
		Question:  question,
		Answer:    answer,
		Context:   contextTexts,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.questions.Save(ctx, record); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"video_id": videoID,
		"snippets": len(snippets),
	}).Info("question answered")

	return models.NewQuestionResponse(record), nil
}

// History returns the user's previous questions for a video, oldest
// first.
func (s *Service) History(ctx context.Context, videoID, userID string) ([]*models.QuestionResponse, error) {
	video, err := s.videos.Find(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.UserID != userID {
		return nil, errors.NotFound("qa.Service.History", nil, "video not found")
	}

	records, err := s.questions.ListByVideo(ctx, videoID, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.QuestionResponse, len(records))
	for i, record := range records {
		responses[i] = models.NewQuestionResponse(record)
	}
	return responses, nil
}
