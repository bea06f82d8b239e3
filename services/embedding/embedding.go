package embedding

import (
	"context"

	"github.com/pgvector/pgvector-go"
	pkgerrors "github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"vidqa/config"
	"vidqa/errors"
)

// Client produces an embedding vector for a piece of text.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type openAIClient struct {
	api *openai.Client
}

// NewOpenAIClient wraps the OpenAI embeddings API using the ada-002
// model, which produces 1536-dimensional vectors.
func NewOpenAIClient(api *openai.Client) Client {
	return &openAIClient{api: api}
}

func (c *openAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.AdaEmbeddingV2,
		Input: []string{text},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "creating embedding")
	}
	if len(resp.Data) == 0 {
		return nil, pkgerrors.New("embedding response contained no data")
	}
	return resp.Data[0].Embedding, nil
}

// Service serializes embedding calls and enforces the provider's rolling
// request window. Callers may invoke Embed concurrently; at most one
// request is in flight at a time.
type Service struct {
	client  Client
	limiter *windowLimiter
	sem     chan struct{}
}

func NewService(client Client, cfg config.EmbedLimitConfig) *Service {
	return &Service{
		client:  client,
		limiter: newWindowLimiter(cfg.RequestsPerWindow, cfg.Window, cfg.PollInterval),
		sem:     make(chan struct{}, 1),
	}
}

func (s *Service) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	const op = "embedding.Service.Embed"

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return pgvector.Vector{}, ctx.Err()
	}
	defer func() { <-s.sem }()

	if err := s.limiter.Wait(ctx); err != nil {
		return pgvector.Vector{}, err
	}

	vec, err := s.client.Embed(ctx, text)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok && apiErr.HTTPStatusCode == 429 {
			return pgvector.Vector{}, errors.RateLimited(op, err, "embedding provider rate limit exceeded")
		}
		return pgvector.Vector{}, errors.Unavailable(op, err, "embedding provider request failed")
	}
	if len(vec) == 0 {
		return pgvector.Vector{}, errors.Unavailable(op, nil, "embedding provider returned an empty vector")
	}
	return pgvector.NewVector(vec), nil
}

func asAPIError(err error) (*openai.APIError, bool) {
	var apiErr *openai.APIError
	if pkgerrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
