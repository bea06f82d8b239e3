package qa

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"vidqa/errors"
	"vidqa/models"
	"vidqa/repository"
)

// tier is one pass of the widening retrieval search.
type tier struct {
	minSimilarity float64
	limit         int
}

// Retrieval runs widening tiers against a video's chunks: strict
// similarity first, a relaxed threshold next, and finally the top chunks
// unconditionally so the generator always has some context to refuse on.
var retrievalTiers = []tier{
	{minSimilarity: 0.5, limit: 8},
	{minSimilarity: 0.3, limit: 8},
	{minSimilarity: 0, limit: 5},
}

type retriever struct {
	chunks repository.ChunkRepository
}

func (r *retriever) Retrieve(ctx context.Context, videoID string, embedding pgvector.Vector) ([]models.ContextSnippet, error) {
	const op = "qa.retriever.Retrieve"

	count, err := r.chunks.CountByVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.Conflict(op, nil, "this video is still being processed")
	}

	for _, t := range retrievalTiers {
		snippets, err := r.chunks.Search(ctx, videoID, embedding, t.minSimilarity, t.limit)
		if err != nil {
			return nil, err
		}
		if len(snippets) > 0 {
			return snippets, nil
		}
	}

	return nil, errors.NotFound(op, nil, "no transcript content matched this question")
}
