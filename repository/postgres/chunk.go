package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
	pkgerrors "github.com/pkg/errors"

	"vidqa/errors"
	"vidqa/models"
)

type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// SaveBatch inserts all chunks in a single transaction so a video never
// ends up with a partial set.
func (r *ChunkRepository) SaveBatch(ctx context.Context, chunks []*models.TranscriptChunk) error {
	const op = "ChunkRepository.SaveBatch"

	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Internal(op, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO video_chunks (id, video_id, chunk_text, chunk_index, start_time, end_time, chunk_embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return errors.Internal(op, err, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.VideoID, chunk.Text, chunk.Index,
			chunk.StartTime, chunk.EndTime, chunk.Embedding,
		)
		if err != nil {
			return errors.Internal(op, pkgerrors.Wrapf(err, "chunk %d", chunk.Index), "failed to save chunk")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Internal(op, err, "failed to commit chunks")
	}
	return nil
}

func (r *ChunkRepository) CountByVideo(ctx context.Context, videoID string) (int, error) {
	const op = "ChunkRepository.CountByVideo"

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM video_chunks WHERE video_id = $1`, videoID,
	).Scan(&count)
	if err != nil {
		return 0, errors.Internal(op, err, "failed to count chunks")
	}
	return count, nil
}

func (r *ChunkRepository) Search(ctx context.Context, videoID string, embedding pgvector.Vector, minSimilarity float64, limit int) ([]models.ContextSnippet, error) {
	const op = "ChunkRepository.Search"

	query := `
		SELECT chunk_text, chunk_index, start_time, end_time,
			1 - (chunk_embedding <=> $2) AS similarity
		FROM video_chunks
		WHERE video_id = $1`
	args := []any{videoID, embedding}
	if minSimilarity > 0 {
		query += ` AND 1 - (chunk_embedding <=> $2) > $3`
		args = append(args, minSimilarity)
	}
	query += fmt.Sprintf(`
		ORDER BY chunk_embedding <=> $2
		LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to search chunks")
	}
	defer rows.Close()

	var snippets []models.ContextSnippet
	for rows.Next() {
		var s models.ContextSnippet
		if err := rows.Scan(&s.Text, &s.Index, &s.StartTime, &s.EndTime, &s.Similarity); err != nil {
			return nil, errors.Internal(op, err, "failed to scan snippet")
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "failed to iterate snippets")
	}
	return snippets, nil
}
