package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"vidqa/errors"
	"vidqa/models"
)

const uniqueViolation = "23505"

type VideoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Save(ctx context.Context, video *models.Video) error {
	const op = "VideoRepository.Save"

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO videos (id, youtube_id, user_id, url, title, duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		video.ID, video.YouTubeID, video.UserID, video.URL, video.Title,
		video.Duration, video.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if pkgerrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errors.Conflict(op, err, "video already exists for this user")
		}
		return errors.Internal(op, err, "failed to save video")
	}
	return nil
}

func (r *VideoRepository) Find(ctx context.Context, id string) (*models.Video, error) {
	const op = "VideoRepository.Find"

	video := &models.Video{}
	err := r.db.QueryRowContext(ctx, `
		SELECT v.id, v.youtube_id, v.user_id, v.url, v.title, v.duration, v.created_at,
			(SELECT COUNT(*) FROM video_chunks c WHERE c.video_id = v.id),
			(SELECT COUNT(*) FROM questions q WHERE q.video_id = v.id)
		FROM videos v
		WHERE v.id = $1`,
		id,
	).Scan(
		&video.ID, &video.YouTubeID, &video.UserID, &video.URL, &video.Title,
		&video.Duration, &video.CreatedAt, &video.ChunkCount, &video.QuestionCount,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, err, "video not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "failed to find video")
	}
	return video, nil
}

func (r *VideoRepository) FindByYouTubeID(ctx context.Context, userID, youtubeID string) (*models.Video, error) {
	const op = "VideoRepository.FindByYouTubeID"

	video := &models.Video{}
	err := r.db.QueryRowContext(ctx, `
		SELECT v.id, v.youtube_id, v.user_id, v.url, v.title, v.duration, v.created_at,
			(SELECT COUNT(*) FROM video_chunks c WHERE c.video_id = v.id),
			(SELECT COUNT(*) FROM questions q WHERE q.video_id = v.id)
		FROM videos v
		WHERE v.user_id = $1 AND v.youtube_id = $2`,
		userID, youtubeID,
	).Scan(
		&video.ID, &video.YouTubeID, &video.UserID, &video.URL, &video.Title,
		&video.Duration, &video.CreatedAt, &video.ChunkCount, &video.QuestionCount,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, err, "video not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "failed to find video")
	}
	return video, nil
}

func (r *VideoRepository) List(ctx context.Context, userID string) ([]*models.Video, error) {
	const op = "VideoRepository.List"

	rows, err := r.db.QueryContext(ctx, `
		SELECT v.id, v.youtube_id, v.user_id, v.url, v.title, v.duration, v.created_at,
			(SELECT COUNT(*) FROM video_chunks c WHERE c.video_id = v.id),
			(SELECT COUNT(*) FROM questions q WHERE q.video_id = v.id)
		FROM videos v
		WHERE v.user_id = $1
		ORDER BY v.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to list videos")
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		video := &models.Video{}
		if err := rows.Scan(
			&video.ID, &video.YouTubeID, &video.UserID, &video.URL, &video.Title,
			&video.Duration, &video.CreatedAt, &video.ChunkCount, &video.QuestionCount,
		); err != nil {
			return nil, errors.Internal(op, err, "failed to scan video")
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "failed to iterate videos")
	}
	return videos, nil
}

func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	const op = "VideoRepository.Delete"

	res, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return errors.Internal(op, err, "failed to delete video")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Internal(op, err, "failed to delete video")
	}
	if affected == 0 {
		return errors.NotFound(op, nil, "video not found")
	}
	return nil
}

func (r *VideoRepository) DeleteStale(ctx context.Context, grace time.Duration) (int64, error) {
	const op = "VideoRepository.DeleteStale"

	cutoff := time.Now().Add(-grace)
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM videos v
		WHERE v.created_at < $1
			AND NOT EXISTS (SELECT 1 FROM video_chunks c WHERE c.video_id = v.id)`,
		cutoff,
	)
	if err != nil {
		return 0, errors.Internal(op, err, "failed to delete stale videos")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Internal(op, err, "failed to delete stale videos")
	}
	return affected, nil
}
