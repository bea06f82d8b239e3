package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"vidqa/errors"
	"vidqa/models"
)

type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Save(ctx context.Context, question *models.Question) error {
	const op = "QuestionRepository.Save"

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO questions (id, video_id, user_id, question, answer, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		question.ID, question.VideoID, question.UserID, question.Question,
		question.Answer, pq.Array(question.Context), question.CreatedAt,
	)
	if err != nil {
		return errors.Internal(op, err, "failed to save question")
	}
	return nil
}

func (r *QuestionRepository) ListByVideo(ctx context.Context, videoID, userID string) ([]*models.Question, error) {
	const op = "QuestionRepository.ListByVideo"

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, video_id, user_id, question, answer, context, created_at
		FROM questions
		WHERE video_id = $1 AND user_id = $2
		ORDER BY created_at ASC`,
		videoID, userID,
	)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to list questions")
	}
	defer rows.Close()

	var questions []*models.Question
	for rows.Next() {
		q := &models.Question{}
		if err := rows.Scan(
			&q.ID, &q.VideoID, &q.UserID, &q.Question, &q.Answer,
			pq.Array(&q.Context), &q.CreatedAt,
		); err != nil {
			return nil, errors.Internal(op, err, "failed to scan question")
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "failed to iterate questions")
	}
	return questions, nil
}
