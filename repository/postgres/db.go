package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"vidqa/config"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS videos (
	id         TEXT PRIMARY KEY,
	youtube_id TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	url        TEXT NOT NULL,
	title      TEXT NOT NULL,
	duration   INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, youtube_id)
);

CREATE TABLE IF NOT EXISTS video_chunks (
	id              TEXT PRIMARY KEY,
	video_id        TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
	chunk_text      TEXT NOT NULL,
	chunk_index     INTEGER NOT NULL,
	start_time      DOUBLE PRECISION NOT NULL DEFAULT 0,
	end_time        DOUBLE PRECISION NOT NULL DEFAULT 0,
	chunk_embedding vector(1536) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_video_chunks_video_id ON video_chunks (video_id);
CREATE INDEX IF NOT EXISTS idx_video_chunks_embedding
	ON video_chunks USING ivfflat (chunk_embedding vector_cosine_ops);

CREATE TABLE IF NOT EXISTS questions (
	id         TEXT PRIMARY KEY,
	video_id   TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	context    TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_questions_video_id ON questions (video_id);
`

// Open connects to Postgres, applies pool settings, and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}

	return db, nil
}

// InitSchema creates the pgvector extension, tables, and indexes if they
// do not already exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "initializing schema")
	}
	return nil
}
