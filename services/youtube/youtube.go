package youtube

import (
	"context"
	"encoding/json"

	"github.com/lrstanley/go-ytdlp"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"vidqa/config"
	"vidqa/errors"
)

// Metadata holds the subset of video details the pipeline stores.
type Metadata struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// Strategy is one way of obtaining a video's transcript. Strategies are
// tried in order; a failure moves on to the next one.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, videoID string) (string, error)
}

type Service struct {
	strategies []Strategy
	log        *logrus.Logger
}

// NewService builds the transcript acquisition cascade: caption-track
// scraping first, then subtitle download, then audio transcription.
func NewService(cfg *config.Config, log *logrus.Logger, speech Transcriber) *Service {
	return &Service{
		strategies: []Strategy{
			newScrapeStrategy(),
			newLoaderStrategy(cfg.AudioDir),
			newSpeechStrategy(cfg.AudioDir, speech),
		},
		log: log,
	}
}

// Transcript runs the cascade until a strategy yields a non-empty
// transcript. Every strategy failing is a 503 for the caller.
func (s *Service) Transcript(ctx context.Context, videoID string) (string, error) {
	const op = "youtube.Service.Transcript"

	var lastErr error
	for _, strategy := range s.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := strategy.Fetch(ctx, videoID)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"video_id": videoID,
				"strategy": strategy.Name(),
			}).WithError(err).Warn("transcript strategy failed")
			lastErr = err
			continue
		}
		if text == "" {
			lastErr = pkgerrors.Errorf("strategy %s returned an empty transcript", strategy.Name())
			continue
		}

		s.log.WithFields(logrus.Fields{
			"video_id": videoID,
			"strategy": strategy.Name(),
			"length":   len(text),
		}).Info("transcript acquired")
		return text, nil
	}

	return "", errors.Unavailable(op, lastErr, "could not obtain a transcript for this video")
}

// Metadata fetches the video's title and duration without downloading it.
func (s *Service) Metadata(ctx context.Context, url string) (*Metadata, error) {
	const op = "youtube.Service.Metadata"

	dl := ytdlp.New().
		DumpSingleJSON().
		NoPlaylist().
		SkipDownload()

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, errors.Unavailable(op, err, "could not fetch video metadata")
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(result.Stdout), &meta); err != nil {
		return nil, errors.Internal(op, err, "could not parse video metadata")
	}
	return &meta, nil
}
