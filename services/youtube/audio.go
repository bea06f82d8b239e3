package youtube

import (
	"context"
	"os"
	"path/filepath"

	"github.com/lrstanley/go-ytdlp"
	pkgerrors "github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type whisperTranscriber struct {
	api   *openai.Client
	model string
}

func NewWhisperTranscriber(api *openai.Client, model string) Transcriber {
	return &whisperTranscriber{api: api, model: model}
}

func (t *whisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := t.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", pkgerrors.Wrap(err, "transcription failed")
	}
	return resp.Text, nil
}

// speechStrategy is the last resort: download the audio track and run it
// through speech-to-text. The audio file is removed on every exit path.
type speechStrategy struct {
	audioDir    string
	transcriber Transcriber
}

func newSpeechStrategy(audioDir string, transcriber Transcriber) *speechStrategy {
	return &speechStrategy{audioDir: audioDir, transcriber: transcriber}
}

func (s *speechStrategy) Name() string { return "speech" }

func (s *speechStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	audioPath, err := s.download(ctx, videoID)
	if err != nil {
		return "", pkgerrors.Wrap(err, "download failed")
	}
	defer os.Remove(audioPath)

	return s.transcriber.Transcribe(ctx, audioPath)
}

func (s *speechStrategy) download(ctx context.Context, videoID string) (string, error) {
	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", pkgerrors.Wrap(err, "creating audio directory")
	}

	audioPath := filepath.Join(s.audioDir, videoID+".mp3")
	if _, err := os.Stat(audioPath); err == nil {
		return audioPath, nil
	}

	dl := ytdlp.New().
		Format("bestaudio").
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality("10").
		Output(filepath.Join(s.audioDir, "%(id)s.%(ext)s"))

	if _, err := dl.Run(ctx, "https://www.youtube.com/watch?v="+videoID); err != nil {
		return "", pkgerrors.Wrap(err, "downloading audio")
	}

	if _, err := os.Stat(audioPath); err != nil {
		return "", pkgerrors.Wrap(err, "audio file missing after download")
	}
	return audioPath, nil
}
