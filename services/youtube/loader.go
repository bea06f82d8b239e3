package youtube

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	pkgerrors "github.com/pkg/errors"
)

// loaderStrategy downloads the video's subtitle track with yt-dlp,
// converting it to SRT before parsing. It handles videos the watch-page
// scrape cannot reach, such as age-gated ones.
type loaderStrategy struct {
	workDir string
}

func newLoaderStrategy(workDir string) *loaderStrategy {
	return &loaderStrategy{workDir: workDir}
}

func (s *loaderStrategy) Name() string { return "loader" }

func (s *loaderStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	if err := os.MkdirAll(s.workDir, 0o755); err != nil {
		return "", pkgerrors.Wrap(err, "creating work directory")
	}

	dl := ytdlp.New().
		WriteSubs().
		WriteAutoSubs().
		SubLangs("en").
		ConvertSubs("srt").
		SkipDownload().
		Output(filepath.Join(s.workDir, "%(id)s"))

	if _, err := dl.Run(ctx, "https://www.youtube.com/watch?v="+videoID); err != nil {
		return "", pkgerrors.Wrap(err, "downloading subtitles")
	}

	matches, err := filepath.Glob(filepath.Join(s.workDir, videoID+"*.srt"))
	if err != nil {
		return "", pkgerrors.Wrap(err, "locating subtitle file")
	}
	if len(matches) == 0 {
		return "", pkgerrors.New("no subtitle file produced")
	}

	path := matches[0]
	defer os.Remove(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return "", pkgerrors.Wrap(err, "reading subtitle file")
	}

	lines := dedupeConsecutive(parseSRT(string(content)))
	return strings.TrimSpace(strings.Join(lines, " ")), nil
}

// parseSRT extracts the text lines from an SRT document, skipping each
// block's sequence number and timestamp lines.
func parseSRT(content string) []string {
	var lines []string
	for _, block := range strings.Split(content, "\n\n") {
		blockLines := strings.Split(block, "\n")
		if len(blockLines) < 3 {
			continue
		}
		for _, line := range blockLines[2:] {
			line = strings.TrimSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

// dedupeConsecutive drops lines that repeat or extend their neighbor.
// Rolling auto-captions emit each line twice as the window advances.
func dedupeConsecutive(lines []string) []string {
	result := make([]string, 0, len(lines))
	prev := ""
	for _, line := range lines {
		duplicate := prev != "" && (strings.Contains(line, prev) || strings.Contains(prev, line))
		if !duplicate {
			result = append(result, line)
		}
		prev = line
	}
	return result
}
