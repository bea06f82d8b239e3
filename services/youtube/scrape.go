package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
)

var captionTracksPattern = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Texts []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

// scrapeStrategy pulls the caption track list out of the watch page and
// fetches the timedtext document directly. It needs no external binary
// and is the cheapest path, so it runs first.
type scrapeStrategy struct {
	client *http.Client
}

func newScrapeStrategy() *scrapeStrategy {
	return &scrapeStrategy{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *scrapeStrategy) Name() string { return "scrape" }

func (s *scrapeStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	page, err := s.get(ctx, "https://www.youtube.com/watch?v="+videoID)
	if err != nil {
		return "", pkgerrors.Wrap(err, "fetching watch page")
	}

	track, err := pickCaptionTrack(page)
	if err != nil {
		return "", err
	}

	doc, err := s.get(ctx, track.BaseURL)
	if err != nil {
		return "", pkgerrors.Wrap(err, "fetching caption track")
	}

	return parseTimedText(doc)
}

func (s *scrapeStrategy) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; vidqa/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// pickCaptionTrack prefers manually authored English captions, then
// auto-generated English, then whatever track comes first.
func pickCaptionTrack(page string) (*captionTrack, error) {
	match := captionTracksPattern.FindStringSubmatch(page)
	if match == nil {
		return nil, pkgerrors.New("no caption tracks on watch page")
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(match[1]), &tracks); err != nil {
		return nil, pkgerrors.Wrap(err, "parsing caption track list")
	}
	if len(tracks) == 0 {
		return nil, pkgerrors.New("caption track list is empty")
	}

	var auto *captionTrack
	for i := range tracks {
		t := &tracks[i]
		if !strings.HasPrefix(t.LanguageCode, "en") {
			continue
		}
		if t.Kind == "asr" {
			if auto == nil {
				auto = t
			}
			continue
		}
		return t, nil
	}
	if auto != nil {
		return auto, nil
	}
	return &tracks[0], nil
}

func parseTimedText(doc string) (string, error) {
	var tt timedText
	if err := xml.Unmarshal([]byte(doc), &tt); err != nil {
		return "", pkgerrors.Wrap(err, "parsing timedtext document")
	}

	parts := make([]string, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		// Entities are encoded twice in timedtext: the XML decoder
		// handled one layer, UnescapeString handles the other.
		body := strings.TrimSpace(html.UnescapeString(t.Body))
		if body != "" {
			parts = append(parts, body)
		}
	}
	if len(parts) == 0 {
		return "", pkgerrors.New("timedtext document contained no text")
	}
	return strings.Join(parts, " "), nil
}
