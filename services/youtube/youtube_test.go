package youtube

import (
	"context"
	"io"
	"reflect"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"vidqa/errors"
)

type fakeStrategy struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	f.calls++
	return f.text, f.err
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestTranscriptUsesFirstSuccessfulStrategy(t *testing.T) {
	first := &fakeStrategy{name: "first", err: pkgerrors.New("no captions")}
	second := &fakeStrategy{name: "second", text: "hello world"}
	third := &fakeStrategy{name: "third", text: "should not run"}
	svc := &Service{strategies: []Strategy{first, second, third}, log: testLogger()}

	text, err := svc.Transcript(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Transcript() error: %v", err)
	}
	if text != "hello world" {
		t.Errorf("transcript = %q, want %q", text, "hello world")
	}
	if third.calls != 0 {
		t.Errorf("third strategy ran %d times, want 0", third.calls)
	}
}

func TestTranscriptSkipsEmptyResults(t *testing.T) {
	first := &fakeStrategy{name: "first", text: ""}
	second := &fakeStrategy{name: "second", text: "from fallback"}
	svc := &Service{strategies: []Strategy{first, second}, log: testLogger()}

	text, err := svc.Transcript(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Transcript() error: %v", err)
	}
	if text != "from fallback" {
		t.Errorf("transcript = %q, want %q", text, "from fallback")
	}
}

func TestTranscriptAllStrategiesFail(t *testing.T) {
	first := &fakeStrategy{name: "first", err: pkgerrors.New("boom")}
	second := &fakeStrategy{name: "second", err: pkgerrors.New("also boom")}
	svc := &Service{strategies: []Strategy{first, second}, log: testLogger()}

	_, err := svc.Transcript(context.Background(), "dQw4w9WgXcQ")
	if err == nil {
		t.Fatal("Transcript() succeeded, want error")
	}
	if code := errors.Code(err); code != 503 {
		t.Errorf("error code = %d, want 503", code)
	}
}

func TestPickCaptionTrack(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		wantURL string
		wantErr bool
	}{
		{
			name:    "no caption tracks",
			page:    `<html>nothing here</html>`,
			wantErr: true,
		},
		{
			name:    "prefers manual english over asr",
			page:    `"captionTracks":[{"baseUrl":"http://x/asr","languageCode":"en","kind":"asr"},{"baseUrl":"http://x/manual","languageCode":"en"}]`,
			wantURL: "http://x/manual",
		},
		{
			name:    "falls back to asr english",
			page:    `"captionTracks":[{"baseUrl":"http://x/fr","languageCode":"fr"},{"baseUrl":"http://x/asr","languageCode":"en","kind":"asr"}]`,
			wantURL: "http://x/asr",
		},
		{
			name:    "falls back to first track",
			page:    `"captionTracks":[{"baseUrl":"http://x/de","languageCode":"de"},{"baseUrl":"http://x/fr","languageCode":"fr"}]`,
			wantURL: "http://x/de",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, err := pickCaptionTrack(tt.page)
			if tt.wantErr {
				if err == nil {
					t.Fatal("pickCaptionTrack() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("pickCaptionTrack() error: %v", err)
			}
			if track.BaseURL != tt.wantURL {
				t.Errorf("baseUrl = %q, want %q", track.BaseURL, tt.wantURL)
			}
		})
	}
}

func TestParseTimedText(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<transcript>
	<text start="0.5" dur="2.1">hello &amp;amp; welcome</text>
	<text start="2.6" dur="1.9">to the show</text>
	<text start="4.5" dur="1.0">  </text>
</transcript>`

	text, err := parseTimedText(doc)
	if err != nil {
		t.Fatalf("parseTimedText() error: %v", err)
	}
	want := "hello & welcome to the show"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestParseSRT(t *testing.T) {
	content := strings.Join([]string{
		"1",
		"00:00:00,000 --> 00:00:02,000",
		"first line",
		"",
		"2",
		"00:00:02,000 --> 00:00:04,000",
		"second line",
		"third line",
		"",
	}, "\n")

	got := parseSRT(content)
	want := []string{"first line", "second line", "third line"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseSRT() = %v, want %v", got, want)
	}
}

func TestDedupeConsecutive(t *testing.T) {
	lines := []string{"hello there", "hello there everyone", "something new", "something new"}
	got := dedupeConsecutive(lines)
	want := []string{"hello there", "something new"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dedupeConsecutive() = %v, want %v", got, want)
	}
}
