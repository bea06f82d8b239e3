package qa

import (
	"context"
	"io"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"vidqa/errors"
	"vidqa/models"
)

type fakeVideoRepo struct {
	videos map[string]*models.Video
}

func (r *fakeVideoRepo) Save(ctx context.Context, v *models.Video) error { return nil }

func (r *fakeVideoRepo) Find(ctx context.Context, id string) (*models.Video, error) {
	if v, ok := r.videos[id]; ok {
		return v, nil
	}
	return nil, errors.NotFound("fakeVideoRepo.Find", nil, "video not found")
}

func (r *fakeVideoRepo) FindByYouTubeID(ctx context.Context, userID, youtubeID string) (*models.Video, error) {
	return nil, errors.NotFound("fakeVideoRepo.FindByYouTubeID", nil, "video not found")
}

func (r *fakeVideoRepo) List(ctx context.Context, userID string) ([]*models.Video, error) {
	return nil, nil
}

func (r *fakeVideoRepo) Delete(ctx context.Context, id string) error { return nil }

func (r *fakeVideoRepo) DeleteStale(ctx context.Context, grace time.Duration) (int64, error) {
	return 0, nil
}

// fakeChunkRepo returns canned snippets keyed by similarity threshold,
// recording the thresholds queried.
type fakeChunkRepo struct {
	mu         sync.Mutex
	count      int
	byMin      map[float64][]models.ContextSnippet
	thresholds []float64
}

func (r *fakeChunkRepo) SaveBatch(ctx context.Context, chunks []*models.TranscriptChunk) error {
	return nil
}

func (r *fakeChunkRepo) CountByVideo(ctx context.Context, videoID string) (int, error) {
	return r.count, nil
}

func (r *fakeChunkRepo) Search(ctx context.Context, videoID string, embedding pgvector.Vector, minSimilarity float64, limit int) ([]models.ContextSnippet, error) {
	r.mu.Lock()
	r.thresholds = append(r.thresholds, minSimilarity)
	r.mu.Unlock()
	return r.byMin[minSimilarity], nil
}

type fakeQuestionRepo struct {
	saved []*models.Question
}

func (r *fakeQuestionRepo) Save(ctx context.Context, q *models.Question) error {
	r.saved = append(r.saved, q)
	return nil
}

func (r *fakeQuestionRepo) ListByVideo(ctx context.Context, videoID, userID string) ([]*models.Question, error) {
	var out []*models.Question
	for _, q := range r.saved {
		if q.VideoID == videoID && q.UserID == userID {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeEmbedder struct{ err error }

func (e *fakeEmbedder) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	if e.err != nil {
		return pgvector.Vector{}, e.err
	}
	return pgvector.NewVector([]float32{0.1}), nil
}

type fakeGenerator struct {
	answer   string
	err      error
	received []string
}

func (g *fakeGenerator) Generate(ctx context.Context, question string, snippets []string) (string, error) {
	g.received = snippets
	return g.answer, g.err
}

func snippet(text string, sim float64) models.ContextSnippet {
	return models.ContextSnippet{Text: text, Similarity: sim}
}

func newTestService(chunks *fakeChunkRepo, questions *fakeQuestionRepo, generator *fakeGenerator) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	videos := &fakeVideoRepo{videos: map[string]*models.Video{
		"vid-1": {ID: "vid-1", UserID: "user-1", Title: "Test"},
	}}
	return NewService(videos, chunks, questions, &fakeEmbedder{}, generator, log)
}

func TestAskUsesStrictTierFirst(t *testing.T) {
	chunks := &fakeChunkRepo{
		count: 3,
		byMin: map[float64][]models.ContextSnippet{
			0.5: {snippet("highly relevant", 0.9)},
		},
	}
	questions := &fakeQuestionRepo{}
	generator := &fakeGenerator{answer: "the answer"}
	svc := newTestService(chunks, questions, generator)

	resp, err := svc.Ask(context.Background(), "vid-1", "user-1", "what happened?")
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if resp.Answer != "the answer" {
		t.Errorf("Answer = %q, want %q", resp.Answer, "the answer")
	}
	if want := []float64{0.5}; !reflect.DeepEqual(chunks.thresholds, want) {
		t.Errorf("queried thresholds = %v, want %v", chunks.thresholds, want)
	}
	if want := []string{"highly relevant"}; !reflect.DeepEqual(generator.received, want) {
		t.Errorf("generator context = %v, want %v", generator.received, want)
	}
	if len(questions.saved) != 1 {
		t.Errorf("saved questions = %d, want 1", len(questions.saved))
	}
}

func TestAskWidensThroughTiers(t *testing.T) {
	chunks := &fakeChunkRepo{
		count: 3,
		byMin: map[float64][]models.ContextSnippet{
			0: {snippet("weak match", 0.1)},
		},
	}
	generator := &fakeGenerator{answer: "best effort"}
	svc := newTestService(chunks, &fakeQuestionRepo{}, generator)

	resp, err := svc.Ask(context.Background(), "vid-1", "user-1", "what happened?")
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if resp.Answer != "best effort" {
		t.Errorf("Answer = %q, want %q", resp.Answer, "best effort")
	}
	if want := []float64{0.5, 0.3, 0}; !reflect.DeepEqual(chunks.thresholds, want) {
		t.Errorf("queried thresholds = %v, want %v", chunks.thresholds, want)
	}
}

func TestAskFallsBackToRelaxedTier(t *testing.T) {
	chunks := &fakeChunkRepo{
		count: 3,
		byMin: map[float64][]models.ContextSnippet{
			0.3: {snippet("moderately relevant", 0.4)},
		},
	}
	generator := &fakeGenerator{answer: "relaxed answer"}
	svc := newTestService(chunks, &fakeQuestionRepo{}, generator)

	resp, err := svc.Ask(context.Background(), "vid-1", "user-1", "what happened?")
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if resp.Answer != "relaxed answer" {
		t.Errorf("Answer = %q, want %q", resp.Answer, "relaxed answer")
	}
	if want := []float64{0.5, 0.3}; !reflect.DeepEqual(chunks.thresholds, want) {
		t.Errorf("queried thresholds = %v, want %v", chunks.thresholds, want)
	}
}

func TestAskVideoNotYetProcessed(t *testing.T) {
	chunks := &fakeChunkRepo{count: 0}
	svc := newTestService(chunks, &fakeQuestionRepo{}, &fakeGenerator{})

	_, err := svc.Ask(context.Background(), "vid-1", "user-1", "what happened?")
	if code := errors.Code(err); code != http.StatusConflict {
		t.Errorf("error code = %d, want %d", code, http.StatusConflict)
	}
	if len(chunks.thresholds) != 0 {
		t.Errorf("search ran %d times on an unprocessed video, want 0", len(chunks.thresholds))
	}
}

func TestAskNoContentAtAll(t *testing.T) {
	chunks := &fakeChunkRepo{count: 3, byMin: map[float64][]models.ContextSnippet{}}
	svc := newTestService(chunks, &fakeQuestionRepo{}, &fakeGenerator{})

	_, err := svc.Ask(context.Background(), "vid-1", "user-1", "what happened?")
	if code := errors.Code(err); code != http.StatusNotFound {
		t.Errorf("error code = %d, want %d", code, http.StatusNotFound)
	}
}

func TestAskVideoOwnedByAnotherUser(t *testing.T) {
	chunks := &fakeChunkRepo{count: 3}
	svc := newTestService(chunks, &fakeQuestionRepo{}, &fakeGenerator{})

	_, err := svc.Ask(context.Background(), "vid-1", "someone-else", "what happened?")
	if code := errors.Code(err); code != http.StatusNotFound {
		t.Errorf("error code = %d, want %d", code, http.StatusNotFound)
	}
}

func TestAskGenerationFailurePropagates(t *testing.T) {
	chunks := &fakeChunkRepo{
		count: 1,
		byMin: map[float64][]models.ContextSnippet{0.5: {snippet("relevant", 0.8)}},
	}
	questions := &fakeQuestionRepo{}
	generator := &fakeGenerator{err: errors.Unavailable("test", pkgerrors.New("down"), "generation provider is unavailable")}
	svc := newTestService(chunks, questions, generator)

	_, err := svc.Ask(context.Background(), "vid-1", "user-1", "what happened?")
	if code := errors.Code(err); code != http.StatusServiceUnavailable {
		t.Errorf("error code = %d, want %d", code, http.StatusServiceUnavailable)
	}
	if len(questions.saved) != 0 {
		t.Errorf("saved questions = %d, want 0 after generation failure", len(questions.saved))
	}
}

func TestHistory(t *testing.T) {
	chunks := &fakeChunkRepo{
		count: 1,
		byMin: map[float64][]models.ContextSnippet{0.5: {snippet("relevant", 0.8)}},
	}
	questions := &fakeQuestionRepo{}
	svc := newTestService(chunks, questions, &fakeGenerator{answer: "ok"})

	if _, err := svc.Ask(context.Background(), "vid-1", "user-1", "first?"); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if _, err := svc.Ask(context.Background(), "vid-1", "user-1", "second?"); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}

	history, err := svc.History(context.Background(), "vid-1", "user-1")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history length = %d, want 2", len(history))
	}

	if _, err := svc.History(context.Background(), "missing", "user-1"); errors.Code(err) != http.StatusNotFound {
		t.Errorf("History() for missing video code = %d, want 404", errors.Code(err))
	}
}
