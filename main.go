package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"vidqa/config"
	"vidqa/handlers"
	"vidqa/logger"
	"vidqa/middleware"
	"vidqa/repository/postgres"
	"vidqa/services/embedding"
	"vidqa/services/ingest"
	"vidqa/services/qa"
	"vidqa/services/youtube"
	"vidqa/validation"
)

func main() {
	// Missing .env is fine; environment variables may come from elsewhere.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logrusLogger, err := logger.Init(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := run(cfg, logrusLogger); err != nil {
		logrusLogger.WithError(err).Fatal("Server exited with error")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.InitSchema(ctx, db); err != nil {
		return err
	}

	videoRepo := postgres.NewVideoRepository(db)
	chunkRepo := postgres.NewChunkRepository(db)
	questionRepo := postgres.NewQuestionRepository(db)

	openAI := openai.NewClient(cfg.OpenAI.APIKey)
	embedSvc := embedding.NewService(embedding.NewOpenAIClient(openAI), cfg.EmbedLimit)
	transcriber := youtube.NewWhisperTranscriber(openAI, cfg.OpenAI.WhisperModel)
	youtubeSvc := youtube.NewService(cfg, log, transcriber)

	ingestSvc := ingest.NewService(videoRepo, chunkRepo, youtubeSvc, youtubeSvc, embedSvc, cfg.Ingest, log)
	qaSvc := qa.NewService(videoRepo, chunkRepo, questionRepo, embedSvc,
		qa.NewOpenAIGenerator(openAI, cfg.OpenAI), log)

	validator := validation.NewValidator(cfg)
	router := handlers.Routes(
		handlers.NewVideoHandler(ingestSvc, videoRepo, validator, cfg.Ingest),
		handlers.NewQuestionHandler(qaSvc, validator),
		handlers.NewHealthHandler(db),
	)

	chain := []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.Logging(log),
	}
	if cfg.CORS.Enabled {
		chain = append(chain, middleware.CORS(cfg.CORS))
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
		chain = append(chain, limiter.Middleware)
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Chain(router, chain...),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go sweepStaleVideos(ctx, ingestSvc, cfg, log)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.ServerPort).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sweepStaleVideos periodically removes video rows that never received
// chunks, covering crashes between row creation and rollback.
func sweepStaleVideos(ctx context.Context, svc *ingest.Service, cfg *config.Config, log *logrus.Logger) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
			svc.DeleteStale(sweepCtx, cfg.StaleVideoGrace)
			cancel()
		}
	}
}
