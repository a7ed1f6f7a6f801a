package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exammaker/exammaker-backend/internal/config"
	"github.com/exammaker/exammaker-backend/internal/database"
	"github.com/exammaker/exammaker-backend/internal/fixture"
	"github.com/exammaker/exammaker-backend/internal/handler"
	"github.com/exammaker/exammaker-backend/internal/logger"
	"github.com/exammaker/exammaker-backend/internal/middleware"
	"github.com/exammaker/exammaker-backend/internal/repository"
	"github.com/exammaker/exammaker-backend/internal/router"
	"github.com/exammaker/exammaker-backend/internal/service"
	"github.com/exammaker/exammaker-backend/internal/validator"
	"github.com/exammaker/exammaker-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Dur("tick_interval", cfg.TickInterval).
		Msg("Starting ExamMaker Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load Fixtures ─────────────────────────────────────────────────
	seed, err := fixture.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load fixtures")
	}
	log.Info().
		Int("exams", len(seed.Exams)).
		Int("questions", len(seed.Questions)).
		Int("topics", len(seed.Topics)).
		Int("resources", len(seed.Resources)).
		Msg("Fixtures loaded")

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	examRepo := repository.NewExamRepository(seed.Exams)
	questionRepo := repository.NewQuestionRepository(seed.Questions)
	topicRepo := repository.NewTopicRepository(seed.Topics)
	resourceRepo := repository.NewResourceRepository(seed.Resources)
	generationRepo := repository.NewGenerationRepository()
	resultRepo := repository.NewResultRepository()

	// ─── Snapshot Delivery ─────────────────────────────────────────────
	var publisher service.SnapshotPublisher = service.NewLocalPublisher(resultRepo)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	if rdb != nil {
		publisher = service.NewRedisPublisher(rdb, log)
		snapshotWorker := worker.NewSnapshotWorker(rdb, resultRepo, log)
		go func() {
			defer close(workerDone)
			snapshotWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	examService := service.NewExamService(examRepo, log)
	sessionService := service.NewExamSessionService(examRepo, resultRepo, publisher, cfg.TickInterval, nil, log)
	questionService := service.NewQuestionService(questionRepo)
	generationService := service.NewGenerationService(generationRepo, questionRepo, cfg.MaxGeneratedQuestions, log)
	topicService := service.NewTopicService(topicRepo, questionRepo)
	resourceService := service.NewResourceService(resourceRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:       handler.NewExamHandler(examService),
		Attempt:    handler.NewAttemptHandler(sessionService),
		WS:         handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		Question:   handler.NewQuestionHandler(questionService),
		Generation: handler.NewGenerationHandler(generationService),
		Topic:      handler.NewTopicHandler(topicService),
		Resource:   handler.NewResourceHandler(resourceService),
		Monitor:    handler.NewMonitorHandler(rdb, examService, sessionService, log),
		System:     handler.NewSystemHandler(rdb, sessionService, log),
	}

	generateLimiter := middleware.NewRateLimiter(cfg.GenerateRatePerMinute, time.Minute)
	defer generateLimiter.Stop()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, generateLimiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Release every exam countdown.
	sessionService.Shutdown()

	// 3. Stop the snapshot worker and wait for the queue to drain.
	workerCancel()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("Snapshot worker did not drain in time")
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("Redis close error")
		}
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
