package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/exammaker/exammaker-backend/internal/config"
	"github.com/exammaker/exammaker-backend/internal/fixture"
	"github.com/exammaker/exammaker-backend/internal/handler"
	"github.com/exammaker/exammaker-backend/internal/middleware"
	"github.com/exammaker/exammaker-backend/internal/repository"
	"github.com/exammaker/exammaker-backend/internal/response"
	"github.com/exammaker/exammaker-backend/internal/service"
	"github.com/exammaker/exammaker-backend/internal/validator"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, rdb *redis.Client) http.Handler {
	t.Helper()
	validator.Setup()

	seed, err := fixture.Load()
	require.NoError(t, err)

	log := zerolog.Nop()
	examRepo := repository.NewExamRepository(seed.Exams)
	resultRepo := repository.NewResultRepository()
	questionRepo := repository.NewQuestionRepository(seed.Questions)

	examService := service.NewExamService(examRepo, log)
	sessionService := service.NewExamSessionService(examRepo, resultRepo, service.NewLocalPublisher(resultRepo), time.Hour, nil, log)
	t.Cleanup(sessionService.Shutdown)

	handlers := &Handlers{
		Exam:       handler.NewExamHandler(examService),
		Attempt:    handler.NewAttemptHandler(sessionService),
		WS:         handler.NewWSHandler(sessionService, log, nil),
		Question:   handler.NewQuestionHandler(service.NewQuestionService(questionRepo)),
		Generation: handler.NewGenerationHandler(service.NewGenerationService(repository.NewGenerationRepository(), questionRepo, 20, log)),
		Topic:      handler.NewTopicHandler(service.NewTopicService(repository.NewTopicRepository(seed.Topics), questionRepo)),
		Resource:   handler.NewResourceHandler(service.NewResourceService(repository.NewResourceRepository(seed.Resources))),
		Monitor:    handler.NewMonitorHandler(rdb, examService, sessionService, log),
		System:     handler.NewSystemHandler(rdb, sessionService, log),
	}

	limiter := middleware.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)

	cfg := &config.Config{GinMode: "test"}
	return SetupRouter(handlers, limiter, cfg, log)
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "ok", env.Data["status"])
	assert.Equal(t, "disabled", env.Data["redis"])
}

func TestHealthRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	r := newTestRouter(t, rdb)

	w := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"up"`)

	mr.Close()
	w = serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestRequestIDEchoed(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exams", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-123", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"request_id":"trace-123"`)
}

func TestAttemptRoutesAreNotCached(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodPost, "/api/v1/exams/1/attempts", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var env struct {
		Data struct {
			Attempt struct {
				ID string `json:"id"`
			} `json:"attempt"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))

	w = serve(r, http.MethodGet, "/api/v1/attempts/"+env.Data.Attempt.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestGenerateIsRateLimited(t *testing.T) {
	r := newTestRouter(t, nil)
	body := `{"count":1,"kind":"free_response","difficulty":"medium"}`

	w := serve(r, http.MethodPost, "/api/v1/generations", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = serve(r, http.MethodPost, "/api/v1/generations", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), string(response.ErrRateLimitExceeded))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestCatalogueRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{"/api/v1/exams", "/api/v1/exams/1", "/api/v1/questions", "/api/v1/topics", "/api/v1/resources"} {
		w := serve(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := serve(r, http.MethodGet, "/api/v1/exams/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), string(response.ErrExamNotFound))
}
