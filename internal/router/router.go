package router

import (
	"time"

	"github.com/exammaker/exammaker-backend/internal/config"
	"github.com/exammaker/exammaker-backend/internal/handler"
	"github.com/exammaker/exammaker-backend/internal/middleware"
	"github.com/exammaker/exammaker-backend/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam       *handler.ExamHandler
	Attempt    *handler.AttemptHandler
	WS         *handler.WSHandler
	Question   *handler.QuestionHandler
	Generation *handler.GenerationHandler
	Topic      *handler.TopicHandler
	Resource   *handler.ResourceHandler
	Monitor    *handler.MonitorHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// generateLimiter guards the question generator.
func SetupRouter(
	handlers *Handlers,
	generateLimiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the request log and every envelope share it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	brotliConfig := middleware.DefaultBrotliConfig
	brotliConfig.Skipper = middleware.SkipPathPrefixes("/ws/")
	router.Use(middleware.BrotliWithConfig(brotliConfig))

	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")

	// ─── 1. Exam Catalogue ─────────────────────────────────────────────
	exams := api.Group("/exams")
	{
		exams.GET("", handlers.Exam.ListExams)
		exams.POST("", handlers.Exam.CreateExam)
		exams.GET("/:id", handlers.Exam.GetExam)
		exams.DELETE("/:id", handlers.Exam.DeleteExam)
		exams.POST("/:id/attempts", middleware.NoStore(), handlers.Attempt.StartAttempt)
		exams.GET("/:id/events", handlers.Monitor.MonitorExamSSE)
	}

	// ─── 2. Attempts (state changes every tick, never cached) ──────────
	attempts := api.Group("/attempts/:attempt_id")
	attempts.Use(middleware.NoStore())
	{
		attempts.GET("", handlers.Attempt.GetAttempt)
		attempts.DELETE("", handlers.Attempt.DiscardAttempt)
		attempts.PUT("/answers/:question_id", handlers.Attempt.RecordAnswer)
		attempts.PUT("/attachments/:question_id", handlers.Attempt.AttachFile)
		attempts.POST("/next", handlers.Attempt.Next)
		attempts.POST("/previous", handlers.Attempt.Previous)
		attempts.POST("/submit", handlers.Attempt.Submit)
		attempts.GET("/result", handlers.Attempt.Result)
	}

	// ─── 3. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/attempts/:attempt_id/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Question Bank ──────────────────────────────────────────────
	questions := api.Group("/questions")
	{
		questions.GET("", handlers.Question.ListQuestions)
		questions.POST("", handlers.Question.AddQuestion)
		questions.GET("/:id", handlers.Question.GetQuestion)
		questions.DELETE("/:id", handlers.Question.DeleteQuestion)
	}

	// ─── 5. Question Generation ────────────────────────────────────────
	generations := api.Group("/generations")
	{
		generations.POST("", generateLimiter.Middleware(), handlers.Generation.Generate)
		generations.GET("/:id", handlers.Generation.GetBatch)
		generations.DELETE("/:id", handlers.Generation.DiscardBatch)
		generations.PUT("/:id/questions/:index", handlers.Generation.EditQuestion)
		generations.DELETE("/:id/questions/:index", handlers.Generation.RemoveQuestion)
		generations.POST("/:id/save", handlers.Generation.SaveBatch)
	}

	// ─── 6. Topics & Resources ─────────────────────────────────────────
	topics := api.Group("/topics")
	{
		topics.GET("", handlers.Topic.ListTopics)
		topics.POST("", handlers.Topic.CreateTopic)
		topics.PUT("/:id", handlers.Topic.RenameTopic)
		topics.DELETE("/:id", handlers.Topic.DeleteTopic)
	}

	resources := api.Group("/resources")
	{
		resources.GET("", handlers.Resource.ListResources)
		resources.POST("", handlers.Resource.CreateResource)
		resources.DELETE("/:id", handlers.Resource.DeleteResource)
	}

	// ─── 7. System ─────────────────────────────────────────────────────
	api.GET("/system/metrics", handlers.System.SystemMetricsSSE)

	return router
}
