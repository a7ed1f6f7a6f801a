package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/exammaker/exammaker-backend/internal/config"
	"github.com/exammaker/exammaker-backend/internal/response"
	"github.com/exammaker/exammaker-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const metricsInterval = 5 * time.Second

// SystemHandler reports liveness and streams runtime metrics via SSE.
type SystemHandler struct {
	rdb            *redis.Client
	sessionService *service.ExamSessionService
	startTime      time.Time
	interval       time.Duration
	log            zerolog.Logger
}

// NewSystemHandler creates a SystemHandler. rdb may be nil.
func NewSystemHandler(rdb *redis.Client, sessionService *service.ExamSessionService, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		rdb:            rdb,
		sessionService: sessionService,
		startTime:      time.Now(),
		interval:       metricsInterval,
		log:            log.With().Str("component", "system_handler").Logger(),
	}
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	// Go Application
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	// Exams
	ActiveAttempts int `json:"active_attempts"`

	// Redis; QueueSnapshots is -1 when Redis is not configured or unreachable.
	Redis          string `json:"redis"`
	QueueSnapshots int64  `json:"queue_snapshots"`
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	m := h.collect(c.Request.Context())
	code, status := http.StatusOK, "ok"
	if m.Redis == "down" {
		code, status = http.StatusServiceUnavailable, "degraded"
	}
	response.Success(c, code, gin.H{
		"status":          status,
		"uptime":          m.Uptime,
		"redis":           m.Redis,
		"active_attempts": m.ActiveAttempts,
	})
}

// SystemMetricsSSE godoc
// GET /api/v1/system/metrics
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Debug().Msg("Client connected to system metrics SSE")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	// Send immediately on connect, then every tick
	h.writeMetrics(c)

	for {
		select {
		case <-reqCtx.Done():
			h.log.Debug().Msg("Client disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	data, err := json.Marshal(h.collect(c.Request.Context()))
	if err != nil {
		return
	}
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m := systemMetrics{
		Timestamp:      time.Now().Unix(),
		Uptime:         formatDuration(time.Since(h.startTime)),
		Goroutines:     runtime.NumGoroutine(),
		HeapAlloc:      ms.HeapAlloc,
		HeapSys:        ms.Sys,
		NumGC:          ms.NumGC,
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		ActiveAttempts: h.sessionService.ActiveCount(),
		Redis:          "disabled",
		QueueSnapshots: -1,
	}

	if h.rdb == nil {
		return m
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	pipe := h.rdb.Pipeline()
	pipe.Ping(ctx)
	queueCmd := pipe.LLen(ctx, config.WorkerKey.SubmittedSnapshotsQueue)
	if _, err := pipe.Exec(ctx); err != nil {
		m.Redis = "down"
		return m
	}
	m.Redis = "up"
	m.QueueSnapshots, _ = queueCmd.Result()
	return m
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
