package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/exammaker/exammaker-backend/internal/config"
	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/response"
	"github.com/exammaker/exammaker-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keepAliveInterval = 30 * time.Second

// MonitorHandler streams the lifecycle events of an exam's attempts via SSE.
type MonitorHandler struct {
	rdb            *redis.Client
	examService    *service.ExamService
	sessionService *service.ExamSessionService
	keepAlive      time.Duration
	log            zerolog.Logger
}

// NewMonitorHandler creates a MonitorHandler. rdb may be nil, in which case
// the stream reports itself unavailable.
func NewMonitorHandler(
	rdb *redis.Client,
	examService *service.ExamService,
	sessionService *service.ExamSessionService,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:            rdb,
		examService:    examService,
		sessionService: sessionService,
		keepAlive:      keepAliveInterval,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

type monitorAttempt struct {
	AttemptID        string              `json:"attempt_id"`
	Status           model.SessionStatus `json:"status"`
	Answered         int                 `json:"answered"`
	RemainingSeconds int                 `json:"remaining_seconds"`
	StartedAt        time.Time           `json:"started_at"`
}

type monitorSnapshot struct {
	Type           string           `json:"type"`
	ExamID         int              `json:"exam_id"`
	QuestionCount  int              `json:"question_count"`
	TotalActive    int              `json:"total_active"`
	TotalSubmitted int              `json:"total_submitted"`
	Attempts       []monitorAttempt `json:"attempts"`
}

// MonitorExamSSE godoc
// GET /api/v1/exams/:id/events
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	if h.rdb == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrEventsUnavailable)
		return
	}

	examID, ok := intParam(c, "id")
	if !ok {
		return
	}

	reqCtx := c.Request.Context()
	exam, err := h.examService.GetByID(reqCtx, examID)
	if err != nil {
		failWithError(c, err)
		return
	}

	// Subscribe before the snapshot so no event falls between the two.
	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.ExamEventsChannel(examID))
	defer pubsub.Close()
	if _, err := pubsub.Receive(reqCtx); err != nil {
		h.log.Error().Err(err).Int("exam_id", examID).Msg("Subscribe to exam events failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrEventsUnavailable)
		return
	}
	ch := pubsub.Channel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.writeEvent(c, h.snapshot(c, exam))

	keepAliveTicker := time.NewTicker(h.keepAlive)
	defer keepAliveTicker.Stop()

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	h.log.Info().Int("exam_id", examID).Msg("Client attached to exam events SSE")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Int("exam_id", examID).Msg("Client detached from exam events SSE")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Payloads are already JSON.
			h.writeEvent(c, []byte(msg.Payload))

		case <-keepAliveTicker.C:
			h.writeEvent(c, pingPayload)
		}
	}
}

func (h *MonitorHandler) snapshot(c *gin.Context, exam *model.Exam) []byte {
	attempts := h.sessionService.ListByExam(c.Request.Context(), exam.ID)

	snap := monitorSnapshot{
		Type:          "snapshot",
		ExamID:        exam.ID,
		QuestionCount: len(exam.Questions),
		Attempts:      make([]monitorAttempt, 0, len(attempts)),
	}
	for _, a := range attempts {
		if a.State.Status == model.SessionStatusSubmitted {
			snap.TotalSubmitted++
		} else {
			snap.TotalActive++
		}
		snap.Attempts = append(snap.Attempts, monitorAttempt{
			AttemptID:        a.ID.String(),
			Status:           a.State.Status,
			Answered:         a.State.Answered,
			RemainingSeconds: a.State.RemainingSeconds,
			StartedAt:        a.StartedAt,
		})
	}

	data, err := json.Marshal(snap)
	if err != nil {
		h.log.Error().Err(err).Msg("Marshal monitor snapshot failed")
		return []byte(`{"type":"snapshot"}`)
	}
	return data
}

func (h *MonitorHandler) writeEvent(c *gin.Context, data []byte) {
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}
