package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/response"
	"github.com/exammaker/exammaker-backend/internal/service"
	ws "github.com/exammaker/exammaker-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a running attempt over a WebSocket: the countdown and
// every state change go out as events, answers and navigation come in as
// actions.
type WSHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/attempts/:attempt_id/stream
func (h *WSHandler) AttemptStream(c *gin.Context) {
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	updates, unsubscribe, err := h.sessionService.Subscribe(ctx, attemptID)
	if err != nil {
		failWithError(c, err)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("attempt_id", attemptID.String()).Logger()
	wsLog.Info().Msg("Attempt stream connected")

	outbound := make(chan interface{}, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		// Closing unblocks the reader when the writer stops first.
		defer conn.Close()
		h.writeLoop(ctx, conn, attemptID, updates, outbound, wsLog)
	}()

	h.readLoop(ctx, conn, attemptID, outbound, writerDone, wsLog)

	unsubscribe()
	close(outbound)
	<-writerDone
	wsLog.Info().Msg("Attempt stream closed")
}

// writeLoop is the only goroutine writing to conn.
func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, attemptID uuid.UUID, updates <-chan model.SessionState, outbound <-chan interface{}, log zerolog.Logger) {
	submittedSent := false

	sendState := func(state model.SessionState) bool {
		if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: state}); err != nil {
			log.Debug().Err(err).Msg("Write state failed")
			return false
		}
		if state.Status != model.SessionStatusSubmitted || submittedSent {
			return true
		}

		rec, err := h.sessionService.Result(ctx, attemptID)
		if err != nil {
			log.Error().Err(err).Msg("Submitted attempt has no result")
			return true
		}
		submittedSent = true
		if err := ws.WriteTyped(conn, ws.SubmittedResponse{Event: ws.EventSubmitted, Result: *rec}); err != nil {
			log.Debug().Err(err).Msg("Write result failed")
			return false
		}
		return true
	}

	// Initial state so the client can render before the first tick.
	if state, err := h.sessionService.State(ctx, attemptID); err == nil {
		if !sendState(state) {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				_ = ws.WriteClose(conn, websocket.CloseNormalClosure, "attempt closed")
				return
			}
			if !sendState(state) {
				return
			}
		case msg, ok := <-outbound:
			if !ok {
				return
			}
			if err := ws.WriteTyped(conn, msg); err != nil {
				log.Debug().Err(err).Msg("Write failed")
				return
			}
		}
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, attemptID uuid.UUID, outbound chan<- interface{}, writerDone <-chan struct{}, log zerolog.Logger) {
	send := func(msg interface{}) bool {
		select {
		case outbound <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	for {
		if ctx.Err() != nil {
			return
		}

		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			} else {
				log.Debug().Msg("Connection closed")
			}
			return
		}

		var err error
		switch msg.Action {
		case ws.ActionAnswer:
			_, err = h.sessionService.RecordAnswer(ctx, attemptID, msg.QID, msg.Value)
		case ws.ActionAttach:
			_, err = h.sessionService.AttachFile(ctx, attemptID, msg.QID, msg.File)
		case ws.ActionNext:
			_, err = h.sessionService.Next(ctx, attemptID)
		case ws.ActionPrevious:
			_, err = h.sessionService.Previous(ctx, attemptID)
		case ws.ActionSubmit:
			_, err = h.sessionService.Submit(ctx, attemptID)
		case ws.ActionPing:
			if !send(ws.PongResponse{Event: ws.EventPong}) {
				return
			}
			continue
		default:
			log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			if !send(ws.ErrorResponse{Event: ws.EventError, Code: string(response.ErrInvalidPayload), Error: "unknown action: " + string(msg.Action)}) {
				return
			}
			continue
		}

		if err != nil {
			_, code := classify(err)
			if code == response.ErrInternal {
				log.Error().Err(err).Str("action", string(msg.Action)).Msg("Action failed")
			}
			if !send(ws.ErrorResponse{Event: ws.EventError, Code: string(code), Error: response.GetMessage(code)}) {
				return
			}
		}
	}
}
