package websocket

import "github.com/exammaker/exammaker-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionAttach   Action = "attach"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload is the single client message shape. Only the fields the
// action needs are read: q_id and value for answer, q_id and file for attach.
// A null file on attach clears the attachment.
type RequestPayload struct {
	Action Action         `json:"action"`
	QID    int            `json:"q_id,omitempty"`
	Value  string         `json:"value,omitempty"`
	File   *model.FileRef `json:"file,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventSubmitted Event = "submitted"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateResponse carries the attempt state after a transition or tick.
type StateResponse struct {
	Event Event              `json:"event"`
	State model.SessionState `json:"state"`
}

// SubmittedResponse carries the submission record once, when the attempt ends.
type SubmittedResponse struct {
	Event  Event                  `json:"event"`
	Result model.SubmissionRecord `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
