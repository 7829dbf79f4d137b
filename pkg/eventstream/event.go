package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeReplyCompleted is emitted after a reply stream finished normally.
	EventTypeReplyCompleted = "farmbuddy.reply.completed"

	// EventTypeReplyFailed is emitted after a reply stream broke off.
	EventTypeReplyFailed = "farmbuddy.reply.failed"
)

// ReplyEvent is a transport-neutral event payload for one chat exchange.
type ReplyEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Session       SessionMeta `json:"session"`
	Request       RequestMeta `json:"request"`
	Stream        StreamMeta  `json:"stream"`
	Prompt        string      `json:"prompt"`
	Reply         string      `json:"reply"`
	Error         string      `json:"error,omitempty"`
}

// SessionMeta identifies the chat session the reply belongs to.
type SessionMeta struct {
	SessionID      string `json:"session_id"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	Language       string `json:"language"`
}

// RequestMeta captures request lifecycle metadata for the event.
type RequestMeta struct {
	Path        string    `json:"path"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	WithImage   bool      `json:"with_image"`
}

// StreamMeta summarizes what the decoder saw.
type StreamMeta struct {
	Snapshots       int  `json:"snapshots"`
	Lines           int  `json:"lines"`
	Malformed       int  `json:"malformed"`
	UpstreamErrors  int  `json:"upstream_errors"`
	TrailingDropped bool `json:"trailing_dropped"`
}

// NewReplyEvent stamps a new event of eventType with an id and emit time.
func NewReplyEvent(eventType string) *ReplyEvent {
	return &ReplyEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
	}
}
