package ws

import (
	"time"

	"github.com/google/uuid"

	"github.com/mbuy/stores/internal/onboarding"
)

// Chat event types.
const (
	EventView   = "view"
	EventTyping = "typing"
	EventError  = "error"
)

// ChatEvent is one real-time update for an onboarding chat.
type ChatEvent struct {
	Type      string           `json:"type"`
	SessionID uuid.UUID        `json:"session_id"`
	View      *onboarding.View `json:"view,omitempty"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
