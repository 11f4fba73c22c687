package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mbuy/stores/internal/onboarding"
	"github.com/mbuy/stores/internal/server/middleware"
	redisstore "github.com/mbuy/stores/internal/store/redis"
)

const maxMessageBytes = 4 << 10

// ChatService is the part of the onboarding service the chat socket drives.
type ChatService interface {
	PostMessage(ctx context.Context, id uuid.UUID, text string) (*onboarding.View, error)
	Reply(ctx context.Context, id uuid.UUID) (*onboarding.View, error)
}

// Hub manages onboarding chat WebSocket connections backed by a pub/sub broker.
type Hub struct {
	broker Broker
	chat   ChatService
	now    func() time.Time
}

// NewHub creates a new WebSocket hub.
func NewHub(broker Broker, chat ChatService) *Hub {
	return &Hub{broker: broker, chat: chat, now: time.Now}
}

// ServeChat handles the Step 5 chat socket. Text frames from the client are
// chat messages; every session update is pushed back as a ChatEvent.
// Subscribes to the session's chat channel so all tabs of one session stay
// in sync.
func (h *Hub) ServeChat(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing onboarding session", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxMessageBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	messages, cleanup, err := h.broker.Subscribe(ctx, redisstore.ChatChannel(sessionID))
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	go func() {
		defer cancel()
		for {
			typ, data, readErr := conn.Read(ctx)
			if readErr != nil {
				log.Debug().Err(readErr).Msg("websocket read")
				return
			}
			if typ != websocket.MessageText {
				continue
			}
			h.handleMessage(ctx, sessionID, string(data))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

// handleMessage posts the user's message, shows the typing indicator, then
// publishes the assistant's reply.
func (h *Hub) handleMessage(ctx context.Context, sessionID uuid.UUID, text string) {
	view, err := h.chat.PostMessage(ctx, sessionID, text)
	if err != nil {
		h.publishError(ctx, sessionID, err)
		return
	}
	h.publish(ctx, ChatEvent{Type: EventView, SessionID: sessionID, View: view})
	h.publish(ctx, ChatEvent{Type: EventTyping, SessionID: sessionID})

	view, err = h.chat.Reply(ctx, sessionID)
	if err != nil {
		h.publishError(ctx, sessionID, err)
		return
	}
	h.publish(ctx, ChatEvent{Type: EventView, SessionID: sessionID, View: view})
}

func (h *Hub) publishError(ctx context.Context, sessionID uuid.UUID, err error) {
	log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("onboarding: chat message failed")
	h.publish(ctx, ChatEvent{Type: EventError, SessionID: sessionID, Error: chatErrorMessage(err)})
}

func (h *Hub) publish(ctx context.Context, ev ChatEvent) {
	if err := h.Publish(ctx, ev); err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("websocket publish")
	}
}

// Publish sends a chat event to every socket of its session.
func (h *Hub) Publish(ctx context.Context, ev ChatEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = h.now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("ws.Hub.Publish: marshal: %w", err)
	}
	if err := h.broker.Publish(ctx, redisstore.ChatChannel(ev.SessionID), payload); err != nil {
		return fmt.Errorf("ws.Hub.Publish: %w", err)
	}
	return nil
}

// PublishView pushes an updated wizard view to the session's sockets.
func (h *Hub) PublishView(ctx context.Context, sessionID uuid.UUID, view *onboarding.View) error {
	return h.Publish(ctx, ChatEvent{Type: EventView, SessionID: sessionID, View: view})
}

func chatErrorMessage(err error) string {
	var ve *onboarding.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return "تعذر إرسال الرسالة"
}
