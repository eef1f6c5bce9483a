package websocket

import (
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/model"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

const eventTimeout = 10 * time.Second

// MessageStore is the persistence the router needs from the message service.
type MessageStore interface {
	Authorize(ctx context.Context, conversationID, userID string) error
	AppendMessage(ctx context.Context, senderID string, req model.SendMessageRequest) (*model.MessageResponse, error)
	MarkSeen(ctx context.Context, conversationID, readerID string) (int64, error)
}

// Router dispatches client events. Live events have no acknowledgement:
// anything invalid or unauthorized is logged and dropped.
type Router struct {
	hub   *Hub
	store MessageStore
	locks *keyedMutex
}

func NewRouter(hub *Hub, store MessageStore) *Router {
	return &Router{
		hub:   hub,
		store: store,
		locks: newKeyedMutex(),
	}
}

func (r *Router) Dispatch(ctx context.Context, client *Client, data []byte) {
	var event InboundEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Debug("Ignoring malformed event", "error", err, "userID", client.UserID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	switch event.Type {
	case EventJoinConversation:
		r.handleJoin(ctx, client, event.Payload)
	case EventLeaveConversation:
		r.handleLeave(client, event.Payload)
	case EventSendMessage:
		r.handleSend(ctx, client, event.Payload)
	case EventMarkSeen:
		r.handleMarkSeen(ctx, client, event.Payload)
	case EventTypingStart:
		r.handleTyping(ctx, client, event.Payload, true)
	case EventTypingStop:
		r.handleTyping(ctx, client, event.Payload, false)
	default:
		slog.Debug("Ignoring unknown event", "type", event.Type, "userID", client.UserID)
	}
}

func decodeConversation(raw json.RawMessage) (string, bool) {
	var payload ConversationPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ConversationID == "" {
		return "", false
	}
	return payload.ConversationID, true
}

func (r *Router) handleJoin(ctx context.Context, client *Client, raw json.RawMessage) {
	conversationID, ok := decodeConversation(raw)
	if !ok {
		slog.Debug("Ignoring join without conversation id", "userID", client.UserID)
		return
	}

	if err := r.store.Authorize(ctx, conversationID, client.UserID); err != nil {
		slog.Warn("Rejected conversation join", "error", err, "conversationID", conversationID, "userID", client.UserID)
		return
	}

	r.hub.Join(client, conversationID)
	slog.Debug("Joined conversation", "conversationID", conversationID, "userID", client.UserID)
}

func (r *Router) handleLeave(client *Client, raw json.RawMessage) {
	conversationID, ok := decodeConversation(raw)
	if !ok {
		return
	}
	r.hub.Leave(client, conversationID)
}

func (r *Router) handleSend(ctx context.Context, client *Client, raw json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		slog.Debug("Ignoring malformed send_message", "error", err, "userID", client.UserID)
		return
	}

	unlock := r.locks.Lock(payload.ConversationID)
	defer unlock()

	msg, err := r.store.AppendMessage(ctx, client.UserID, model.SendMessageRequest{
		ConversationID: payload.ConversationID,
		Content:        payload.Content,
		Type:           payload.Type,
		ClientID:       payload.ClientID,
	})
	if err != nil {
		logFailure("Failed to append message", err, payload.ConversationID, client.UserID)
		return
	}

	r.hub.BroadcastToConversation(ctx, msg.ConversationID, Event{
		Type:    EventNewMessage,
		Payload: msg,
	}, "")
}

func (r *Router) handleMarkSeen(ctx context.Context, client *Client, raw json.RawMessage) {
	conversationID, ok := decodeConversation(raw)
	if !ok {
		return
	}

	unlock := r.locks.Lock(conversationID)
	defer unlock()

	affected, err := r.store.MarkSeen(ctx, conversationID, client.UserID)
	if err != nil {
		logFailure("Failed to mark conversation as seen", err, conversationID, client.UserID)
		return
	}
	slog.Debug("Marked messages as seen", "conversationID", conversationID, "userID", client.UserID, "count", affected)
}

// logFailure keeps caller mistakes at warn level and storage faults at error.
func logFailure(msg string, err error, conversationID, userID string) {
	level := slog.LevelWarn
	if helper.StatusOf(err) >= 500 {
		level = slog.LevelError
	}
	slog.Log(context.Background(), level, msg, "error", err, "conversationID", conversationID, "userID", userID)
}

// handleTyping relays presence to the room without touching storage. Only
// connections that already joined the room may announce.
func (r *Router) handleTyping(ctx context.Context, client *Client, raw json.RawMessage, isTyping bool) {
	conversationID, ok := decodeConversation(raw)
	if !ok {
		return
	}
	if !r.hub.InRoom(client, conversationID) {
		slog.Debug("Ignoring typing outside joined room", "conversationID", conversationID, "userID", client.UserID)
		return
	}

	r.hub.BroadcastToConversation(ctx, conversationID, Event{
		Type: EventTyping,
		Payload: TypingPayload{
			ConversationID: conversationID,
			UserID:         client.UserID,
			IsTyping:       isTyping,
		},
	}, client.UserID)
}

// keyedMutex serializes work per conversation id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
