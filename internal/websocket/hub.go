package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Relay forwards room broadcasts to other instances.
type Relay interface {
	Publish(ctx context.Context, conversationID string, data []byte, excludeUserID string) error
}

type Hub struct {
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool
	rooms       map[string]map[*Client]bool
	clientRooms map[*Client]map[string]bool
	Register    chan *Client
	Unregister  chan *Client

	relay Relay
	mu    sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		userClients: make(map[string]map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		clientRooms: make(map[*Client]map[string]bool),
	}
}

func (h *Hub) SetRelay(relay Relay) {
	h.mu.Lock()
	h.relay = relay
	h.mu.Unlock()
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if client.removed {
				h.mu.Unlock()
				continue
			}
			h.clients[client] = true
			if _, ok := h.userClients[client.UserID]; !ok {
				h.userClients[client.UserID] = make(map[*Client]bool)
			}
			h.userClients[client.UserID][client] = true
			h.mu.Unlock()
			slog.Debug("Client registered", "userID", client.UserID)

		case client := <-h.Unregister:
			h.remove(client)
		}
	}
}

// remove detaches the client from every room and closes its send queue. It
// is safe to call more than once.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.removed {
		return
	}
	client.removed = true
	delete(h.clients, client)
	close(client.Send)

	if userSet, ok := h.userClients[client.UserID]; ok {
		delete(userSet, client)
		if len(userSet) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	for conversationID := range h.clientRooms[client] {
		h.leaveLocked(client, conversationID)
	}
	delete(h.clientRooms, client)
}

func (h *Hub) Join(client *Client, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.removed {
		return
	}
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*Client]bool)
	}
	h.rooms[conversationID][client] = true

	if _, ok := h.clientRooms[client]; !ok {
		h.clientRooms[client] = make(map[string]bool)
	}
	h.clientRooms[client][conversationID] = true
}

func (h *Hub) Leave(client *Client, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, conversationID)
	if rooms, ok := h.clientRooms[client]; ok {
		delete(rooms, conversationID)
	}
}

func (h *Hub) leaveLocked(client *Client, conversationID string) {
	room, ok := h.rooms[conversationID]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
}

func (h *Hub) InRoom(client *Client, conversationID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[conversationID][client]
}

func (h *Hub) RoomSize(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

// BroadcastToConversation delivers the event to every local connection in the
// room, except those belonging to excludeUserID, and hands it to the relay.
func (h *Hub) BroadcastToConversation(ctx context.Context, conversationID string, event Event, excludeUserID string) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err)
		return
	}

	h.DeliverLocal(conversationID, data, excludeUserID)

	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()

	if relay != nil {
		if err := relay.Publish(ctx, conversationID, data, excludeUserID); err != nil {
			slog.Error("Failed to relay event", "error", err, "conversationID", conversationID)
		}
	}
}

// DeliverLocal writes an encoded event to the room's local connections. Slow
// consumers whose queue is full are dropped.
func (h *Hub) DeliverLocal(conversationID string, data []byte, excludeUserID string) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.rooms[conversationID] {
		if excludeUserID != "" && client.UserID == excludeUserID {
			continue
		}
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		slog.Warn("Dropping slow websocket client", "userID", client.UserID, "conversationID", conversationID)
		h.remove(client)
	}
}
