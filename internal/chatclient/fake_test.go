package chatclient

import (
	"TaskChatAPI/internal/model"
	"TaskChatAPI/internal/websocket"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type emitted struct {
	Type    websocket.EventType
	Payload interface{}
}

// fakeChannel records emits and lets tests push inbound events.
type fakeChannel struct {
	mu      sync.Mutex
	emits   []emitted
	emitErr error
	subs    []chan websocket.InboundEvent
}

func (f *fakeChannel) Emit(eventType websocket.EventType, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emitErr != nil {
		return f.emitErr
	}
	f.emits = append(f.emits, emitted{Type: eventType, Payload: payload})
	return nil
}

func (f *fakeChannel) Subscribe() (<-chan websocket.InboundEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan websocket.InboundEvent, 64)
	f.subs = append(f.subs, ch)
	return ch, func() {}
}

func (f *fakeChannel) setEmitErr(err error) {
	f.mu.Lock()
	f.emitErr = err
	f.mu.Unlock()
}

func (f *fakeChannel) push(t *testing.T, eventType websocket.EventType, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		ch <- websocket.InboundEvent{Type: eventType, Payload: data}
	}
}

func (f *fakeChannel) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
}

func (f *fakeChannel) types() []websocket.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]websocket.EventType, 0, len(f.emits))
	for _, e := range f.emits {
		out = append(out, e.Type)
	}
	return out
}

func (f *fakeChannel) count(eventType websocket.EventType) int {
	n := 0
	for _, t := range f.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

func (f *fakeChannel) lastSend() websocket.SendMessagePayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.emits) - 1; i >= 0; i-- {
		if f.emits[i].Type == websocket.EventSendMessage {
			return f.emits[i].Payload.(websocket.SendMessagePayload)
		}
	}
	return websocket.SendMessagePayload{}
}

// fakeHistory serves pages over an in-memory oldest-first slice.
type fakeHistory struct {
	mu       sync.Mutex
	messages []model.MessageResponse
	err      error
	calls    int
	gate     chan struct{}
}

func (f *fakeHistory) Page(ctx context.Context, conversationID string, page, limit int) (*model.MessagePageResponse, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	total := len(f.messages)
	end := total - (page-1)*limit
	start := end - limit
	if start < 0 {
		start = 0
	}
	var out []model.MessageResponse
	if end > 0 {
		out = append(out, f.messages[start:end]...)
	}

	totalPages := (total + limit - 1) / limit
	return &model.MessagePageResponse{
		Messages: out,
		Pagination: model.Pagination{
			Page:          page,
			Limit:         limit,
			TotalMessages: int64(total),
			TotalPages:    totalPages,
		},
	}, nil
}

func (f *fakeHistory) add(msgs ...model.MessageResponse) {
	f.mu.Lock()
	f.messages = append(f.messages, msgs...)
	f.mu.Unlock()
}

var clock = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func message(id, sender, receiver, content string, offset int) model.MessageResponse {
	return model.MessageResponse{
		ID:             id,
		ConversationID: "conv-1",
		SenderID:       sender,
		ReceiverID:     receiver,
		Content:        content,
		Type:           "text",
		CreatedAt:      clock.Add(time.Duration(offset) * time.Second),
	}
}

func contents(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Content)
	}
	return out
}
