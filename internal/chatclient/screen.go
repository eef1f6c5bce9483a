package chatclient

import (
	"TaskChatAPI/internal/model"
	"TaskChatAPI/internal/websocket"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateLoadingMore
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateLoadingMore:
		return "loading_more"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

const (
	DefaultTypingQuiet = 2 * time.Second
	DefaultPageSize    = 20
)

// Entry is one row of the screen. Pending entries are optimistic sends that
// have not been echoed yet; their ID is a local temporary id.
type Entry struct {
	model.MessageResponse
	Pending bool
}

type ScreenOptions struct {
	ConversationID string
	SelfID         string
	PageSize       int
	TypingQuiet    time.Duration
	// OnChange, if set, is called after every state or list change.
	OnChange func()
}

// ChatScreen is the view-model of one open conversation.
type ChatScreen struct {
	channel Channel
	history History
	opts    ScreenOptions

	mu              sync.Mutex
	state           State
	entries         []Entry
	page            int
	hasMore         bool
	peerTyping      bool
	peerTypingTimer *time.Timer
	typingAnnounced bool
	typingTimer     *time.Timer
	sendErr         error
	err             error

	events      <-chan websocket.InboundEvent
	unsubscribe func()
	loopDone    chan struct{}
}

func NewChatScreen(channel Channel, history History, opts ScreenOptions) *ChatScreen {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.TypingQuiet <= 0 {
		opts.TypingQuiet = DefaultTypingQuiet
	}
	return &ChatScreen{
		channel: channel,
		history: history,
		opts:    opts,
		state:   StateLoading,
	}
}

// Open subscribes to the session, loads the newest page and enters Ready.
// Live events that arrive during the fetch are applied afterwards.
func (s *ChatScreen) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.events == nil {
		s.events, s.unsubscribe = s.channel.Subscribe()
	}
	s.state = StateLoading
	s.mu.Unlock()

	resp, err := s.history.Page(ctx, s.opts.ConversationID, 1, s.opts.PageSize)

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		if isAuthFailure(err) {
			err = fmt.Errorf("%w: %w", ErrUnauthorized, err)
			s.closeLocked(err)
		} else {
			s.state = StateFailed
			s.err = err
		}
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.mergeLocked(resp.Messages)
	s.page = 1
	s.hasMore = resp.Pagination.HasMore()
	s.err = nil
	s.enterReadyLocked()
	if s.state == StateClosed {
		err := s.err
		s.mu.Unlock()
		s.notify()
		return err
	}
	start := s.loopDone == nil
	if start {
		s.loopDone = make(chan struct{})
	}
	s.mu.Unlock()

	if start {
		go s.loop()
	}
	s.notify()
	return nil
}

// Retry re-runs the initial load after a history failure.
func (s *ChatScreen) Retry(ctx context.Context) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state != StateFailed {
		return nil
	}
	return s.Open(ctx)
}

// isAuthFailure reports a history answer that no retry can fix.
func isAuthFailure(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.Status == http.StatusUnauthorized || httpErr.Status == http.StatusForbidden
}

// enterReadyLocked joins the room and acknowledges anything unseen.
func (s *ChatScreen) enterReadyLocked() {
	s.state = StateReady
	if err := s.emitLocked(websocket.EventJoinConversation, websocket.ConversationPayload{ConversationID: s.opts.ConversationID}); err != nil {
		if s.state == StateClosed {
			return
		}
		slog.Debug("Join deferred until reconnect", "error", err, "conversationID", s.opts.ConversationID)
		return
	}
	s.markSeenLocked()
}

func (s *ChatScreen) markSeenLocked() {
	for _, e := range s.entries {
		if !e.Pending && e.ReceiverID == s.opts.SelfID && !e.Seen {
			if err := s.emitLocked(websocket.EventMarkSeen, websocket.ConversationPayload{ConversationID: s.opts.ConversationID}); err == nil {
				for i := range s.entries {
					if s.entries[i].ReceiverID == s.opts.SelfID {
						s.entries[i].Seen = true
					}
				}
			}
			return
		}
	}
}

// emitLocked sends through the channel. An auth rejection or a closed
// session is fatal to the screen.
func (s *ChatScreen) emitLocked(eventType websocket.EventType, payload interface{}) error {
	err := s.channel.Emit(eventType, payload)
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrClosed) {
		s.closeLocked(err)
	}
	return err
}

// Send appends an optimistic entry and emits it. The entry is replaced when
// the server echo arrives and removed again if the emit fails.
func (s *ChatScreen) Send(text string) error {
	content := strings.TrimSpace(text)
	if content == "" {
		return ErrEmptyContent
	}

	err := s.send(content)
	s.notify()
	return err
}

func (s *ChatScreen) send(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return ErrClosed
	}
	if s.state != StateReady && s.state != StateLoadingMore {
		return ErrNotConnected
	}

	clientID := uuid.NewString()
	s.entries = append(s.entries, Entry{
		MessageResponse: model.MessageResponse{
			ID:             "tmp-" + clientID,
			ConversationID: s.opts.ConversationID,
			SenderID:       s.opts.SelfID,
			Content:        content,
			Type:           "text",
			CreatedAt:      time.Now().UTC(),
			ClientID:       clientID,
		},
		Pending: true,
	})
	s.sendErr = nil

	s.stopTypingLocked()

	err := s.emitLocked(websocket.EventSendMessage, websocket.SendMessagePayload{
		ConversationID: s.opts.ConversationID,
		Content:        content,
		ClientID:       clientID,
	})
	if err != nil {
		s.removePendingLocked(clientID)
		s.sendErr = err
		return err
	}
	return nil
}

func (s *ChatScreen) removePendingLocked(clientID string) {
	for i, e := range s.entries {
		if e.Pending && e.ClientID == clientID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Keystroke announces typing once and (re)arms the quiet timer.
func (s *ChatScreen) Keystroke() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady && s.state != StateLoadingMore {
		return
	}

	if !s.typingAnnounced {
		if err := s.emitLocked(websocket.EventTypingStart, websocket.ConversationPayload{ConversationID: s.opts.ConversationID}); err != nil {
			return
		}
		s.typingAnnounced = true
	}

	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(s.opts.TypingQuiet, s.typingExpired)
}

func (s *ChatScreen) typingExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTypingLocked()
}

func (s *ChatScreen) stopTypingLocked() {
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	if !s.typingAnnounced {
		return
	}
	s.typingAnnounced = false
	if s.state != StateClosed {
		_ = s.channel.Emit(websocket.EventTypingStop, websocket.ConversationPayload{ConversationID: s.opts.ConversationID})
	}
}

// LoadOlder fetches the next older page and prepends it. It is a no-op when
// nothing older exists or a fetch is already in flight.
func (s *ChatScreen) LoadOlder(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady || !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	s.state = StateLoadingMore
	next := s.page + 1
	s.mu.Unlock()
	s.notify()

	resp, err := s.history.Page(ctx, s.opts.ConversationID, next, s.opts.PageSize)

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.state = StateReady
	if err != nil {
		s.mu.Unlock()
		s.notify()
		return err
	}
	s.mergeLocked(resp.Messages)
	s.page = next
	s.hasMore = resp.Pagination.HasMore()
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *ChatScreen) loop() {
	defer close(s.loopDone)

	for event := range s.events {
		s.handle(event)
	}

	s.mu.Lock()
	s.closeLocked(ErrClosed)
	s.mu.Unlock()
	s.notify()
}

func (s *ChatScreen) handle(event websocket.InboundEvent) {
	switch event.Type {
	case websocket.EventNewMessage:
		var msg model.MessageResponse
		if err := json.Unmarshal(event.Payload, &msg); err != nil || msg.ConversationID != s.opts.ConversationID {
			return
		}
		s.mu.Lock()
		s.applyMessageLocked(msg)
		s.mu.Unlock()

	case websocket.EventTyping:
		var payload websocket.TypingPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return
		}
		if payload.ConversationID != s.opts.ConversationID || payload.UserID == s.opts.SelfID {
			return
		}
		s.mu.Lock()
		s.setPeerTypingLocked(payload.IsTyping)
		s.mu.Unlock()

	case EventReconnected:
		s.resync()
		return

	default:
		return
	}
	s.notify()
}

func (s *ChatScreen) applyMessageLocked(msg model.MessageResponse) {
	if s.state == StateClosed {
		return
	}

	if i := s.findPendingLocked(msg); i >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
	s.entries = insertConfirmed(s.entries, msg)

	if msg.SenderID != s.opts.SelfID {
		s.setPeerTypingLocked(false)
		if !msg.Seen {
			s.markSeenLocked()
		}
	}
}

// setPeerTypingLocked updates the peer flag. A start arms an expiry of twice
// the quiet period so a lost stop event cannot pin the indicator.
func (s *ChatScreen) setPeerTypingLocked(typing bool) {
	if s.peerTypingTimer != nil {
		s.peerTypingTimer.Stop()
		s.peerTypingTimer = nil
	}
	s.peerTyping = typing
	if typing && s.state != StateClosed {
		var timer *time.Timer
		timer = time.AfterFunc(2*s.opts.TypingQuiet, func() {
			s.mu.Lock()
			expired := s.peerTypingTimer == timer
			if expired {
				s.peerTyping = false
				s.peerTypingTimer = nil
			}
			s.mu.Unlock()
			if expired {
				s.notify()
			}
		})
		s.peerTypingTimer = timer
	}
}

// findPendingLocked matches an echo to its optimistic entry: by client id
// when the server echoed one, otherwise the oldest pending entry with the
// same sender and content.
func (s *ChatScreen) findPendingLocked(msg model.MessageResponse) int {
	if msg.SenderID != s.opts.SelfID {
		return -1
	}
	for i, e := range s.entries {
		if !e.Pending {
			continue
		}
		if msg.ClientID != "" {
			if e.ClientID == msg.ClientID {
				return i
			}
			continue
		}
		if e.Content == msg.Content {
			return i
		}
	}
	return -1
}

// resync re-joins after a reconnect and merges the newest page, since events
// sent while disconnected were lost.
func (s *ChatScreen) resync() {
	s.mu.Lock()
	if s.state == StateClosed || s.state == StateFailed || s.state == StateLoading {
		s.mu.Unlock()
		return
	}
	s.typingAnnounced = false
	s.setPeerTypingLocked(false)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := s.history.Page(ctx, s.opts.ConversationID, 1, s.opts.PageSize)

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if err != nil {
		slog.Warn("Failed to resync conversation", "error", err, "conversationID", s.opts.ConversationID)
	} else {
		s.mergeLocked(resp.Messages)
	}
	s.enterReadyLocked()
	s.mu.Unlock()
	s.notify()
}

// Close leaves the room and detaches from the session.
func (s *ChatScreen) Close() {
	s.mu.Lock()
	if s.state != StateClosed {
		s.stopTypingLocked()
		_ = s.channel.Emit(websocket.EventLeaveConversation, websocket.ConversationPayload{ConversationID: s.opts.ConversationID})
		s.closeLocked(ErrClosed)
	}
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.notify()
}

func (s *ChatScreen) closeLocked(reason error) {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	if s.err == nil || errors.Is(reason, ErrUnauthorized) {
		s.err = reason
	}
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.typingAnnounced = false
	s.setPeerTypingLocked(false)
}

func (s *ChatScreen) notify() {
	if s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}

func (s *ChatScreen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the list, oldest first.
func (s *ChatScreen) Messages() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *ChatScreen) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

func (s *ChatScreen) PeerTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerTyping
}

func (s *ChatScreen) TypingAnnounced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typingAnnounced
}

// SendError is the last send failure, cleared by the next send.
func (s *ChatScreen) SendError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendErr
}

// Err is the history failure in StateFailed or the reason for StateClosed.
func (s *ChatScreen) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// mergeLocked folds fetched history in. History carries no client id, so a
// fetched copy of one of our own pending sends retires the oldest pending
// entry with the same content.
func (s *ChatScreen) mergeLocked(incoming []model.MessageResponse) {
	known := make(map[string]bool, len(s.entries))
	for _, e := range s.entries {
		if !e.Pending {
			known[e.ID] = true
		}
	}
	for _, msg := range incoming {
		if known[msg.ID] || msg.SenderID != s.opts.SelfID {
			continue
		}
		if i := s.findPendingLocked(msg); i >= 0 {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
		}
	}
	s.entries = mergeConfirmed(s.entries, incoming)
}

// mergeConfirmed adds incoming messages that are not on screen yet, keeps
// confirmed entries ordered by creation time and leaves pending ones at the tail.
func mergeConfirmed(entries []Entry, incoming []model.MessageResponse) []Entry {
	seen := make(map[string]bool, len(entries))
	confirmed := make([]Entry, 0, len(entries)+len(incoming))
	var pending []Entry

	for _, e := range entries {
		if e.Pending {
			pending = append(pending, e)
			continue
		}
		seen[e.ID] = true
		confirmed = append(confirmed, e)
	}
	for _, msg := range incoming {
		if seen[msg.ID] {
			continue
		}
		seen[msg.ID] = true
		confirmed = append(confirmed, Entry{MessageResponse: msg})
	}

	sort.SliceStable(confirmed, func(i, j int) bool {
		return lessMessage(confirmed[i].MessageResponse, confirmed[j].MessageResponse)
	})
	return append(confirmed, pending...)
}

func insertConfirmed(entries []Entry, msg model.MessageResponse) []Entry {
	return mergeConfirmed(entries, []model.MessageResponse{msg})
}

func lessMessage(a, b model.MessageResponse) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
