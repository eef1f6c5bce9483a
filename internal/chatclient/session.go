// Package chatclient is the app-side half of the chat core: one live
// connection per signed-in session, a history client for the request surface,
// and a per-conversation screen controller built on both.
package chatclient

import (
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/websocket"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// EventReconnected is emitted locally to subscribers after the connection was
// re-established. Anything sent by the server in between is lost.
const EventReconnected websocket.EventType = "reconnected"

var (
	ErrUnauthorized = errors.New("chatclient: session rejected by server")
	ErrNotConnected = errors.New("chatclient: not connected")
	ErrClosed       = errors.New("chatclient: session closed")
	ErrEmptyContent = errors.New("chatclient: message content is empty")
)

const subscriberBuffer = 256

// Channel is what screens need from the live connection.
type Channel interface {
	Emit(eventType websocket.EventType, payload interface{}) error
	Subscribe() (<-chan websocket.InboundEvent, func())
}

type SessionOptions struct {
	// URL of the websocket endpoint, e.g. ws://host/ws.
	URL         string
	Dialer      *ws.Dialer
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int // 0 retries forever
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.Dialer == nil {
		o.Dialer = ws.DefaultDialer
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 500 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	return o
}

// SessionChannel multiplexes every open screen over one websocket and owns
// reconnection. A handshake rejection is terminal and never retried.
type SessionChannel struct {
	opts  SessionOptions
	token string

	mu          sync.Mutex
	conn        *ws.Conn
	connected   bool
	closed      bool
	err         error
	subscribers map[int]chan websocket.InboundEvent
	nextSubID   int

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// Dial performs the first handshake synchronously so a bad token surfaces to
// the caller as ErrUnauthorized.
func Dial(ctx context.Context, token string, opts SessionOptions) (*SessionChannel, error) {
	s := &SessionChannel{
		opts:        opts.withDefaults(),
		token:       token,
		subscribers: make(map[int]chan websocket.InboundEvent),
		done:        make(chan struct{}),
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	go s.run(conn)

	return s, nil
}

func (s *SessionChannel) dial(ctx context.Context) (*ws.Conn, error) {
	u, err := url.Parse(s.opts.URL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", s.token)
	u.RawQuery = q.Encode()

	conn, resp, err := s.opts.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return conn, nil
}

func (s *SessionChannel) run(conn *ws.Conn) {
	for {
		s.readLoop(conn)

		s.mu.Lock()
		s.connected = false
		s.conn = nil
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		next, err := s.reconnect()
		if err != nil {
			s.terminate(err)
			return
		}
		conn = next

		s.deliver(websocket.InboundEvent{Type: EventReconnected})
	}
}

func (s *SessionChannel) readLoop(conn *ws.Conn) {
	for {
		var event websocket.InboundEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				slog.Warn("Chat connection lost", "error", err)
			}
			conn.Close()
			return
		}
		s.deliver(event)
	}
}

func (s *SessionChannel) reconnect() (*ws.Conn, error) {
	for attempt := 0; s.opts.MaxAttempts == 0 || attempt < s.opts.MaxAttempts; attempt++ {
		delay := helper.BackoffDelay(attempt, s.opts.BaseDelay, s.opts.MaxDelay)
		select {
		case <-s.done:
			return nil, ErrClosed
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.MaxDelay)
		conn, err := s.dial(ctx)
		cancel()
		if errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
		if err != nil {
			slog.Debug("Reconnect attempt failed", "attempt", attempt+1, "error", err)
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return nil, ErrClosed
		}
		s.conn = conn
		s.connected = true
		s.mu.Unlock()

		slog.Info("Chat connection re-established", "attempt", attempt+1)
		return conn, nil
	}
	return nil, ErrNotConnected
}

func (s *SessionChannel) deliver(event websocket.InboundEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			slog.Warn("Dropping event for slow subscriber", "type", event.Type)
		}
	}
}

// Emit sends one event. Nothing is queued while disconnected.
func (s *SessionChannel) Emit(eventType websocket.EventType, payload interface{}) error {
	s.mu.Lock()
	if s.closed {
		err := s.err
		s.mu.Unlock()
		if err == nil {
			err = ErrClosed
		}
		return err
	}
	conn := s.conn
	connected := s.connected
	s.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteJSON(websocket.Event{Type: eventType, Payload: payload}); err != nil {
		slog.Debug("Failed to emit event", "type", eventType, "error", err)
		return ErrNotConnected
	}
	return nil
}

// Subscribe returns a stream of every inbound event. The stream is closed
// when the session ends.
func (s *SessionChannel) Subscribe() (<-chan websocket.InboundEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan websocket.InboundEvent, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}

func (s *SessionChannel) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Err reports why the session ended, or nil while it is alive.
func (s *SessionChannel) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *SessionChannel) Done() <-chan struct{} {
	return s.done
}

func (s *SessionChannel) Close() {
	s.terminate(ErrClosed)
}

func (s *SessionChannel) terminate(reason error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.err = reason
		conn := s.conn
		s.conn = nil
		s.connected = false
		for id, ch := range s.subscribers {
			delete(s.subscribers, id)
			close(ch)
		}
		s.mu.Unlock()

		close(s.done)
		if conn != nil {
			s.writeMu.Lock()
			_ = conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
			s.writeMu.Unlock()
			conn.Close()
		}

		if !errors.Is(reason, ErrClosed) {
			slog.Warn("Chat session terminated", "error", reason)
		}
	})
}

// SessionManager ties the channel's lifetime to sign-in: Login opens it and
// Logout tears it down.
type SessionManager struct {
	opts SessionOptions

	mu      sync.Mutex
	session *SessionChannel
}

func NewSessionManager(opts SessionOptions) *SessionManager {
	return &SessionManager{opts: opts}
}

func (m *SessionManager) Login(ctx context.Context, token string) (*SessionChannel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.Close()
		m.session = nil
	}

	session, err := Dial(ctx, token, m.opts)
	if err != nil {
		return nil, err
	}
	m.session = session
	return session, nil
}

func (m *SessionManager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
}

func (m *SessionManager) Session() (*SessionChannel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, m.session != nil
}
