package websocket

import (
	"TaskChatAPI/internal/config"
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const sendBufferSize = 256

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string

	router  *Router
	limiter *config.RateLimiter
	cfg     *config.AppConfig

	// guarded by Hub.mu
	removed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, router *Router, limiter *config.RateLimiter, cfg *config.AppConfig) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, sendBufferSize),
		UserID:  userID,
		router:  router,
		limiter: limiter,
		cfg:     cfg,
	}
}

func (c *Client) ReadPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.cfg.WSMaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.cfg.WSPongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.cfg.WSPongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				slog.Warn("Websocket closed unexpectedly", "error", err, "userID", c.UserID)
			}
			return
		}

		if !c.limiter.Allow(c.UserID) {
			slog.Debug("Dropping event over rate limit", "userID", c.UserID)
			continue
		}

		c.router.Dispatch(ctx, c, data)
	}
}

func (c *Client) WritePump() {
	pingPeriod := (c.cfg.WSPongWait * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WSWriteWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("Failed to write websocket message", "error", err, "userID", c.UserID)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WSWriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
