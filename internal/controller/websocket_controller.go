package controller

import (
	"TaskChatAPI/internal/config"
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/middleware"
	"TaskChatAPI/internal/model"
	"TaskChatAPI/internal/websocket"
	"log/slog"
	"net/http"

	ws "github.com/gorilla/websocket"
)

type WebSocketController struct {
	hub         *websocket.Hub
	router      *websocket.Router
	rateLimiter *config.RateLimiter
	cfg         *config.AppConfig
	upgrader    ws.Upgrader
}

func NewWebSocketController(hub *websocket.Hub, router *websocket.Router, rateLimiter *config.RateLimiter, cfg *config.AppConfig) *WebSocketController {
	return &WebSocketController{
		hub:         hub,
		router:      router,
		rateLimiter: rateLimiter,
		cfg:         cfg,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.AppCorsAllowedOrigins),
		},
	}
}

// ServeWS godoc
// @Summary      WebSocket Connection
// @Description  Upgrade HTTP connection to WebSocket. Requires a token in the 'token' query param or a Bearer Authorization header.
// @Tags         websocket
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /ws [get]
func (c *WebSocketController) ServeWS(w http.ResponseWriter, r *http.Request) {
	userContext, ok := r.Context().Value(middleware.UserContextKey).(*model.Identity)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}

	client := websocket.NewClient(c.hub, conn, userContext.ID, c.router, c.rateLimiter, c.cfg)

	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
