package bootstrap

import (
	"TaskChatAPI/internal/config"
	"TaskChatAPI/internal/controller"
	"TaskChatAPI/internal/middleware"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type Route struct {
	cfg                    *config.AppConfig
	chi                    *chi.Mux
	authMiddleware         *middleware.AuthMiddleware
	rateLimitMiddleware    *middleware.RateLimitMiddleware
	conversationController *controller.ConversationController
	messageController      *controller.MessageController
	webSocketController    *controller.WebSocketController
}

func NewRoute(cfg *config.AppConfig, chi *chi.Mux, authMiddleware *middleware.AuthMiddleware, rateLimitMiddleware *middleware.RateLimitMiddleware, conversationController *controller.ConversationController, messageController *controller.MessageController, webSocketController *controller.WebSocketController) *Route {
	return &Route{
		cfg:                    cfg,
		chi:                    chi,
		authMiddleware:         authMiddleware,
		rateLimitMiddleware:    rateLimitMiddleware,
		conversationController: conversationController,
		messageController:      messageController,
		webSocketController:    webSocketController,
	}
}

func (route *Route) Register() {
	route.chi.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome to TaskChatAPI"))
	})

	route.chi.Route("/conversation", func(r chi.Router) {
		r.Use(route.authMiddleware.VerifyToken)

		r.With(route.rateLimitMiddleware.Limit("conversation", route.cfg.ConversationRateLimit, time.Minute)).
			Post("/", route.conversationController.FindOrCreate)
		r.Get("/", route.conversationController.List)
		r.Get("/{id}/message", route.messageController.GetMessages)
	})

	// Keyed by client IP: the handshake runs before any identity exists.
	route.chi.With(
		route.rateLimitMiddleware.Limit("ws_handshake", route.cfg.WSHandshakeRateLimit, time.Minute),
		route.authMiddleware.VerifyWSToken,
	).Get("/ws", route.webSocketController.ServeWS)
}
