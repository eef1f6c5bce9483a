package bootstrap

import (
	"TaskChatAPI/internal/adapter"
	"TaskChatAPI/internal/config"
	"TaskChatAPI/internal/controller"
	"TaskChatAPI/internal/middleware"
	"TaskChatAPI/internal/repository"
	"TaskChatAPI/internal/service"
	"TaskChatAPI/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// App exposes the long-lived pieces main has to start or stop.
type App struct {
	Hub         *websocket.Hub
	Relay       *websocket.RedisRelay
	RateLimiter *config.RateLimiter
}

// Init wires every layer onto chiMux. redisAdapter may be nil, which turns
// off token revocation, HTTP rate limiting and cross-instance fan-out.
func Init(appConfig *config.AppConfig, db *gorm.DB, redisAdapter *adapter.RedisAdapter, validator *validator.Validate, chiMux *chi.Mux) *App {
	repo := repository.NewRepository(db, redisAdapter, appConfig)

	authService := service.NewAuthService(appConfig, repo.Session)
	conversationService := service.NewConversationService(repo, appConfig, validator)
	messageService := service.NewMessageService(repo, appConfig, validator)

	hub := websocket.NewHub()
	go hub.Run()

	app := &App{
		Hub:         hub,
		RateLimiter: config.NewRateLimiter(appConfig),
	}

	if redisAdapter != nil {
		app.Relay = websocket.NewRedisRelay(redisAdapter, hub)
		hub.SetRelay(app.Relay)
	}

	router := websocket.NewRouter(hub, messageService)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(repo.RateLimit, appConfig)

	conversationController := controller.NewConversationController(conversationService)
	messageController := controller.NewMessageController(messageService)
	webSocketController := controller.NewWebSocketController(hub, router, app.RateLimiter, appConfig)

	route := NewRoute(appConfig, chiMux, authMiddleware, rateLimitMiddleware, conversationController, messageController, webSocketController)
	route.Register()

	return app
}
