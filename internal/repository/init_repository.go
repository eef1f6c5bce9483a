package repository

import (
	"TaskChatAPI/internal/adapter"
	"TaskChatAPI/internal/config"
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB

	Conversation *ConversationRepository
	Message      *MessageRepository
	Session      *SessionRepository
	RateLimit    *RateLimitRepository
}

// NewRepository wires the stores. Session and RateLimit stay nil when Redis
// is disabled; their consumers treat nil as "feature off".
func NewRepository(db *gorm.DB, redisAdapter *adapter.RedisAdapter, cfg *config.AppConfig) *Repository {
	repo := &Repository{
		db:           db,
		Conversation: NewConversationRepository(db),
		Message:      NewMessageRepository(db),
	}

	if redisAdapter != nil {
		repo.Session = NewSessionRepository(redisAdapter, cfg)
		repo.RateLimit = NewRateLimitRepository(redisAdapter)
	}

	return repo
}

// Transaction runs fn with SQL stores bound to one transaction. The Redis
// backed stores are shared as-is.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{
			db:           tx,
			Conversation: r.Conversation.WithTx(tx),
			Message:      r.Message.WithTx(tx),
			Session:      r.Session,
			RateLimit:    r.RateLimit,
		})
	})
}
