package job

import (
	"TaskChatAPI/internal/config"
	"TaskChatAPI/internal/repository"
	"context"
	"log/slog"
	"time"
)

// RunConversationIdle flags conversations with no activity for
// CONVERSATION_IDLE_DAYS as inactive. Nothing is deleted; a new message or a
// find-or-create brings them back.
func RunConversationIdle(ctx context.Context, repo *repository.ConversationRepository, cfg *config.AppConfig) (int64, error) {
	if cfg.ConversationIdleDays <= 0 {
		slog.Info("Conversation idle deactivation disabled")
		return 0, nil
	}

	idleFor := time.Duration(cfg.ConversationIdleDays * float64(24*time.Hour))
	cutoff := time.Now().UTC().Add(-idleFor)

	affected, err := repo.DeactivateIdle(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to deactivate idle conversations", "error", err)
		return 0, err
	}

	slog.Info("Deactivated idle conversations", "count", affected, "cutoff", cutoff)
	return affected, nil
}
