package scheduler

import (
	"TaskChatAPI/internal/config"
	"TaskChatAPI/internal/repository"
	"TaskChatAPI/internal/scheduler/job"
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type Scheduler struct {
	cfg              *config.AppConfig
	conversationRepo *repository.ConversationRepository
	cron             *cron.Cron
}

func New(cfg *config.AppConfig, db *gorm.DB) *Scheduler {
	return &Scheduler{
		cfg:              cfg,
		conversationRepo: repository.NewConversationRepository(db),
		cron:             cron.New(),
	}
}

func (s *Scheduler) Start() {
	slog.Info("Starting Scheduler...")

	s.registerJobs()

	s.cron.Start()
	slog.Info("Scheduler started successfully")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) registerJobs() {
	_, err := s.cron.AddFunc(s.cfg.ConversationIdleCron, func() {
		slog.Info("Starting Conversation Idle Job")
		if _, err := job.RunConversationIdle(context.Background(), s.conversationRepo, s.cfg); err != nil {
			slog.Error("Conversation Idle Job failed", "error", err)
		} else {
			slog.Info("Conversation Idle Job completed")
		}
	})
	if err != nil {
		slog.Error("Failed to register Conversation Idle job", "error", err)
	} else {
		slog.Info("Registered Conversation Idle Job", "schedule", s.cfg.ConversationIdleCron)
	}
}
