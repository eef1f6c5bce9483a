package service

import (
	"TaskChatAPI/internal/config"
	"TaskChatAPI/internal/entity"
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/model"
	"TaskChatAPI/internal/repository"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	pairRereadAttempts  = 3
	pairRereadDelay     = 20 * time.Millisecond
	conversationListMax = 100
)

type ConversationService struct {
	repo      *repository.Repository
	cfg       *config.AppConfig
	validator *validator.Validate
}

func NewConversationService(repo *repository.Repository, cfg *config.AppConfig, validator *validator.Validate) *ConversationService {
	return &ConversationService{
		repo:      repo,
		cfg:       cfg,
		validator: validator,
	}
}

func (s *ConversationService) FindOrCreate(ctx context.Context, userID string, req model.CreateConversationRequest) (*model.CreateConversationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err, "userID", userID)
		return nil, helper.NewBadRequestError("")
	}
	if !config.IsValidIdentity(userID) {
		return nil, helper.NewBadRequestError("Invalid user id")
	}
	if userID == req.ReceiverID {
		return nil, helper.NewBadRequestError("Cannot start a conversation with yourself")
	}

	existing, err := s.repo.Conversation.FindByPair(ctx, userID, req.ReceiverID)
	if err == nil {
		return s.reactivate(ctx, existing)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		slog.Error("Failed to check existing conversation", "error", err, "userID", userID)
		return nil, helper.NewInternalServerError("")
	}

	created, err := s.repo.Conversation.Create(ctx, userID, req.ReceiverID)
	if err == nil {
		slog.Info("Conversation created", "conversationID", created.ID, "userID", userID)
		return &model.CreateConversationResponse{ConversationID: created.ID}, nil
	}

	if !repository.IsUniqueViolation(err) {
		slog.Error("Failed to create conversation", "error", err, "userID", userID)
		return nil, helper.NewInternalServerError("")
	}

	winner, findErr := helper.RetryWithBackoff(func() (*entity.Conversation, bool, error) {
		c, err := s.repo.Conversation.FindByPair(ctx, userID, req.ReceiverID)
		if err != nil {
			return nil, errors.Is(err, repository.ErrNotFound), err
		}
		return c, false, nil
	}, pairRereadAttempts, pairRereadDelay)
	if findErr != nil {
		slog.Error("Failed to re-read conversation after pair conflict", "error", findErr, "userID", userID)
		return nil, helper.NewConflictError("Conversation already exists")
	}

	return s.reactivate(ctx, winner)
}

func (s *ConversationService) reactivate(ctx context.Context, c *entity.Conversation) (*model.CreateConversationResponse, error) {
	if !c.IsActive {
		if err := s.repo.Conversation.Reactivate(ctx, c.ID); err != nil {
			slog.Error("Failed to reactivate conversation", "error", err, "conversationID", c.ID)
			return nil, helper.NewInternalServerError("")
		}
	}
	return &model.CreateConversationResponse{ConversationID: c.ID}, nil
}

func (s *ConversationService) List(ctx context.Context, userID string) (*model.ConversationListResponse, error) {
	conversations, err := s.repo.Conversation.ListByParticipant(ctx, userID, conversationListMax)
	if err != nil {
		slog.Error("Failed to list conversations", "error", err, "userID", userID)
		return nil, helper.NewInternalServerError("")
	}

	resp := &model.ConversationListResponse{
		Conversations: make([]model.ConversationResponse, 0, len(conversations)),
	}
	for i := range conversations {
		resp.Conversations = append(resp.Conversations, *helper.ToConversationResponse(userID, &conversations[i]))
	}
	return resp, nil
}

// Authorize loads the conversation and checks that userID is one of its two
// participants. It always reads the persisted row.
func (s *ConversationService) Authorize(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	return authorizeConversation(ctx, s.repo.Conversation, conversationID, userID)
}

func authorizeConversation(ctx context.Context, repo *repository.ConversationRepository, conversationID, userID string) (*entity.Conversation, error) {
	if _, err := uuid.Parse(conversationID); err != nil {
		return nil, helper.NewBadRequestError("Invalid conversation id")
	}

	c, err := repo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Conversation not found")
		}
		slog.Error("Failed to load conversation", "error", err, "conversationID", conversationID)
		return nil, helper.NewInternalServerError("")
	}

	if !c.HasParticipant(userID) {
		return nil, helper.NewForbiddenError("")
	}
	return c, nil
}
