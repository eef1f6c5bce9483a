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
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 50
)

type MessageService struct {
	repo      *repository.Repository
	cfg       *config.AppConfig
	validator *validator.Validate
}

func NewMessageService(repo *repository.Repository, cfg *config.AppConfig, validator *validator.Validate) *MessageService {
	return &MessageService{
		repo:      repo,
		cfg:       cfg,
		validator: validator,
	}
}

// AppendMessage persists one message and then refreshes the conversation's
// preview and the receiver's unread counter, all in one transaction.
// Failures are not retried.
func (s *MessageService) AppendMessage(ctx context.Context, senderID string, req model.SendMessageRequest) (*model.MessageResponse, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err, "userID", senderID)
		return nil, helper.NewBadRequestError("")
	}

	var msg *entity.Message
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		c, err := authorizeConversation(ctx, tx.Conversation, req.ConversationID, senderID)
		if err != nil {
			return err
		}

		msg = &entity.Message{
			ConversationID: c.ID,
			SenderID:       senderID,
			ReceiverID:     c.Other(senderID),
			Content:        req.Content,
			Type:           req.Type,
		}
		if err := tx.Message.Create(ctx, msg); err != nil {
			slog.Error("Failed to create message", "error", err, "conversationID", c.ID)
			return helper.NewInternalServerError("")
		}

		if err := tx.Conversation.RecordMessage(ctx, c, msg); err != nil {
			slog.Error("Failed to update conversation after message", "error", err, "conversationID", c.ID)
			return helper.NewInternalServerError("")
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	resp := helper.ToMessageResponse(msg)
	resp.ClientID = req.ClientID
	return resp, nil
}

// PageMessages returns one block of history, oldest first. Page 1 is the
// newest block.
func (s *MessageService) PageMessages(ctx context.Context, userID string, req model.GetMessagesRequest) (*model.MessagePageResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Limit == 0 {
		req.Limit = DefaultPageLimit
	}
	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err, "userID", userID)
		return nil, helper.NewBadRequestError("")
	}

	c, err := authorizeConversation(ctx, s.repo.Conversation, req.ConversationID, userID)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Message.CountByConversation(ctx, c.ID)
	if err != nil {
		slog.Error("Failed to count messages", "error", err, "conversationID", c.ID)
		return nil, helper.NewInternalServerError("")
	}

	pagination := helper.NewPagination(req.Page, req.Limit, total)

	messages := []entity.Message{}
	if req.Page <= pagination.TotalPages {
		messages, err = s.repo.Message.GetNewestFirst(ctx, c.ID, (req.Page-1)*req.Limit, req.Limit)
		if err != nil {
			slog.Error("Failed to query messages", "error", err, "conversationID", c.ID)
			return nil, helper.NewInternalServerError("")
		}
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &model.MessagePageResponse{
		Messages:   helper.ToMessageResponses(messages),
		Pagination: pagination,
	}, nil
}

// MarkSeen flips every unseen message addressed to readerID and zeroes the
// reader's counter. Repeating it is a no-op.
func (s *MessageService) MarkSeen(ctx context.Context, conversationID, readerID string) (int64, error) {
	var affected int64
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		c, err := authorizeConversation(ctx, tx.Conversation, conversationID, readerID)
		if err != nil {
			return err
		}

		affected, err = tx.Message.MarkSeen(ctx, c.ID, readerID, entity.NowUTC())
		if err != nil {
			slog.Error("Failed to mark messages as seen", "error", err, "conversationID", c.ID)
			return helper.NewInternalServerError("")
		}

		if err := tx.Conversation.ResetUnread(ctx, c, readerID); err != nil {
			slog.Error("Failed to reset unread count", "error", err, "conversationID", c.ID)
			return helper.NewInternalServerError("")
		}
		return nil
	})
	if err != nil {
		return 0, asAppError(err)
	}
	return affected, nil
}

// Authorize reports whether userID may act on the conversation.
func (s *MessageService) Authorize(ctx context.Context, conversationID, userID string) error {
	_, err := authorizeConversation(ctx, s.repo.Conversation, conversationID, userID)
	return err
}

func asAppError(err error) error {
	var appErr *helper.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	slog.Error("Transaction failed", "error", err)
	return helper.NewInternalServerError("")
}
