package helper

import (
	"TaskChatAPI/internal/entity"
	"TaskChatAPI/internal/model"
)

func ToConversationResponse(userID string, c *entity.Conversation) *model.ConversationResponse {
	if c == nil {
		return nil
	}

	resp := &model.ConversationResponse{
		ID:           c.ID,
		Participants: c.Participants(),
		OtherUserID:  c.Other(userID),
		UnreadCount:  c.UnreadFor(userID),
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}

	if c.LastMessageSenderID != nil && c.LastMessageContent != nil && c.LastMessageAt != nil {
		resp.LastMessage = &model.LastMessageDTO{
			SenderID:  *c.LastMessageSenderID,
			Content:   *c.LastMessageContent,
			CreatedAt: *c.LastMessageAt,
		}
	}

	return resp
}
