package model

import "time"

type CreateConversationRequest struct {
	ReceiverID string `json:"receiverId" validate:"required,identity"`
}

type CreateConversationResponse struct {
	ConversationID string `json:"conversationId"`
}

type LastMessageDTO struct {
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type ConversationResponse struct {
	ID           string          `json:"id"`
	Participants []string        `json:"participants"`
	OtherUserID  string          `json:"otherUserId"`
	LastMessage  *LastMessageDTO `json:"lastMessage"`
	UnreadCount  int             `json:"unreadCount"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}
