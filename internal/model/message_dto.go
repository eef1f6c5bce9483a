package model

import "time"

type SendMessageRequest struct {
	ConversationID string `json:"conversationId" validate:"required,uuid"`
	Content        string `json:"content" validate:"required,max=4000"`
	Type           string `json:"type" validate:"omitempty,max=32,alphanum"`
	ClientID       string `json:"clientId" validate:"omitempty,max=64"`
}

type GetMessagesRequest struct {
	ConversationID string `json:"conversationId" validate:"required,uuid"`
	Page           int    `json:"page" validate:"gte=1"`
	Limit          int    `json:"limit" validate:"gte=1,max=50"`
}

type MessageResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	ReceiverID     string     `json:"receiverId"`
	Content        string     `json:"content"`
	Type           string     `json:"type"`
	Seen           bool       `json:"seen"`
	SeenAt         *time.Time `json:"seenAt"`
	CreatedAt      time.Time  `json:"createdAt"`

	// Echo of the sender's correlation token; only set on live broadcasts.
	ClientID string `json:"clientId,omitempty"`
}

type Pagination struct {
	Page          int   `json:"page"`
	Limit         int   `json:"limit"`
	TotalMessages int64 `json:"totalMessages"`
	TotalPages    int   `json:"totalPages"`
}

type MessagePageResponse struct {
	Messages   []MessageResponse `json:"messages"`
	Pagination Pagination        `json:"pagination"`
}

// HasMore reports whether older pages remain.
func (p Pagination) HasMore() bool {
	return p.Page < p.TotalPages
}
