package entity

import (
	"time"

	"gorm.io/gorm"
)

const MessageTypeText = "text"

type Message struct {
	ID             string     `gorm:"type:varchar(36);primaryKey"`
	ConversationID string     `gorm:"type:varchar(36);not null;index:idx_messages_conversation_created,priority:1"`
	SenderID       string     `gorm:"type:varchar(128);not null"`
	ReceiverID     string     `gorm:"type:varchar(128);not null;index:idx_messages_receiver_seen,priority:1"`
	Content        string     `gorm:"type:text;not null"`
	Type           string     `gorm:"type:varchar(32);not null;default:text"`
	Seen           bool       `gorm:"not null;default:false;index:idx_messages_receiver_seen,priority:2"`
	SeenAt         *time.Time
	CreatedAt      time.Time `gorm:"not null;index:idx_messages_conversation_created,priority:2"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.Type == "" {
		m.Type = MessageTypeText
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = NowUTC()
	}
	return nil
}
