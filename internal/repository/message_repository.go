package repository

import (
	"TaskChatAPI/internal/entity"
	"context"
	"time"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{
		db: db,
	}
}

func (r *MessageRepository) WithTx(tx *gorm.DB) *MessageRepository {
	return &MessageRepository{db: tx}
}

func (r *MessageRepository) Create(ctx context.Context, msg *entity.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *MessageRepository) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error
	return total, err
}

// GetNewestFirst returns one block of the log ordered newest first; offset 0
// is the most recent block.
func (r *MessageRepository) GetNewestFirst(ctx context.Context, conversationID string, offset, limit int) ([]entity.Message, error) {
	var messages []entity.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// MarkSeen flips every unseen message addressed to readerID. It only ever
// moves seen from false to true.
func (r *MessageRepository) MarkSeen(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND seen = ?", conversationID, readerID, false).
		UpdateColumns(map[string]interface{}{
			"seen":    true,
			"seen_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *MessageRepository) CountUnseen(ctx context.Context, conversationID, readerID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND seen = ?", conversationID, readerID, false).
		Count(&total).Error
	return total, err
}
