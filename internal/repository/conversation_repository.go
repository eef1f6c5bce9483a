package repository

import (
	"TaskChatAPI/internal/entity"
	"context"
	"time"

	"gorm.io/gorm"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{
		db: db,
	}
}

func (r *ConversationRepository) WithTx(tx *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: tx}
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	var c entity.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &c, nil
}

func (r *ConversationRepository) FindByPair(ctx context.Context, userA, userB string) (*entity.Conversation, error) {
	a, b := entity.CanonicalPair(userA, userB)

	var c entity.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_a = ? AND participant_b = ?", a, b).
		Take(&c).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &c, nil
}

// Create inserts a thread for the pair with zeroed counters. A concurrent
// insert for the same pair fails on unique_participant_pair; callers detect
// that with IsUniqueViolation and re-read the winner.
func (r *ConversationRepository) Create(ctx context.Context, userA, userB string) (*entity.Conversation, error) {
	c := &entity.Conversation{
		ParticipantA: userA,
		ParticipantB: userB,
		IsActive:     true,
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ConversationRepository) Reactivate(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("id = ? AND is_active = ?", id, false).
		Update("is_active", true).Error
}

func (r *ConversationRepository) ListByParticipant(ctx context.Context, userID string, limit int) ([]entity.Conversation, error) {
	var conversations []entity.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("updated_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&conversations).Error
	return conversations, err
}

// RecordMessage refreshes the preview snapshot and bumps the receiver's
// counter with a storage-side increment, so concurrent sends never lose an
// update.
func (r *ConversationRepository) RecordMessage(ctx context.Context, c *entity.Conversation, msg *entity.Message) error {
	column := c.UnreadColumn(msg.ReceiverID)

	return r.db.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"last_message_sender_id": msg.SenderID,
			"last_message_content":   msg.Content,
			"last_message_at":        msg.CreatedAt,
			"is_active":              true,
			column:                   gorm.Expr(column+" + ?", 1),
			"updated_at":             entity.NowUTC(),
		}).Error
}

func (r *ConversationRepository) ResetUnread(ctx context.Context, c *entity.Conversation, userID string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("id = ?", c.ID).
		UpdateColumn(c.UnreadColumn(userID), 0).Error
}

func (r *ConversationRepository) DeactivateIdle(ctx context.Context, idleBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("is_active = ? AND updated_at < ?", true, idleBefore).
		UpdateColumn("is_active", false)
	return res.RowsAffected, res.Error
}
