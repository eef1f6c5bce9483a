package entity

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is a two-party thread. Participants are stored in canonical
// order (ParticipantA < ParticipantB) and the pair is unique, so the same two
// identities always resolve to one row regardless of who initiated contact.
type Conversation struct {
	ID           string `gorm:"type:varchar(36);primaryKey"`
	ParticipantA string `gorm:"type:varchar(128);not null;uniqueIndex:unique_participant_pair,priority:1"`
	ParticipantB string `gorm:"type:varchar(128);not null;uniqueIndex:unique_participant_pair,priority:2;index"`
	UnreadA      int    `gorm:"not null;default:0"`
	UnreadB      int    `gorm:"not null;default:0"`

	LastMessageSenderID *string    `gorm:"type:varchar(128)"`
	LastMessageContent  *string    `gorm:"type:text"`
	LastMessageAt       *time.Time

	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.ParticipantA > c.ParticipantB {
		c.ParticipantA, c.ParticipantB = c.ParticipantB, c.ParticipantA
		c.UnreadA, c.UnreadB = c.UnreadB, c.UnreadA
	}
	return nil
}

func (c *Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.ParticipantA == userID || c.ParticipantB == userID)
}

// Other returns the participant that is not userID. The caller must have
// checked membership first.
func (c *Conversation) Other(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

func (c *Conversation) UnreadFor(userID string) int {
	switch userID {
	case c.ParticipantA:
		return c.UnreadA
	case c.ParticipantB:
		return c.UnreadB
	}
	return 0
}

func (c *Conversation) UnreadCounts() map[string]int {
	return map[string]int{
		c.ParticipantA: c.UnreadA,
		c.ParticipantB: c.UnreadB,
	}
}

// UnreadColumn names the counter column owned by userID.
func (c *Conversation) UnreadColumn(userID string) string {
	if c.ParticipantA == userID {
		return "unread_a"
	}
	return "unread_b"
}

// CanonicalPair orders two identities the way they are stored.
func CanonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
