package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation mirrors its newest message in LastMessage and UpdatedAt so
// lists render without a join. UpdatedAt is maintained by the store, never
// by gorm.
type Conversation struct {
	ID          uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID      uuid.UUID `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	LastMessage string    `gorm:"type:text" json:"last_message"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false;index" json:"updated_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ConversationMessage is one entry of a conversation transcript. Messages are
// ordered by CreatedAt.
type ConversationMessage struct {
	ID             uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID         uuid.UUID `gorm:"type:varchar(36);not null;index" json:"user_id"`
	ConversationID uuid.UUID `gorm:"type:varchar(36);not null;index:idx_conversation_messages_order,priority:1" json:"conversation_id"`
	Role           string    `gorm:"size:16;not null;check:role IN ('user','assistant')" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsFallback     bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime:false;index:idx_conversation_messages_order,priority:2" json:"created_at"`
}

func (m *ConversationMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
