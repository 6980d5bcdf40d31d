package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/models"
)

// ConversationListing is a conversation with its relative time label.
type ConversationListing struct {
	models.Conversation
	Time string
}

// ConversationService handles conversation and message persistence. Every
// query is scoped by owner.
type ConversationService struct {
	db  *gorm.DB
	now func() time.Time
}

// Ensure ConversationService implements IConversationService
var _ IConversationService = (*ConversationService)(nil)

// NewConversationService creates a new ConversationService instance
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{db: db, now: time.Now}
}

// timestamp is the store's clock, truncated to what every dialect keeps.
func (s *ConversationService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// ListConversations returns the owner's conversations, most recently updated first
func (s *ConversationService) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationListing, error) {
	var conversations []models.Conversation
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&conversations).Error; err != nil {
		return nil, err
	}

	now := s.now()
	listings := make([]ConversationListing, len(conversations))
	for i, c := range conversations {
		listings[i] = ConversationListing{Conversation: c, Time: RelativeTime(now, c.UpdatedAt)}
	}
	return listings, nil
}

// FindConversation loads a conversation owned by userID or returns ErrNotFound
func (s *ConversationService) FindConversation(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	return findOwnedConversation(s.db.WithContext(ctx), userID, conversationID)
}

// CreateConversation starts a conversation. The first message itself is
// appended separately.
func (s *ConversationService) CreateConversation(ctx context.Context, userID uuid.UUID, title, firstMessage string) (*models.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultConversationTitle
	}
	now := s.timestamp()
	conversation := &models.Conversation{
		UserID:      userID,
		Title:       title,
		LastMessage: firstMessage,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

// ListMessages returns the transcript oldest first. A missing or foreign
// conversation yields an empty list.
func (s *ConversationService) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]models.ConversationMessage, error) {
	messages := []models.ConversationMessage{}
	if err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// RecentMessages returns up to limit of the newest messages, oldest first,
// leaving out exclude.
func (s *ConversationService) RecentMessages(ctx context.Context, userID, conversationID uuid.UUID, limit int, exclude uuid.UUID) ([]models.ConversationMessage, error) {
	if limit <= 0 {
		return []models.ConversationMessage{}, nil
	}

	query := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}

	var newest []models.ConversationMessage
	if err := query.Order("created_at DESC").Limit(limit).Find(&newest).Error; err != nil {
		return nil, err
	}

	messages := make([]models.ConversationMessage, len(newest))
	for i, m := range newest {
		messages[len(newest)-1-i] = m
	}
	return messages, nil
}

// AppendMessage stores msg and updates the conversation's last message and
// updated time in one transaction. msg.UserID must own msg.ConversationID.
// CreatedAt is assigned so messages of one conversation are strictly ordered.
func (s *ConversationService) AppendMessage(ctx context.Context, msg *models.ConversationMessage) error {
	if msg.Role != models.RoleUser && msg.Role != models.RoleAssistant {
		return apperr.Invalid("role", "must be user or assistant")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locking := tx
		if tx.Dialector.Name() == "postgres" {
			locking = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		conversation, err := findOwnedConversation(locking, msg.UserID, msg.ConversationID)
		if err != nil {
			return err
		}

		createdAt := s.timestamp()
		if !createdAt.After(conversation.UpdatedAt) {
			createdAt = conversation.UpdatedAt.Add(time.Microsecond)
		}
		msg.CreatedAt = createdAt

		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ? AND user_id = ?", conversation.ID, conversation.UserID).
			UpdateColumns(map[string]interface{}{
				"last_message": msg.Content,
				"updated_at":   createdAt,
			}).Error
	})
}

// DeleteConversation removes the conversation and all of its messages
func (s *ConversationService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwnedConversation(tx, userID, conversationID); err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			Delete(&models.ConversationMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", conversationID, userID).
			Delete(&models.Conversation{}).Error
	})
}

func findOwnedConversation(db *gorm.DB, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := db.Where("id = ? AND user_id = ?", conversationID, userID).First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}
