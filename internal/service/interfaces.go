package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// IPantryService defines owner-scoped pantry operations
type IPantryService interface {
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.PantryItem, error)
	CreateItem(ctx context.Context, userID uuid.UUID, name, category string, notes *string) (*models.PantryItem, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, name, category string, notes *string) (*models.PantryItem, error)
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error
	CountByCategory(ctx context.Context, userID uuid.UUID) (int64, map[string]int64, error)
}

// IProfileService defines the interface for user profile operations
type IProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, bool, error)
	UpsertProfile(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) (*models.UserProfile, error)
	GetEncryptedCredential(ctx context.Context, userID uuid.UUID) (string, error)
}

// IContextAssembler renders a user's profile and pantry into a system instruction
type IContextAssembler interface {
	Assemble(ctx context.Context, userID uuid.UUID) string
}

// IConversationService defines owner-scoped conversation and message operations
type IConversationService interface {
	ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationListing, error)
	FindConversation(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, userID uuid.UUID, title, firstMessage string) (*models.Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]models.ConversationMessage, error)
	RecentMessages(ctx context.Context, userID, conversationID uuid.UUID, limit int, exclude uuid.UUID) ([]models.ConversationMessage, error)
	AppendMessage(ctx context.Context, msg *models.ConversationMessage) error
	DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error
}

// IAssistantService runs one user turn against the assistant
type IAssistantService interface {
	Turn(ctx context.Context, userID uuid.UUID, text string, conversationID *string) (*TurnResult, error)
}

// ITranscriptArchiver exports a conversation transcript to object storage
type ITranscriptArchiver interface {
	Export(ctx context.Context, userID, conversationID uuid.UUID) (string, error)
}

// CompletionClient sends ordered chat messages to the provider and returns the
// assistant text. It never retries.
type CompletionClient interface {
	Complete(ctx context.Context, apiKey string, messages []Message) (string, error)
}

// Cipher is the credential vault as seen by services
type Cipher interface {
	Encrypt(secret string) (string, error)
	Decrypt(ciphertext string) (string, error)
	LooksValid(secret string) bool
}

// TurnLocker serialises turns against one conversation. The returned func
// releases the lock.
type TurnLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
