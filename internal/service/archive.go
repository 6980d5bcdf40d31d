package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const transcriptURLLifetime = 15 * time.Minute

// ObjectStore is the subset of object storage the archiver needs
type ObjectStore interface {
	PutObject(ctx context.Context, objectKey, contentType string, body []byte) error
	GeneratePresignedURL(ctx context.Context, objectKey string, expiration time.Duration) (string, error)
}

type transcriptMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type transcript struct {
	ConversationID uuid.UUID           `json:"conversationId"`
	Title          string              `json:"title"`
	ExportedAt     time.Time           `json:"exportedAt"`
	Messages       []transcriptMessage `json:"messages"`
}

// TranscriptArchiver writes conversation transcripts to object storage
type TranscriptArchiver struct {
	conversations IConversationService
	store         ObjectStore
	now           func() time.Time
}

// Ensure TranscriptArchiver implements ITranscriptArchiver
var _ ITranscriptArchiver = (*TranscriptArchiver)(nil)

// NewTranscriptArchiver creates a new TranscriptArchiver
func NewTranscriptArchiver(conversations IConversationService, store ObjectStore) *TranscriptArchiver {
	return &TranscriptArchiver{conversations: conversations, store: store, now: time.Now}
}

// TranscriptKey is the object key a conversation is exported under
func TranscriptKey(userID, conversationID uuid.UUID) string {
	return fmt.Sprintf("transcripts/%s/%s.json", userID, conversationID)
}

// Export uploads the ordered transcript and returns a short-lived download URL.
// It returns ErrNotFound for conversations the user does not own.
func (a *TranscriptArchiver) Export(ctx context.Context, userID, conversationID uuid.UUID) (string, error) {
	conversation, err := a.conversations.FindConversation(ctx, userID, conversationID)
	if err != nil {
		return "", err
	}
	messages, err := a.conversations.ListMessages(ctx, userID, conversationID)
	if err != nil {
		return "", err
	}

	doc := transcript{
		ConversationID: conversation.ID,
		Title:          conversation.Title,
		ExportedAt:     a.now().UTC(),
		Messages:       make([]transcriptMessage, len(messages)),
	}
	for i, m := range messages {
		doc.Messages[i] = transcriptMessage{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode transcript: %w", err)
	}

	key := TranscriptKey(userID, conversationID)
	if err := a.store.PutObject(ctx, key, "application/json", body); err != nil {
		return "", fmt.Errorf("failed to upload transcript: %w", err)
	}

	url, err := a.store.GeneratePresignedURL(ctx, key, transcriptURLLifetime)
	if err != nil {
		return "", fmt.Errorf("failed to sign transcript url: %w", err)
	}
	return url, nil
}
