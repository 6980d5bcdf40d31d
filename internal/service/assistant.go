package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/logging"
	"github.com/pageza/pantrycoach/backend/internal/models"
)

const (
	// HistoryLimit is how many earlier messages accompany a turn
	HistoryLimit = 10

	// DefaultCompletionTimeout bounds a provider call when none is configured
	DefaultCompletionTimeout = 60 * time.Second
)

// lockWaitFor is how long a turn waits behind another turn on the same
// conversation: long enough for that turn's provider call and both appends.
func lockWaitFor(completionTimeout time.Duration) time.Duration {
	return 2*completionTimeout + 10*time.Second
}

// MaxTurnDuration is the longest a turn can take on a server whose provider
// calls are bounded by completionTimeout.
func MaxTurnDuration(completionTimeout time.Duration) time.Duration {
	return lockWaitFor(completionTimeout) + completionTimeout
}

type credentialSource interface {
	GetEncryptedCredential(ctx context.Context, userID uuid.UUID) (string, error)
}

// TurnResult is the persisted assistant reply of one turn
type TurnResult struct {
	Message        *models.ConversationMessage
	ConversationID uuid.UUID
	// Created is true when the turn started a new conversation
	Created bool
	// Fallback is true when the reply was synthesised after a provider failure
	Fallback bool
}

// AssistantService runs user turns: it persists both sides of the exchange and
// grounds the provider call in the user's profile and pantry.
type AssistantService struct {
	conversations IConversationService
	credentials   credentialSource
	assembler     IContextAssembler
	vault         Cipher
	completion    CompletionClient
	locker        TurnLocker
	timeout       time.Duration
	lockWait      time.Duration
}

// Ensure AssistantService implements IAssistantService
var _ IAssistantService = (*AssistantService)(nil)

// AssistantOption configures an AssistantService
type AssistantOption func(*AssistantService)

// WithCompletionTimeout bounds each provider call
func WithCompletionTimeout(d time.Duration) AssistantOption {
	return func(s *AssistantService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTurnLocker replaces the default in-process MemoryLocker
func WithTurnLocker(l TurnLocker) AssistantOption {
	return func(s *AssistantService) {
		if l != nil {
			s.locker = l
		}
	}
}

// NewAssistantService creates a new AssistantService
func NewAssistantService(
	conversations IConversationService,
	credentials credentialSource,
	assembler IContextAssembler,
	vault Cipher,
	completion CompletionClient,
	opts ...AssistantOption,
) *AssistantService {
	s := &AssistantService{
		conversations: conversations,
		credentials:   credentials,
		assembler:     assembler,
		vault:         vault,
		completion:    completion,
		locker:        NewMemoryLocker(),
		timeout:       DefaultCompletionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lockWait = lockWaitFor(s.timeout)
	return s
}

// Turn handles one user message. Once validation passes the turn runs to
// completion even if ctx is cancelled. A provider failure is answered with a
// fallback reply rather than an error.
func (s *AssistantService) Turn(ctx context.Context, userID uuid.UUID, text string, conversationID *string) (*TurnResult, error) {
	if userID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Invalid("message", "is required")
	}

	ctx = context.WithoutCancel(ctx)

	conversation, created, err := s.resolveConversation(ctx, userID, conversationID, text)
	if err != nil {
		return nil, err
	}

	lockCtx, cancelLock := context.WithTimeout(ctx, s.lockWait)
	unlock, err := s.locker.Lock(lockCtx, conversation.ID.String())
	cancelLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock conversation: %w", err)
	}
	defer unlock()

	userMsg := &models.ConversationMessage{
		UserID:         userID,
		ConversationID: conversation.ID,
		Role:           models.RoleUser,
		Content:        text,
	}
	if err := s.conversations.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	apiKey, err := s.loadAPIKey(ctx, userID)
	if err != nil {
		// The user message is already stored, so the caller needs the id
		return nil, &apperr.ConversationError{ConversationID: conversation.ID.String(), Err: err}
	}

	system := s.assembler.Assemble(ctx, userID)

	history, err := s.conversations.RecentMessages(ctx, userID, conversation.ID, HistoryLimit, userMsg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: system})
	for _, m := range history {
		messages = append(messages, Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, Message{Role: models.RoleUser, Content: text})

	completionCtx, cancel := context.WithTimeout(ctx, s.timeout)
	reply, err := s.completion.Complete(completionCtx, apiKey, messages)
	cancel()

	fallback := false
	if err != nil {
		fallback = true
		reply = FallbackReply(text)
		logging.Warnw("Completion failed, replying with fallback",
			"conversation_id", conversation.ID,
			"user_id", userID,
			"error", err,
		)
	}

	assistantMsg := &models.ConversationMessage{
		UserID:         userID,
		ConversationID: conversation.ID,
		Role:           models.RoleAssistant,
		Content:        reply,
		IsFallback:     fallback,
	}
	if err := s.conversations.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	logging.Infow("Assistant turn completed",
		"conversation_id", conversation.ID,
		"user_id", userID,
		"history", len(history),
		"new_conversation", created,
		"fallback", fallback,
	)

	return &TurnResult{
		Message:        assistantMsg,
		ConversationID: conversation.ID,
		Created:        created,
		Fallback:       fallback,
	}, nil
}

// resolveConversation loads the requested conversation, or creates one when
// the id is blank, malformed, missing or owned by someone else.
func (s *AssistantService) resolveConversation(ctx context.Context, userID uuid.UUID, conversationID *string, text string) (*models.Conversation, bool, error) {
	if conversationID != nil {
		if id, err := uuid.Parse(strings.TrimSpace(*conversationID)); err == nil {
			conversation, err := s.conversations.FindConversation(ctx, userID, id)
			if err == nil {
				return conversation, false, nil
			}
			if !errors.Is(err, apperr.ErrNotFound) {
				return nil, false, fmt.Errorf("failed to load conversation: %w", err)
			}
		}
	}

	conversation, err := s.conversations.CreateConversation(ctx, userID, DeriveTitle(text), text)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, true, nil
}

// loadAPIKey maps every way the credential can be unusable onto ErrCredentialMissing
func (s *AssistantService) loadAPIKey(ctx context.Context, userID uuid.UUID) (string, error) {
	ciphertext, err := s.credentials.GetEncryptedCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrCredentialMissing) {
			return "", err
		}
		return "", fmt.Errorf("failed to load credential: %w", err)
	}

	apiKey, err := s.vault.Decrypt(ciphertext)
	if err != nil {
		logging.Warnw("Stored credential could not be decrypted", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: %w", apperr.ErrCredentialMissing, err)
	}
	return apiKey, nil
}
