package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/testdb"
)

type memoryObjectStore struct {
	objects   map[string][]byte
	expiry    time.Duration
	failWrite bool
}

func (m *memoryObjectStore) PutObject(_ context.Context, key, contentType string, body []byte) error {
	if m.failWrite {
		return errors.New("bucket unavailable")
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = body
	return nil
}

func (m *memoryObjectStore) GeneratePresignedURL(_ context.Context, key string, expiration time.Duration) (string, error) {
	m.expiry = expiration
	return "https://bucket.example/" + key + "?signed", nil
}

func TestTranscriptExport(t *testing.T) {
	db := testdb.NewSQLite(t)
	ctx := testContext()
	user := newUser(t, db, "user@example.com")
	conversations := NewConversationService(db)
	store := &memoryObjectStore{}
	archiver := NewTranscriptArchiver(conversations, store)

	conv, err := conversations.CreateConversation(ctx, user.ID, "Meal plan", "hi")
	require.NoError(t, err)
	for _, m := range []struct{ role, content string }{{models.RoleUser, "hi"}, {models.RoleAssistant, "hello"}} {
		require.NoError(t, conversations.AppendMessage(ctx, &models.ConversationMessage{
			UserID: user.ID, ConversationID: conv.ID, Role: m.role, Content: m.content,
		}))
	}

	url, err := archiver.Export(ctx, user.ID, conv.ID)
	require.NoError(t, err)
	key := TranscriptKey(user.ID, conv.ID)
	assert.Equal(t, "https://bucket.example/"+key+"?signed", url)
	assert.Equal(t, 15*time.Minute, store.expiry)

	var doc transcript
	require.NoError(t, json.Unmarshal(store.objects[key], &doc))
	assert.Equal(t, "Meal plan", doc.Title)
	require.Len(t, doc.Messages, 2)
	assert.Equal(t, "hi", doc.Messages[0].Content)
	assert.Equal(t, "hello", doc.Messages[1].Content)
}

func TestTranscriptExportScoping(t *testing.T) {
	db := testdb.NewSQLite(t)
	ctx := testContext()
	user := newUser(t, db, "user@example.com")
	conversations := NewConversationService(db)
	conv, err := conversations.CreateConversation(ctx, user.ID, "Mine", "hi")
	require.NoError(t, err)

	store := &memoryObjectStore{}
	archiver := NewTranscriptArchiver(conversations, store)
	_, err = archiver.Export(ctx, uuid.New(), conv.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, store.objects)

	store.failWrite = true
	_, err = archiver.Export(ctx, user.ID, conv.ID)
	assert.Error(t, err)
}
