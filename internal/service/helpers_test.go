package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/testdb"
	"github.com/pageza/pantrycoach/backend/internal/vault"
)

const (
	testEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	testAPIKey        = "sk-test-0123456789abcdefghij"
)

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New(testEncryptionKey)
	require.NoError(t, err)
	return v
}

func testContext() context.Context {
	return context.Background()
}

// fakeClock hands out strictly increasing instants.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeCompletion records each call and replies with reply or err.
type fakeCompletion struct {
	mu     sync.Mutex
	reply  string
	err    error
	calls  [][]Message
	keys   []string
	onCall func(ctx context.Context)
}

func (f *fakeCompletion) Complete(ctx context.Context, apiKey string, messages []Message) (string, error) {
	if f.onCall != nil {
		f.onCall(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]Message(nil), messages...))
	f.keys = append(f.keys, apiKey)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompletion) lastCall() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func newUser(t *testing.T, db *gorm.DB, email string) *models.User {
	return testdb.CreateUser(t, db, email)
}
