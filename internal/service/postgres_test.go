package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/testdb"
)

func TestPostgresStores(t *testing.T) {
	pg := testdb.SetupPostgres(t)
	ctx := testContext()
	user := newUser(t, pg.DB, "pg@example.com")

	t.Run("concurrent appends stay ordered", func(t *testing.T) {
		svc := NewConversationService(pg.DB)
		conv, err := svc.CreateConversation(ctx, user.ID, "Busy", "start")
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				msg := &models.ConversationMessage{UserID: user.ID, ConversationID: conv.ID, Role: models.RoleUser, Content: fmt.Sprintf("m%d", i)}
				assert.NoError(t, svc.AppendMessage(ctx, msg))
			}(i)
		}
		wg.Wait()

		messages, err := svc.ListMessages(ctx, user.ID, conv.ID)
		require.NoError(t, err)
		require.Len(t, messages, 8)
		for i := 1; i < len(messages); i++ {
			assert.True(t, messages[i].CreatedAt.After(messages[i-1].CreatedAt))
		}

		stored, err := svc.FindConversation(ctx, user.ID, conv.ID)
		require.NoError(t, err)
		newest := messages[len(messages)-1]
		assert.Equal(t, newest.Content, stored.LastMessage)
		assert.True(t, stored.UpdatedAt.Equal(newest.CreatedAt))
	})

	t.Run("profile preferences round trip", func(t *testing.T) {
		profiles := NewProfileService(pg.DB, newTestVault(t))
		_, err := profiles.UpsertProfile(ctx, user.ID, map[string]interface{}{
			FieldDietaryPreferences: []interface{}{"vegan", "nut free"},
			FieldAPIKey:             testAPIKey,
		})
		require.NoError(t, err)

		profile, found, err := profiles.GetProfile(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, models.StringList{"vegan", "nut free"}, profile.DietaryPreferences)
		assert.True(t, profile.HasAPIKey)
	})

	t.Run("category counts", func(t *testing.T) {
		pantry := NewPantryService(pg.DB)
		for _, c := range []string{models.CategoryDairy, models.CategoryDairy, "spices"} {
			_, err := pantry.CreateItem(ctx, user.ID, "item", c, nil)
			require.NoError(t, err)
		}

		total, byCategory, err := pantry.CountByCategory(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, map[string]int64{models.CategoryDairy: 2, "spices": 1}, byCategory)
	})
}
