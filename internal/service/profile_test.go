package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/testdb"
	"github.com/pageza/pantrycoach/backend/internal/vault"
)

// brokenCipher accepts any key shape but cannot encrypt.
type brokenCipher struct{}

func (brokenCipher) Encrypt(string) (string, error) { return "", errors.New("entropy exhausted") }
func (brokenCipher) Decrypt(string) (string, error) { return "", errors.New("unused") }
func (brokenCipher) LooksValid(s string) bool       { return vault.LooksValid(s) }

func TestGetProfileAbsent(t *testing.T) {
	db := testdb.NewSQLite(t)
	svc := NewProfileService(db, newTestVault(t))

	profile, found, err := svc.GetProfile(testContext(), uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, profile)
}

func TestUpsertProfileCreatesAndMerges(t *testing.T) {
	db := testdb.NewSQLite(t)
	v := newTestVault(t)
	svc := NewProfileService(db, v)
	ctx := testContext()
	user := newUser(t, db, "user@example.com")

	profile, err := svc.UpsertProfile(ctx, user.ID, map[string]interface{}{
		FieldHealthGoal: "Lose 5kg",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lose 5kg", *profile.HealthGoal)
	assert.Nil(t, profile.FitnessLevel)
	assert.Nil(t, profile.DietaryPreferences)
	assert.False(t, profile.HasAPIKey)

	profile, err = svc.UpsertProfile(ctx, user.ID, map[string]interface{}{
		FieldDietaryPreferences: []interface{}{"vegan", " gluten-free ", ""},
		FieldFitnessLevel:       "beginner",
		FieldAPIKey:             testAPIKey,
		"unknown":               "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lose 5kg", *profile.HealthGoal)
	assert.Equal(t, "beginner", *profile.FitnessLevel)
	assert.Equal(t, models.StringList{"vegan", "gluten-free"}, profile.DietaryPreferences)
	assert.True(t, profile.HasAPIKey)
	require.NotNil(t, profile.EncryptedAPIKey)
	assert.NotContains(t, *profile.EncryptedAPIKey, testAPIKey)

	stored, found, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, found)
	plain, err := v.Decrypt(*stored.EncryptedAPIKey)
	require.NoError(t, err)
	assert.Equal(t, testAPIKey, plain)

	ciphertext, err := svc.GetEncryptedCredential(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, *stored.EncryptedAPIKey, ciphertext)

	profile, err = svc.UpsertProfile(ctx, user.ID, map[string]interface{}{FieldHealthGoal: nil})
	require.NoError(t, err)
	assert.Nil(t, profile.HealthGoal)
	assert.True(t, profile.HasAPIKey)
	assert.Equal(t, int64(1), countRows(t, db, &models.UserProfile{}))
}

func TestUpsertProfileRejectsScalarPreferences(t *testing.T) {
	db := testdb.NewSQLite(t)
	svc := NewProfileService(db, newTestVault(t))
	ctx := testContext()
	user := newUser(t, db, "user@example.com")

	_, err := svc.UpsertProfile(ctx, user.ID, map[string]interface{}{
		FieldHealthGoal:         "Build muscle",
		FieldDietaryPreferences: "vegan",
	})
	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, FieldDietaryPreferences, vErr.Field)
	assert.Equal(t, int64(0), countRows(t, db, &models.UserProfile{}))

	_, err = svc.UpsertProfile(ctx, user.ID, map[string]interface{}{
		FieldDietaryPreferences: []interface{}{"vegan", 3},
	})
	require.ErrorAs(t, err, &vErr)

	_, err = svc.UpsertProfile(ctx, user.ID, map[string]interface{}{FieldHealthGoal: 42})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, FieldHealthGoal, vErr.Field)
}

func TestUpsertProfileRejectsMalformedKey(t *testing.T) {
	db := testdb.NewSQLite(t)
	svc := NewProfileService(db, newTestVault(t))
	ctx := testContext()
	user := newUser(t, db, "user@example.com")

	_, err := svc.UpsertProfile(ctx, user.ID, map[string]interface{}{FieldAPIKey: "notastripekey"})
	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, FieldAPIKey, vErr.Field)

	_, found, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = svc.GetEncryptedCredential(ctx, user.ID)
	assert.ErrorIs(t, err, apperr.ErrCredentialMissing)
}

func TestUpsertProfileEncryptionFailurePersistsNothing(t *testing.T) {
	db := testdb.NewSQLite(t)
	svc := NewProfileService(db, brokenCipher{})
	ctx := testContext()
	user := newUser(t, db, "user@example.com")

	_, err := svc.UpsertProfile(ctx, user.ID, map[string]interface{}{
		FieldHealthGoal: "Run a marathon",
		FieldAPIKey:     testAPIKey,
	})
	var encErr *apperr.EncryptionError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, int64(0), countRows(t, db, &models.UserProfile{}))
}

func TestGetEncryptedCredentialWithoutKey(t *testing.T) {
	db := testdb.NewSQLite(t)
	svc := NewProfileService(db, newTestVault(t))
	ctx := testContext()
	user := newUser(t, db, "user@example.com")

	_, err := svc.GetEncryptedCredential(ctx, user.ID)
	assert.ErrorIs(t, err, apperr.ErrCredentialMissing)

	_, err = svc.UpsertProfile(ctx, user.ID, map[string]interface{}{FieldFitnessLevel: "advanced"})
	require.NoError(t, err)
	_, err = svc.GetEncryptedCredential(ctx, user.ID)
	assert.ErrorIs(t, err, apperr.ErrCredentialMissing)
}
