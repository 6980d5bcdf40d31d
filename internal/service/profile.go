package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/models"
)

// Keys accepted by UpsertProfile. Unknown keys are ignored.
const (
	FieldHealthGoal         = "healthGoal"
	FieldDietaryPreferences = "dietaryPreferences"
	FieldFitnessLevel       = "fitnessLevel"
	FieldAPIKey             = "apiKey"
)

// ProfileService handles user profile operations
type ProfileService struct {
	db    *gorm.DB
	vault Cipher
}

// Ensure ProfileService implements IProfileService
var _ IProfileService = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB, vault Cipher) *ProfileService {
	return &ProfileService{
		db:    db,
		vault: vault,
	}
}

// GetProfile retrieves a user's profile. A missing profile is reported with
// found=false and no error.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, bool, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &profile, true, nil
}

type profileChanges struct {
	healthGoal      *string
	setHealthGoal   bool
	dietary         models.StringList
	setDietary      bool
	fitnessLevel    *string
	setFitnessLevel bool
	ciphertext      *string
}

// UpsertProfile applies the supplied fields, creating the profile on first use.
// Every field is validated and the credential encrypted before anything is
// written.
func (s *ProfileService) UpsertProfile(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) (*models.UserProfile, error) {
	changes, err := s.parseChanges(fields)
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&profile).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if !exists {
			profile = models.UserProfile{UserID: userID}
		}

		if changes.setHealthGoal {
			profile.HealthGoal = changes.healthGoal
		}
		if changes.setDietary {
			profile.DietaryPreferences = changes.dietary
		}
		if changes.setFitnessLevel {
			profile.FitnessLevel = changes.fitnessLevel
		}
		if changes.ciphertext != nil {
			profile.EncryptedAPIKey = changes.ciphertext
		}
		profile.HasAPIKey = profile.EncryptedAPIKey != nil && *profile.EncryptedAPIKey != ""

		if exists {
			return tx.Save(&profile).Error
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *ProfileService) parseChanges(fields map[string]interface{}) (*profileChanges, error) {
	changes := &profileChanges{}

	if raw, ok := fields[FieldHealthGoal]; ok {
		value, err := optionalText(FieldHealthGoal, raw)
		if err != nil {
			return nil, err
		}
		changes.healthGoal, changes.setHealthGoal = value, true
	}

	if raw, ok := fields[FieldFitnessLevel]; ok {
		value, err := optionalText(FieldFitnessLevel, raw)
		if err != nil {
			return nil, err
		}
		changes.fitnessLevel, changes.setFitnessLevel = value, true
	}

	if raw, ok := fields[FieldDietaryPreferences]; ok {
		prefs, err := stringList(FieldDietaryPreferences, raw)
		if err != nil {
			return nil, err
		}
		changes.dietary, changes.setDietary = prefs, true
	}

	if raw, ok := fields[FieldAPIKey]; ok {
		secret, isString := raw.(string)
		if !isString || !s.vault.LooksValid(secret) {
			return nil, apperr.Invalid(FieldAPIKey, "does not look like a valid API key")
		}
		ciphertext, err := s.vault.Encrypt(secret)
		if err != nil {
			var encErr *apperr.EncryptionError
			if errors.As(err, &encErr) {
				return nil, err
			}
			return nil, &apperr.EncryptionError{Err: err}
		}
		changes.ciphertext = &ciphertext
	}

	return changes, nil
}

// GetEncryptedCredential returns the stored ciphertext or ErrCredentialMissing
func (s *ProfileService) GetEncryptedCredential(ctx context.Context, userID uuid.UUID) (string, error) {
	profile, found, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	if !found || !profile.HasAPIKey || profile.EncryptedAPIKey == nil || *profile.EncryptedAPIKey == "" {
		return "", apperr.ErrCredentialMissing
	}
	return *profile.EncryptedAPIKey, nil
}

// optionalText accepts a string or null. Blank strings clear the field.
func optionalText(field string, raw interface{}) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	text, ok := raw.(string)
	if !ok {
		return nil, apperr.Invalid(field, "must be a string")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return &text, nil
}

// stringList accepts a JSON array of strings or null. Blank entries are dropped.
func stringList(field string, raw interface{}) (models.StringList, error) {
	var items []string
	switch v := raw.(type) {
	case nil:
		return models.StringList{}, nil
	case []string:
		items = v
	case []interface{}:
		items = make([]string, 0, len(v))
		for _, entry := range v {
			text, ok := entry.(string)
			if !ok {
				return nil, apperr.Invalid(field, "must be a list of strings")
			}
			items = append(items, text)
		}
	default:
		return nil, apperr.Invalid(field, "must be a list of strings")
	}

	out := make(models.StringList, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}
