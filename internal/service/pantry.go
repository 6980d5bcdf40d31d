package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/models"
)

// PantryService handles pantry item operations. Every query is scoped by owner.
type PantryService struct {
	db *gorm.DB
}

// Ensure PantryService implements IPantryService
var _ IPantryService = (*PantryService)(nil)

// NewPantryService creates a new PantryService instance
func NewPantryService(db *gorm.DB) *PantryService {
	return &PantryService{db: db}
}

// ListItems returns the owner's items, newest added first
func (s *PantryService) ListItems(ctx context.Context, userID uuid.UUID) ([]models.PantryItem, error) {
	items := []models.PantryItem{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem adds an item to the owner's pantry
func (s *PantryService) CreateItem(ctx context.Context, userID uuid.UUID, name, category string, notes *string) (*models.PantryItem, error) {
	name, category, err := validateItem(name, category)
	if err != nil {
		return nil, err
	}

	item := &models.PantryItem{
		UserID:   userID,
		Name:     name,
		Category: category,
		Notes:    normalizeNotes(notes),
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem replaces name and category. A nil notes leaves notes unchanged and
// an empty notes clears them.
func (s *PantryService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, name, category string, notes *string) (*models.PantryItem, error) {
	name, category, err := validateItem(name, category)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":     name,
		"category": category,
	}
	if notes != nil {
		updates["notes"] = normalizeNotes(notes)
	}

	var item models.PantryItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PantryItem{}).
			Where("id = ? AND user_id = ?", itemID, userID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return tx.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an item owned by userID
func (s *PantryService) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.PantryItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type categoryCount struct {
	Category string
	Count    int64
}

// CategoryKey is the grouping key for a stored category. Categories are
// stored as given but grouped case-insensitively, so "Protein" and "protein"
// count as one.
func CategoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// CountByCategory returns the total item count and the count per category,
// keyed by CategoryKey. Categories with no items are absent from the map.
func (s *PantryService) CountByCategory(ctx context.Context, userID uuid.UUID) (int64, map[string]int64, error) {
	var rows []categoryCount
	if err := s.db.WithContext(ctx).
		Model(&models.PantryItem{}).
		Select("category, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("category").
		Scan(&rows).Error; err != nil {
		return 0, nil, err
	}

	var total int64
	byCategory := make(map[string]int64, len(rows))
	for _, row := range rows {
		byCategory[CategoryKey(row.Category)] += row.Count
		total += row.Count
	}
	return total, byCategory, nil
}

func validateItem(name, category string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", apperr.Invalid("name", "is required")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return "", "", apperr.Invalid("category", "is required")
	}
	return name, category, nil
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
