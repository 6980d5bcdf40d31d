package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Categories the assistant renders in a fixed order. Any other label is
// stored as given.
const (
	CategoryProtein   = "protein"
	CategoryVegetable = "vegetable"
	CategoryGrain     = "grain"
	CategoryDairy     = "dairy"
	CategoryOther     = "other"
)

// KnownCategories lists the labels with a fixed rendering position.
var KnownCategories = []string{CategoryProtein, CategoryVegetable, CategoryGrain, CategoryDairy, CategoryOther}

// PantryItem is a food item in a user's inventory.
type PantryItem struct {
	ID       uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID   uuid.UUID `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Category string    `gorm:"size:50;not null" json:"category"`
	Notes    *string   `gorm:"type:text" json:"notes"`
	AddedAt  time.Time `gorm:"not null;index" json:"added_at"`
}

func (p *PantryItem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.AddedAt.IsZero() {
		p.AddedAt = time.Now().UTC()
	}
	return nil
}
