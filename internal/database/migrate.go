package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/pantrycoach/backend/internal/logging"
	"github.com/pageza/pantrycoach/backend/internal/models"
)

// Models lists every table the application owns, parents first
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserProfile{},
		&models.PantryItem{},
		&models.Conversation{},
		&models.ConversationMessage{},
	}
}

// RunMigrations brings the schema up to date with the models
func RunMigrations(db *gorm.DB) error {
	logging.Infow("Running auto-migration", "dialect", db.Dialector.Name())
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
