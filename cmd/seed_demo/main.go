package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pageza/pantrycoach/backend/config"
	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/database"
	"github.com/pageza/pantrycoach/backend/internal/logging"
	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/service"
	"github.com/pageza/pantrycoach/backend/internal/vault"
)

type demoItem struct {
	name     string
	category string
	notes    string
}

type demoUser struct {
	email        string
	healthGoal   string
	fitnessLevel string
	dietary      []string
	pantry       []demoItem
}

var demoUsers = []demoUser{
	{
		email:        "john.doe@example.com",
		healthGoal:   "Lose 5kg before summer",
		fitnessLevel: "beginner",
		dietary:      []string{"vegetarian"},
		pantry: []demoItem{
			{"Greek yogurt", models.CategoryDairy, "plain, 2 tubs"},
			{"Rolled oats", models.CategoryGrain, ""},
			{"Spinach", models.CategoryVegetable, "use by Friday"},
			{"Chickpeas", models.CategoryProtein, "canned"},
		},
	},
	{
		email:        "jane.smith@example.com",
		healthGoal:   "Run a half marathon",
		fitnessLevel: "intermediate",
		dietary:      []string{"gluten free", "dairy free"},
		pantry: []demoItem{
			{"Chicken breast", models.CategoryProtein, "frozen"},
			{"Brown rice", models.CategoryGrain, ""},
			{"Sweet potato", models.CategoryVegetable, ""},
			{"Almond butter", models.CategoryOther, ""},
		},
	},
	{
		email: "bob.wilson@example.com",
	},
}

func main() {
	password := flag.String("password", "testpassword123", "Password given to every demo user")
	flag.Parse()

	// Log config failures before the configured logger exists
	if err := logging.Init("info", "json"); err != nil {
		panic(err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal("Failed to load configuration", err)
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		logging.Fatal("Failed to initialise logging", err)
	}
	defer logging.Sync()

	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal("Failed to connect to database", err)
	}
	if err := database.RunMigrations(db); err != nil {
		logging.Fatal("Failed to run migrations", err)
	}

	v, err := vault.New(cfg.EncryptionKey)
	if err != nil {
		logging.Fatal("Invalid encryption key", err)
	}

	ctx := context.Background()
	auth := service.NewAuthService(db, cfg.JWTSecret)
	profiles := service.NewProfileService(db, v)
	pantry := service.NewPantryService(db)

	for _, u := range demoUsers {
		user, _, err := auth.Register(ctx, u.email, *password)
		if apperr.IsValidation(err) {
			logging.Infow("Demo user already exists, skipping", "email", u.email)
			continue
		}
		if err != nil {
			logging.Fatal("Failed to create demo user", err)
		}

		if u.healthGoal != "" || u.fitnessLevel != "" || len(u.dietary) > 0 {
			_, err := profiles.UpsertProfile(ctx, user.ID, map[string]interface{}{
				service.FieldHealthGoal:         u.healthGoal,
				service.FieldFitnessLevel:       u.fitnessLevel,
				service.FieldDietaryPreferences: u.dietary,
			})
			if err != nil {
				logging.Fatal("Failed to create demo profile", err)
			}
		}

		for _, item := range u.pantry {
			var notes *string
			if item.notes != "" {
				notes = &item.notes
			}
			if _, err := pantry.CreateItem(ctx, user.ID, item.name, item.category, notes); err != nil {
				logging.Fatal("Failed to create demo pantry item", fmt.Errorf("%s: %w", item.name, err))
			}
		}

		logging.Infow("Created demo user", "email", u.email, "user_id", user.ID, "pantry_items", len(u.pantry))
	}
}
