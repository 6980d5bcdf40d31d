package main

import (
	"flag"

	"github.com/pageza/pantrycoach/backend/config"
	"github.com/pageza/pantrycoach/backend/internal/database"
	"github.com/pageza/pantrycoach/backend/internal/logging"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "List the tables that would be migrated and exit")
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

	for _, model := range database.Models() {
		stmt := db.Model(model).Statement
		if err := stmt.Parse(model); err != nil {
			logging.Fatal("Failed to parse model", err)
		}
		logging.Infow("Migrating table", "table", stmt.Schema.Table, "dry_run", *dryRun)
	}
	if *dryRun {
		return
	}

	if err := database.RunMigrations(db); err != nil {
		logging.Fatal("Migration failed", err)
	}
	logging.Infow("Migrations complete")
}
