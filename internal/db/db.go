package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"go-compass/internal/config"
	"go-compass/internal/evolution"
	"go-compass/internal/telemetry"
)

var DB *gorm.DB

// Init opens the durable store and migrates all models. Postgres is used
// when a DSN is configured; otherwise a local sqlite file, which is enough
// for single-node deployments and keeps state across restarts.
func Init(cfg *config.Config) error {
	var (
		db  *gorm.DB
		err error
	)
	if cfg.Postgres.DSN != "" {
		db, err = gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.SQLite.Path), &gorm.Config{})
	}
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	log.Printf("Database connected and migrated")
	return nil
}

// Migrate runs auto-migration for every owned model. Exposed so tests can
// migrate an in-memory sqlite instance.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&telemetry.DecisionRecord{}, &telemetry.OutcomeRecord{}); err != nil {
		return err
	}
	return db.AutoMigrate(&evolution.Recommendation{}, &evolution.DailySummary{})
}
