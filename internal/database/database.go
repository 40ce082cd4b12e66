package database

import (
	"fmt"
	"log"

	"classpoll-backend/internal/config"
	"classpoll-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	// TranslateError surfaces unique-constraint hits as gorm.ErrDuplicatedKey,
	// which the store adapters depend on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	log.Println("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Session{},
		&models.Poll{},
		&models.PollOption{},
		&models.Vote{},
	)
	if err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// At most one row may hold status='active'; concurrent creates race on
	// this index, not on application code.
	db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_polls_single_active ON polls (status) WHERE status = 'active'`)

	log.Println("database migrated")
}
