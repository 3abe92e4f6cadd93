package database

import (
	"gorm.io/gorm"

	"github.com/soiree-app/soiree/internal/models"
)

// AutoMigrate creates or updates the schema for all application models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Rsvp{},
		&models.Album{},
		&models.AlbumShare{},
		&models.CacheEntry{},
	)
}
