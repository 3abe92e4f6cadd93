package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Album groups gallery photos. The slug doubles as the storage prefix for the
// album's objects.
type Album struct {
	ID   string `gorm:"primaryKey;type:uuid" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`

	Shares []AlbumShare `gorm:"foreignKey:AlbumID;constraint:OnDelete:CASCADE" json:"shares,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (a *Album) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AlbumShare grants a guest email access to an album. Emails are stored
// lower-cased so lookups stay case-insensitive.
type AlbumShare struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	AlbumID string `gorm:"type:uuid;not null;uniqueIndex:idx_album_email" json:"album_id"`
	Email   string `gorm:"not null;uniqueIndex:idx_album_email" json:"email"`

	GrantedAt time.Time `gorm:"autoCreateTime" json:"granted_at"`
}
