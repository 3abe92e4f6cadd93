package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attending values accepted on the public RSVP form.
const (
	AttendingYes   = "yes"
	AttendingNo    = "no"
	AttendingMaybe = "maybe"
)

// Rsvp is a single response submitted through the public invitation form.
type Rsvp struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	Email     string `gorm:"not null;index" json:"email"`
	Attending string `gorm:"not null" json:"attending"`
	Message   string `json:"message"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (r *Rsvp) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
