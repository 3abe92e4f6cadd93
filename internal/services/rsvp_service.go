package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/soiree-app/soiree/internal/models"
	apperrors "github.com/soiree-app/soiree/pkg/errors"
)

// RsvpInput carries a submission from the public invitation form.
type RsvpInput struct {
	Name      string
	Email     string
	Attending string
	Message   string
}

// RsvpService persists and queries invitation responses.
type RsvpService struct {
	db *gorm.DB
}

// NewRsvpService builds the service.
func NewRsvpService(db *gorm.DB) (*RsvpService, error) {
	if db == nil {
		return nil, errors.New("rsvp service requires a database handle")
	}
	return &RsvpService{db: db}, nil
}

// Create stores a new RSVP after trimming and validating the submission.
func (s *RsvpService) Create(ctx context.Context, input RsvpInput) (*models.Rsvp, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	attending := strings.ToLower(strings.TrimSpace(input.Attending))

	if name == "" || email == "" || attending == "" {
		return nil, apperrors.NewBadRequest("name, email, and attending are required")
	}

	switch attending {
	case models.AttendingYes, models.AttendingNo, models.AttendingMaybe:
	default:
		return nil, apperrors.NewBadRequest("attending must be yes, no, or maybe")
	}

	rsvp := models.Rsvp{
		Name:      name,
		Email:     email,
		Attending: attending,
		Message:   strings.TrimSpace(input.Message),
	}
	if err := s.db.WithContext(ctx).Create(&rsvp).Error; err != nil {
		return nil, apperrors.Wrap(err, "failed to save RSVP")
	}
	return &rsvp, nil
}

// List returns all RSVPs in submission order.
func (s *RsvpService) List(ctx context.Context) ([]models.Rsvp, error) {
	var rows []models.Rsvp
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(err, "failed to list RSVPs")
	}
	return rows, nil
}

// HasAttendingRSVP reports whether the email belongs to a guest who answered
// yes. The lookup is case-insensitive; this gates the gallery OTP flow.
func (s *RsvpService) HasAttendingRSVP(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Rsvp{}).
		Where("LOWER(email) = ? AND LOWER(attending) = ?", email, models.AttendingYes).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
