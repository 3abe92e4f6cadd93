package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soiree-app/soiree/internal/models"
	"github.com/soiree-app/soiree/pkg/crypto"
	apperrors "github.com/soiree-app/soiree/pkg/errors"
)

const maxAlbumNameLength = 100

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// AlbumService manages gallery albums and their guest shares.
type AlbumService struct {
	db *gorm.DB
}

// NewAlbumService builds the service.
func NewAlbumService(db *gorm.DB) (*AlbumService, error) {
	if db == nil {
		return nil, errors.New("album service requires a database handle")
	}
	return &AlbumService{db: db}, nil
}

// AlbumSummary is an album together with how many guests it is shared with.
type AlbumSummary struct {
	models.Album
	ShareCount int64 `json:"share_count"`
}

// Create stores a new album with a unique slug derived from its name.
func (s *AlbumService) Create(ctx context.Context, name string) (*models.Album, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewBadRequest("album name is required")
	}
	if len(name) > maxAlbumNameLength {
		return nil, apperrors.NewBadRequest("album name too long")
	}

	slug, err := makeSlug(name)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create album")
	}

	album := models.Album{Name: name, Slug: slug}
	if err := s.db.WithContext(ctx).Create(&album).Error; err != nil {
		return nil, apperrors.Wrap(err, "failed to create album")
	}
	return &album, nil
}

// List returns all albums oldest-first with their share counts.
func (s *AlbumService) List(ctx context.Context) ([]AlbumSummary, error) {
	var albums []models.Album
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&albums).Error; err != nil {
		return nil, apperrors.Wrap(err, "failed to list albums")
	}

	summaries := make([]AlbumSummary, 0, len(albums))
	for _, album := range albums {
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&models.AlbumShare{}).
			Where("album_id = ?", album.ID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(err, "failed to count album shares")
		}
		summaries = append(summaries, AlbumSummary{Album: album, ShareCount: count})
	}
	return summaries, nil
}

// ListForEmail returns the albums shared with a guest email, oldest-first.
func (s *AlbumService) ListForEmail(ctx context.Context, email string) ([]models.Album, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var albums []models.Album
	err := s.db.WithContext(ctx).
		Joins("JOIN album_shares ON album_shares.album_id = albums.id").
		Where("album_shares.email = ?", email).
		Order("albums.created_at asc").
		Find(&albums).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list shared albums")
	}
	return albums, nil
}

// Get fetches one album by ID.
func (s *AlbumService) Get(ctx context.Context, albumID string) (*models.Album, error) {
	var album models.Album
	err := s.db.WithContext(ctx).Take(&album, "id = ?", albumID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load album")
	}
	return &album, nil
}

// Rename updates an album's display name; the slug is stable.
func (s *AlbumService) Rename(ctx context.Context, albumID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.NewBadRequest("album name is required")
	}

	res := s.db.WithContext(ctx).
		Model(&models.Album{}).
		Where("id = ?", albumID).
		Update("name", name)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "failed to rename album")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes the album record; shares go with it via the FK cascade.
// Stored photos are the caller's responsibility (they live outside the DB).
func (s *AlbumService) Delete(ctx context.Context, albumID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", albumID).Delete(&models.AlbumShare{}).Error; err != nil {
			return apperrors.Wrap(err, "failed to delete album shares")
		}

		res := tx.Where("id = ?", albumID).Delete(&models.Album{})
		if res.Error != nil {
			return apperrors.Wrap(res.Error, "failed to delete album")
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// Share grants a set of guest emails access to an album. Duplicates are
// ignored so re-sharing is idempotent.
func (s *AlbumService) Share(ctx context.Context, albumID string, emails []string) error {
	normalized := make([]models.AlbumShare, 0, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		normalized = append(normalized, models.AlbumShare{AlbumID: albumID, Email: email})
	}
	if len(normalized) == 0 {
		return apperrors.NewBadRequest("at least one email is required")
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&normalized).Error
	if err != nil {
		return apperrors.Wrap(err, "failed to share album")
	}
	return nil
}

// Revoke removes one guest email's access to an album.
func (s *AlbumService) Revoke(ctx context.Context, albumID, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	err := s.db.WithContext(ctx).
		Where("album_id = ? AND email = ?", albumID, email).
		Delete(&models.AlbumShare{}).Error
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke share")
	}
	return nil
}

// ListShares returns the shares for an album in grant order.
func (s *AlbumService) ListShares(ctx context.Context, albumID string) ([]models.AlbumShare, error) {
	var shares []models.AlbumShare
	err := s.db.WithContext(ctx).
		Where("album_id = ?", albumID).
		Order("granted_at asc").
		Find(&shares).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list shares")
	}
	return shares, nil
}

// CanAccess reports whether a guest email has been granted the album.
func (s *AlbumService) CanAccess(ctx context.Context, albumID, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.AlbumShare{}).
		Where("album_id = ? AND email = ?", albumID, email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// makeSlug lower-cases and sanitises the album name and appends a short random
// suffix so renames cannot collide with existing storage prefixes.
func makeSlug(name string) (string, error) {
	base := strings.ToLower(name)
	base = slugCleaner.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if len(base) > 40 {
		base = base[:40]
		base = strings.Trim(base, "-")
	}

	suffix, err := crypto.GenerateToken(4)
	if err != nil {
		return "", err
	}
	suffix = strings.ToLower(suffix)

	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}
