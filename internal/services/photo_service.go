package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/soiree-app/soiree/internal/storage"
	"github.com/soiree-app/soiree/pkg/crypto"
	apperrors "github.com/soiree-app/soiree/pkg/errors"
)

// Photo is a stored gallery image plus a signed URL for serving it.
type Photo struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

// PhotoService manages gallery photo objects. Objects live under the album
// slug prefix; access goes through expiring signed media tokens.
type PhotoService struct {
	store  storage.Store
	signer *storage.URLSigner
	now    func() time.Time
}

// NewPhotoService builds the service.
func NewPhotoService(store storage.Store, signer *storage.URLSigner) (*PhotoService, error) {
	if store == nil {
		return nil, errors.New("photo service requires an object store")
	}
	if signer == nil {
		return nil, errors.New("photo service requires a url signer")
	}
	return &PhotoService{store: store, signer: signer, now: time.Now}, nil
}

// Upload stores an image under the album prefix with a generated object name
// so uploads with the same filename never collide.
func (s *PhotoService) Upload(ctx context.Context, albumSlug, filename, contentType string, r io.Reader) (*Photo, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, apperrors.NewBadRequest("only image uploads are accepted")
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}

	suffix, err := crypto.GenerateToken(4)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to name upload")
	}

	objectPath := fmt.Sprintf("%s/%d-%s%s", albumSlug, s.now().UnixMilli(), strings.ToLower(suffix), ext)
	obj, err := s.store.Put(ctx, objectPath, r)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to store photo")
	}
	return s.withURL(obj)
}

// List returns the album's photos, newest first, each with a signed URL.
func (s *PhotoService) List(ctx context.Context, albumSlug string) ([]Photo, error) {
	objects, err := s.store.List(ctx, albumSlug)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list photos")
	}

	photos := make([]Photo, 0, len(objects))
	for _, obj := range objects {
		photo, err := s.withURL(obj)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *photo)
	}
	return photos, nil
}

// Delete removes one photo object.
func (s *PhotoService) Delete(ctx context.Context, objectPath string) error {
	if err := s.store.Delete(ctx, objectPath); err != nil {
		return apperrors.Wrap(err, "failed to delete photo")
	}
	return nil
}

// DeleteAlbum removes every object under the album prefix.
func (s *PhotoService) DeleteAlbum(ctx context.Context, albumSlug string) error {
	objects, err := s.store.List(ctx, albumSlug)
	if err != nil {
		return apperrors.Wrap(err, "failed to list photos")
	}
	for _, obj := range objects {
		if err := s.store.Delete(ctx, obj.Path); err != nil {
			return apperrors.Wrap(err, "failed to delete photo")
		}
	}
	return nil
}

// Move relocates a photo into another album, keeping its object name.
func (s *PhotoService) Move(ctx context.Context, objectPath, targetSlug string) (*Photo, error) {
	name := path.Base(objectPath)
	newPath := targetSlug + "/" + name

	if err := s.store.Move(ctx, objectPath, newPath); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to move photo")
	}

	return s.withURL(storage.Object{Path: newPath, Name: name})
}

// Open returns a reader for a stored photo, for the signed media endpoint.
func (s *PhotoService) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	return s.store.Open(ctx, objectPath)
}

// ResolveToken validates a signed media token and returns the object path.
func (s *PhotoService) ResolveToken(token string) (string, bool) {
	return s.signer.Verify(token)
}

func (s *PhotoService) withURL(obj storage.Object) (*Photo, error) {
	token, err := s.signer.Sign(obj.Path, storage.DefaultSignedURLTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign photo url")
	}
	return &Photo{
		Path:      obj.Path,
		Name:      obj.Name,
		Size:      obj.Size,
		CreatedAt: obj.CreatedAt,
		URL:       "/api/gallery/media/" + token,
	}, nil
}
