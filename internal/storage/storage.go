package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound signals that no object exists at the requested path.
var ErrNotFound = errors.New("storage: object not found")

// Object describes a stored photo.
type Object struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Store abstracts the photo object store. The original deployment used a
// hosted bucket; this interface keeps handlers independent of the backend.
type Store interface {
	Put(ctx context.Context, path string, r io.Reader) (Object, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]Object, error)
	Move(ctx context.Context, oldPath, newPath string) error
}
