package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FilesystemStore keeps photo objects under a root directory. Object paths use
// forward slashes ("album-slug/filename.jpg") regardless of platform.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates the root directory if needed.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

// Put writes an object, creating intermediate directories.
func (s *FilesystemStore) Put(_ context.Context, objectPath string, r io.Reader) (Object, error) {
	clean, err := s.resolve(objectPath)
	if err != nil {
		return Object{}, err
	}

	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return Object{}, fmt.Errorf("storage: create dir: %w", err)
	}

	f, err := os.Create(clean)
	if err != nil {
		return Object{}, fmt.Errorf("storage: create object: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(clean)
		return Object{}, fmt.Errorf("storage: write object: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return Object{}, fmt.Errorf("storage: stat object: %w", err)
	}

	return Object{
		Path:      normalize(objectPath),
		Name:      path.Base(normalize(objectPath)),
		Size:      size,
		CreatedAt: info.ModTime(),
	}, nil
}

// Open returns a reader for the object.
func (s *FilesystemStore) Open(_ context.Context, objectPath string) (io.ReadCloser, error) {
	clean, err := s.resolve(objectPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(clean)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open object: %w", err)
	}
	return f, nil
}

// Delete removes the object; deleting a missing object is not an error.
func (s *FilesystemStore) Delete(_ context.Context, objectPath string) error {
	clean, err := s.resolve(objectPath)
	if err != nil {
		return err
	}

	if err := os.Remove(clean); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete object: %w", err)
	}
	return nil
}

// List returns objects under the prefix, newest first.
func (s *FilesystemStore) List(_ context.Context, prefix string) ([]Object, error) {
	base, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}

	var objects []Object
	walkErr := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}

		objects = append(objects, Object{
			Path:      filepath.ToSlash(rel),
			Name:      d.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("storage: list objects: %w", walkErr)
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].CreatedAt.After(objects[j].CreatedAt)
	})
	return objects, nil
}

// Move relocates an object, creating the destination directory as needed.
func (s *FilesystemStore) Move(_ context.Context, oldPath, newPath string) error {
	from, err := s.resolve(oldPath)
	if err != nil {
		return err
	}
	to, err := s.resolve(newPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("storage: create dir: %w", err)
	}

	if err := os.Rename(from, to); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("storage: move object: %w", err)
	}
	return nil
}

// resolve maps an object path onto the filesystem, rejecting traversal.
func (s *FilesystemStore) resolve(objectPath string) (string, error) {
	clean := normalize(objectPath)
	if strings.HasPrefix(clean, "..") || strings.Contains(clean, "/../") {
		return "", fmt.Errorf("storage: invalid object path %q", objectPath)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func normalize(objectPath string) string {
	return path.Clean(strings.TrimPrefix(strings.TrimSpace(objectPath), "/"))
}
