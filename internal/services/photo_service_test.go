package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soiree-app/soiree/internal/storage"
)

func newPhotoService(t *testing.T) *PhotoService {
	t.Helper()

	store, err := storage.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	signer, err := storage.NewURLSigner("photo-test-secret")
	require.NoError(t, err)

	svc, err := NewPhotoService(store, signer)
	require.NoError(t, err)
	return svc
}

func TestPhotoUploadAndList(t *testing.T) {
	svc := newPhotoService(t)
	ctx := context.Background()

	photo, err := svc.Upload(ctx, "ceremony-ab12", "Sunset.JPG", "image/jpeg", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(photo.Path, "ceremony-ab12/"))
	require.True(t, strings.HasSuffix(photo.Path, ".jpg"))
	require.NotEqual(t, "ceremony-ab12/Sunset.JPG", photo.Path)
	require.True(t, strings.HasPrefix(photo.URL, "/api/gallery/media/"))

	photos, err := svc.List(ctx, "ceremony-ab12")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	require.Equal(t, photo.Path, photos[0].Path)
	require.NotEmpty(t, photos[0].URL)
}

func TestPhotoUploadRejectsNonImages(t *testing.T) {
	svc := newPhotoService(t)

	_, err := svc.Upload(context.Background(), "ceremony", "notes.txt", "text/plain", strings.NewReader("x"))
	require.Error(t, err)
}

func TestPhotoUploadsNeverCollide(t *testing.T) {
	svc := newPhotoService(t)
	ctx := context.Background()

	a, err := svc.Upload(ctx, "ceremony", "same.jpg", "image/jpeg", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := svc.Upload(ctx, "ceremony", "same.jpg", "image/jpeg", strings.NewReader("b"))
	require.NoError(t, err)
	require.NotEqual(t, a.Path, b.Path)
}

func TestPhotoMoveAndDelete(t *testing.T) {
	svc := newPhotoService(t)
	ctx := context.Background()

	photo, err := svc.Upload(ctx, "ceremony", "pic.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)

	moved, err := svc.Move(ctx, photo.Path, "reception")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(moved.Path, "reception/"))
	require.Equal(t, photo.Name, moved.Name)

	photos, err := svc.List(ctx, "ceremony")
	require.NoError(t, err)
	require.Empty(t, photos)

	require.NoError(t, svc.Delete(ctx, moved.Path))
	photos, err = svc.List(ctx, "reception")
	require.NoError(t, err)
	require.Empty(t, photos)

	_, err = svc.Move(ctx, "ceremony/missing.jpg", "reception")
	require.Error(t, err)
}

func TestPhotoResolveToken(t *testing.T) {
	svc := newPhotoService(t)
	ctx := context.Background()

	photo, err := svc.Upload(ctx, "ceremony", "pic.jpg", "image/jpeg", strings.NewReader("bytes"))
	require.NoError(t, err)

	token := strings.TrimPrefix(photo.URL, "/api/gallery/media/")
	objectPath, ok := svc.ResolveToken(token)
	require.True(t, ok)
	require.Equal(t, photo.Path, objectPath)

	_, ok = svc.ResolveToken("tampered." + token)
	require.False(t, ok)
}

func TestPhotoDeleteAlbum(t *testing.T) {
	svc := newPhotoService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "ceremony", "a.jpg", "image/jpeg", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, "ceremony", "b.jpg", "image/jpeg", strings.NewReader("b"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAlbum(ctx, "ceremony"))

	photos, err := svc.List(ctx, "ceremony")
	require.NoError(t, err)
	require.Empty(t, photos)
}
