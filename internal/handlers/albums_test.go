package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/soiree-app/soiree/internal/models"
)

func (f *fixture) createAlbum(t *testing.T, name string) models.Album {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/albums", gin.H{"name": name}, f.hostCookie(t))
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.Album `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.ID)
	require.NotEmpty(t, envelope.Data.Slug)
	return envelope.Data
}

func TestAlbumCreateAndList(t *testing.T) {
	f := newFixture(t)

	album := f.createAlbum(t, "Ceremony")
	require.Contains(t, album.Slug, "ceremony")

	w := f.do(t, http.MethodGet, "/api/albums", nil, f.hostCookie(t))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []struct {
			models.Album
			ShareCount int64 `json:"share_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.Equal(t, album.ID, envelope.Data[0].ID)
	require.Zero(t, envelope.Data[0].ShareCount)
}

func TestAlbumRename(t *testing.T) {
	f := newFixture(t)
	album := f.createAlbum(t, "Ceremony")

	w := f.do(t, http.MethodPut, "/api/albums/"+album.ID, gin.H{"name": "The Ceremony"}, f.hostCookie(t))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPut, "/api/albums/missing", gin.H{"name": "x"}, f.hostCookie(t))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlbumSharesLifecycle(t *testing.T) {
	f := newFixture(t)
	album := f.createAlbum(t, "Reception")

	w := f.do(t, http.MethodPost, "/api/albums/"+album.ID+"/shares",
		gin.H{"emails": []string{"Ada@Example.com", "grace@example.com"}}, f.hostCookie(t))
	require.Equal(t, http.StatusOK, w.Code)

	// Re-sharing is idempotent.
	w = f.do(t, http.MethodPost, "/api/albums/"+album.ID+"/shares",
		gin.H{"emails": []string{"ada@example.com"}}, f.hostCookie(t))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/albums/"+album.ID+"/shares", nil, f.hostCookie(t))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.AlbumShare `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	require.Equal(t, "ada@example.com", envelope.Data[0].Email)

	// The shared guest sees the album.
	guest := f.do(t, http.MethodGet, "/api/gallery/albums", nil, f.guestCookie(t, "ada@example.com"))
	require.Equal(t, http.StatusOK, guest.Code)
	var albums struct {
		Data []models.Album `json:"data"`
	}
	require.NoError(t, json.Unmarshal(guest.Body.Bytes(), &albums))
	require.Len(t, albums.Data, 1)

	// An unshared guest sees nothing.
	other := f.do(t, http.MethodGet, "/api/gallery/albums", nil, f.guestCookie(t, "noone@example.com"))
	require.Equal(t, http.StatusOK, other.Code)
	require.NoError(t, json.Unmarshal(other.Body.Bytes(), &albums))
	require.Empty(t, albums.Data)

	// Revoking removes access.
	w = f.do(t, http.MethodDelete, "/api/albums/"+album.ID+"/shares/ada@example.com", nil, f.hostCookie(t))
	require.Equal(t, http.StatusOK, w.Code)

	guest = f.do(t, http.MethodGet, "/api/gallery/albums", nil, f.guestCookie(t, "ada@example.com"))
	require.NoError(t, json.Unmarshal(guest.Body.Bytes(), &albums))
	require.Empty(t, albums.Data)
}

func TestAlbumShareValidation(t *testing.T) {
	f := newFixture(t)
	album := f.createAlbum(t, "Reception")

	w := f.do(t, http.MethodPost, "/api/albums/"+album.ID+"/shares", gin.H{"emails": []string{}}, f.hostCookie(t))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/albums/"+album.ID+"/shares", gin.H{"emails": []string{"not-an-email"}}, f.hostCookie(t))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/albums/missing/shares", gin.H{"emails": []string{"a@example.com"}}, f.hostCookie(t))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlbumDelete(t *testing.T) {
	f := newFixture(t)
	album := f.createAlbum(t, "Ceremony")

	w := f.do(t, http.MethodDelete, "/api/albums/"+album.ID, nil, f.hostCookie(t))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, "/api/albums/"+album.ID, nil, f.hostCookie(t))
	require.Equal(t, http.StatusNotFound, w.Code)
}
