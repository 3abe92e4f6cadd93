package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soiree-app/soiree/internal/middleware"
	"github.com/soiree-app/soiree/internal/services"
	apperrors "github.com/soiree-app/soiree/pkg/errors"
	"github.com/soiree-app/soiree/pkg/response"
)

// AlbumHandler manages gallery albums and their guest shares.
type AlbumHandler struct {
	albums *services.AlbumService
	photos *services.PhotoService
}

func NewAlbumHandler(albums *services.AlbumService, photos *services.PhotoService) *AlbumHandler {
	return &AlbumHandler{albums: albums, photos: photos}
}

type albumRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type shareRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,dive,email"`
}

// POST /api/albums
func (h *AlbumHandler) Create(c *gin.Context) {
	var req albumRequest
	if !bindAndValidate(c, &req) {
		return
	}

	album, err := h.albums.Create(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, album)
}

// GET /api/albums
func (h *AlbumHandler) List(c *gin.Context) {
	albums, err := h.albums.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, albums)
}

// GET /api/gallery/albums
//
// Returns the albums shared with the verified guest session email.
func (h *AlbumHandler) ListForGuest(c *gin.Context) {
	email, ok := middleware.GuestEmail(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	albums, err := h.albums.ListForEmail(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, albums)
}

// PUT /api/albums/:id
func (h *AlbumHandler) Rename(c *gin.Context) {
	var req albumRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.albums.Rename(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"renamed": true})
}

// DELETE /api/albums/:id
//
// Removes the stored photos first, then the record; shares cascade with it.
func (h *AlbumHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	album, err := h.albums.Get(ctx, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.photos.DeleteAlbum(ctx, album.Slug); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.albums.Delete(ctx, album.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/albums/:id/shares
func (h *AlbumHandler) ListShares(c *gin.Context) {
	shares, err := h.albums.ListShares(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, shares)
}

// POST /api/albums/:id/shares
func (h *AlbumHandler) Share(c *gin.Context) {
	var req shareRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.albums.Get(ctx, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.albums.Share(ctx, c.Param("id"), req.Emails); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"shared": true})
}

// DELETE /api/albums/:id/shares/:email
func (h *AlbumHandler) Revoke(c *gin.Context) {
	if err := h.albums.Revoke(c.Request.Context(), c.Param("id"), c.Param("email")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
