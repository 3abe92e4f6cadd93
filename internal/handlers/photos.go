package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/soiree-app/soiree/internal/middleware"
	"github.com/soiree-app/soiree/internal/services"
	"github.com/soiree-app/soiree/internal/storage"
	apperrors "github.com/soiree-app/soiree/pkg/errors"
	"github.com/soiree-app/soiree/pkg/metrics"
	"github.com/soiree-app/soiree/pkg/response"
)

// maxUploadSize caps a single photo upload at 25 MiB.
const maxUploadSize = 25 << 20

// PhotoHandler serves photo upload, listing, and the signed media endpoint.
type PhotoHandler struct {
	albums *services.AlbumService
	photos *services.PhotoService
}

func NewPhotoHandler(albums *services.AlbumService, photos *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{albums: albums, photos: photos}
}

type movePhotoRequest struct {
	Path    string `json:"path" validate:"required"`
	AlbumID string `json:"album_id" validate:"required"`
}

// POST /api/albums/:id/photos
func (h *PhotoHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	album, err := h.albums.Get(ctx, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		metrics.PhotoUploads.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.NewBadRequest("photo file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(header.Filename))
	}

	photo, err := h.photos.Upload(ctx, album.Slug, header.Filename, contentType, file)
	if err != nil {
		metrics.PhotoUploads.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.PhotoUploads.WithLabelValues("success").Inc()
	response.Success(c, http.StatusCreated, photo)
}

// GET /api/albums/:id/photos
//
// Hosts can list any album; guests only albums shared with their email.
func (h *PhotoHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	album, err := h.albums.Get(ctx, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if email, ok := middleware.GuestEmail(c); ok {
		allowed, err := h.albums.CanAccess(ctx, album.ID, email)
		if err != nil {
			response.Error(c, apperrors.Wrap(err, "failed to check album access"))
			return
		}
		if !allowed {
			response.Error(c, apperrors.ErrForbidden)
			return
		}
	}

	photos, err := h.photos.List(ctx, album.Slug)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, photos)
}

// DELETE /api/albums/:id/photos/*path
func (h *PhotoHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	album, err := h.albums.Get(ctx, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	objectPath := strings.TrimPrefix(c.Param("path"), "/")
	if objectPath == "" || !strings.HasPrefix(objectPath, album.Slug+"/") {
		response.Error(c, apperrors.NewBadRequest("photo path must belong to the album"))
		return
	}

	if err := h.photos.Delete(ctx, objectPath); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/photos/move
func (h *PhotoHandler) Move(c *gin.Context) {
	var req movePhotoRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	target, err := h.albums.Get(ctx, req.AlbumID)
	if err != nil {
		response.Error(c, err)
		return
	}

	photo, err := h.photos.Move(ctx, req.Path, target.Slug)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, photo)
}

// GET /api/gallery/media/:token
//
// Serves a photo by signed token; the token itself is the authorisation.
func (h *PhotoHandler) Media(c *gin.Context) {
	objectPath, ok := h.photos.ResolveToken(c.Param("token"))
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	rc, err := h.photos.Open(c.Request.Context(), objectPath)
	if errors.Is(err, storage.ErrNotFound) {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "failed to open photo"))
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(objectPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=3600")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
