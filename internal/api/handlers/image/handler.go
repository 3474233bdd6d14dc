package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"photoflow/internal/api/respond"
	"photoflow/internal/model"
	"photoflow/internal/repository/image"
)

// service defines the interface for image-related operations.
type service interface {
	UploadImage(ctx context.Context, filename, contentType string, file io.Reader) (model.Image, error)
	GetImage(ctx context.Context, id uuid.UUID) (model.Image, io.ReadCloser, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error
}

// Handler provides HTTP handlers for image endpoints.
type Handler struct {
	service service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// Upload handles the HTTP request for uploading an image. It reads the
// multipart form, stores the file via the service and responds with the
// image record.
func (h *Handler) Upload(c *ginext.Context) {
	// Parse the multipart form with a 32MB max memory limit.
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("parse multipart form failed: %v", err))
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to retrieve the uploaded file")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to retrieve the file"))
		return
	}
	defer file.Close()

	img, err := h.service.UploadImage(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		zlog.Logger.Err(err).Str("filename", header.Filename).Msg("failed to save the image")
		respond.Err(c, err)
		return
	}

	zlog.Logger.Info().
		Str("image_id", img.ID.String()).
		Str("path", img.Path).
		Int64("size_bytes", img.SizeBytes).
		Msg("image uploaded")

	respond.Created(c, img)
}

// Get serves the stored image bytes for a given image ID.
func (h *Handler) Get(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	img, reader, err := h.service.GetImage(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, image.ErrImageNotFound) {
			respond.Fail(c, http.StatusNotFound, fmt.Errorf("image not found"))
			return
		}

		zlog.Logger.Err(err).Msg("failed to get image")
		respond.Err(c, err)
		return
	}
	defer reader.Close()

	// Disable browser caching to always fetch the latest bytes.
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")

	respond.Image(c, http.StatusOK, img.ContentType, reader)
}

// GetMeta returns the image record without serving the file itself.
func (h *Handler) GetMeta(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	img, reader, err := h.service.GetImage(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, image.ErrImageNotFound) {
			respond.Fail(c, http.StatusNotFound, fmt.Errorf("image not found"))
			return
		}

		respond.Err(c, err)
		return
	}
	reader.Close()

	respond.OK(c, img)
}

// Delete removes an image by ID.
func (h *Handler) Delete(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteImage(c.Request.Context(), id); err != nil {
		if errors.Is(err, image.ErrImageNotFound) {
			respond.Fail(c, http.StatusNotFound, fmt.Errorf("image not found"))
			return
		}

		zlog.Logger.Err(err).Msg("failed to delete the image")
		respond.Err(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseID reads and parses the :id path parameter, responding with 400 on
// failure.
func parseID(c *ginext.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	if idStr == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("missing id"))
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return uuid.Nil, false
	}

	return id, true
}
