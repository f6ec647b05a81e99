package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/models"
	"github.com/heritago/backend/internal/storage"
)

// fileContentType is the content type announced for every raw multimedia download.
const fileContentType = "image/png"

// ListMultimedia handles GET /heritages/:heritage_id/multimedia.
func (h *Handler) ListMultimedia(c *gin.Context) {
	heritage, ok := h.requireHeritage(c)
	if !ok {
		return
	}

	items, err := h.multimedia.ListMultimedia(c.Request.Context(), heritage.ID)
	if err != nil {
		h.internalError(c, "failed to list multimedia", err)
		return
	}

	c.JSON(http.StatusOK, items)
}

// CreateMultimedia handles POST /heritages/:heritage_id/multimedia.
// The body is multipart with optional type, url, meta_info and file parts; a file or a url is required.
func (h *Handler) CreateMultimedia(c *gin.Context) {
	heritage, ok := h.requireHeritage(c)
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var req models.CreateMultimediaRequest
	if err := c.ShouldBind(&req); err != nil {
		h.uploadError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		h.uploadError(c, err)
		return
	}
	if file == nil && req.URL == "" {
		invalidRequest(c, errors.New("a file or url is required"))
		return
	}

	ctx := c.Request.Context()
	item := &models.Multimedia{
		ID:         uuid.New().String(),
		HeritageID: heritage.ID,
		Type:       req.MediaType(),
		URL:        req.URL,
		MetaInfo:   req.MetaInfo,
	}

	if file != nil {
		if err := h.storeUpload(ctx, item, file); err != nil {
			h.internalError(c, "failed to store multimedia file", err)
			return
		}
	}

	created, err := h.multimedia.CreateMultimedia(ctx, item)
	if err != nil {
		h.deleteStoredFile(ctx, item)
		h.internalError(c, "failed to create multimedia", err)
		return
	}

	h.logger.Info("Created multimedia",
		zap.String("id", created.ID),
		zap.String("heritage_id", created.HeritageID),
		zap.Int64("size", created.Size),
	)
	c.JSON(http.StatusCreated, created)
}

// GetMultimedia handles GET /multimedia/:multimedia_id.
func (h *Handler) GetMultimedia(c *gin.Context) {
	item, err := h.multimedia.GetMultimedia(c.Request.Context(), c.Param("multimedia_id"))
	if err != nil {
		h.storeError(c, err, "multimedia not found", "failed to get multimedia")
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteMultimedia handles DELETE /multimedia/:multimedia_id.
func (h *Handler) DeleteMultimedia(c *gin.Context) {
	id := c.Param("multimedia_id")
	ctx := c.Request.Context()

	item, err := h.multimedia.GetMultimedia(ctx, id)
	if err != nil {
		h.storeError(c, err, "multimedia not found", "failed to get multimedia")
		return
	}

	if err := h.multimedia.DeleteMultimedia(ctx, id); err != nil {
		h.storeError(c, err, "multimedia not found", "failed to delete multimedia")
		return
	}
	h.deleteStoredFile(ctx, item)

	h.logger.Info("Deleted multimedia", zap.String("id", id))
	c.Status(http.StatusNoContent)
}

// GetMultimediaFile handles GET /multimedia/:multimedia_id/file.
// The bytes are always announced as image/png, whatever was uploaded.
func (h *Handler) GetMultimediaFile(c *gin.Context) {
	id := c.Param("multimedia_id")
	ctx := c.Request.Context()
	missing := fmt.Sprintf("multimedia %s not found", id)

	item, err := h.multimedia.GetMultimedia(ctx, id)
	if err != nil {
		h.storeError(c, err, missing, "failed to get multimedia")
		return
	}
	if !item.HasFile() {
		notFound(c, missing)
		return
	}

	body, size, err := h.media.Get(ctx, item.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			h.logger.Warn("Multimedia file missing from store", zap.String("id", id), zap.String("key", item.StorageKey))
			notFound(c, missing)
			return
		}
		h.internalError(c, "failed to read multimedia file", err)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, size, fileContentType, body, nil)
}

func (h *Handler) storeUpload(ctx context.Context, item *models.Multimedia, file *multipart.FileHeader) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.MultimediaKey(item.ID, file.Filename)
	if err := h.media.Put(ctx, key, src, file.Size, contentType); err != nil {
		return err
	}

	item.StorageKey = key
	item.FileName = file.Filename
	item.ContentType = contentType
	item.Size = file.Size
	return nil
}

// deleteStoredFile removes the bytes behind a multimedia record; failures only get logged.
func (h *Handler) deleteStoredFile(ctx context.Context, item *models.Multimedia) {
	if !item.HasFile() {
		return
	}
	if err := h.media.Delete(ctx, item.StorageKey); err != nil {
		h.logger.Warn("Failed to delete multimedia file",
			zap.String("id", item.ID),
			zap.String("key", item.StorageKey),
			zap.Error(err),
		)
	}
}

func (h *Handler) uploadError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error:   "invalid_request",
			Message: fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit),
		})
		return
	}
	invalidRequest(c, err)
}
