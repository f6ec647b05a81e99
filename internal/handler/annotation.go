package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/models"
)

// annotationRenderer turns a stored annotation into one of its response shapes.
type annotationRenderer func(*models.Annotation) any

func renderFull(a *models.Annotation) any { return a.Full() }

func renderPale(a *models.Annotation) any { return a.Pale() }

// ListHeritageAnnotations handles GET /heritages/:heritage_id/annotations.
// Without a keyword it returns the annotations whose target id contains the heritage id.
func (h *Handler) ListHeritageAnnotations(c *gin.Context) {
	heritageID := strings.TrimSpace(c.Param("heritage_id"))
	if heritageID == "" {
		notFound(c, "heritage id is required")
		return
	}

	if h.searchFallback(c, h.annotationIndex) {
		return
	}

	annotations, err := h.allAnnotations(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to list annotations", err)
		return
	}

	c.JSON(http.StatusOK, models.FullViews(models.FilterByTarget(annotations, heritageID)))
}

// CreateHeritageAnnotation handles POST /heritages/:heritage_id/annotations.
// The target id is the absolute URL of this request.
func (h *Handler) CreateHeritageAnnotation(c *gin.Context) {
	heritageID := strings.TrimSpace(c.Param("heritage_id"))
	if heritageID == "" {
		notFound(c, "heritage id is required")
		return
	}

	var req models.CreateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	h.createAnnotation(c, req.Annotation(h.absoluteURL(c.Request), heritageID), renderFull)
}

// GetAnnotation handles GET /heritages/:heritage_id/annotations/:annotation_id.
func (h *Handler) GetAnnotation(c *gin.Context) {
	h.getAnnotation(c, renderFull)
}

// ReplaceAnnotation handles PUT /heritages/:heritage_id/annotations/:annotation_id.
func (h *Handler) ReplaceAnnotation(c *gin.Context) {
	var req models.CreateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	h.saveAnnotation(c, req.Replacement(), renderFull)
}

// UpdateAnnotation handles PATCH /heritages/:heritage_id/annotations/:annotation_id.
func (h *Handler) UpdateAnnotation(c *gin.Context) {
	var req models.UpdateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	h.saveAnnotation(c, req.Changes(), renderFull)
}

// DeleteAnnotation handles DELETE on both annotation item routes.
func (h *Handler) DeleteAnnotation(c *gin.Context) {
	id := c.Param("annotation_id")
	ctx := c.Request.Context()

	if err := h.annotations.DeleteAnnotation(ctx, id); err != nil {
		h.storeError(c, err, "annotation not found", "failed to delete annotation")
		return
	}

	if err := h.annotationCache.Delete(ctx, id); err != nil {
		h.logger.Warn("Failed to delete from cache", zap.String("id", id), zap.Error(err))
	}
	h.removeDocument(ctx, h.annotationIndex, id)

	h.logger.Info("Deleted annotation", zap.String("id", id))
	c.Status(http.StatusNoContent)
}

// ListPaleAnnotations handles GET /annotations.
func (h *Handler) ListPaleAnnotations(c *gin.Context) {
	if h.searchFallback(c, h.annotationIndex) {
		return
	}

	annotations, err := h.allAnnotations(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to list annotations", err)
		return
	}

	c.JSON(http.StatusOK, models.PaleViews(annotations))
}

// CreatePaleAnnotation handles POST /annotations.
func (h *Handler) CreatePaleAnnotation(c *gin.Context) {
	var req models.CreatePaleAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	h.createAnnotation(c, req.Annotation(h.absoluteURL(c.Request)), renderPale)
}

// GetPaleAnnotation handles GET /annotations/:annotation_id.
func (h *Handler) GetPaleAnnotation(c *gin.Context) {
	h.getAnnotation(c, renderPale)
}

// ReplacePaleAnnotation handles PUT /annotations/:annotation_id.
func (h *Handler) ReplacePaleAnnotation(c *gin.Context) {
	var req models.CreatePaleAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	h.saveAnnotation(c, req.Replacement(), renderPale)
}

// UpdatePaleAnnotation handles PATCH /annotations/:annotation_id.
func (h *Handler) UpdatePaleAnnotation(c *gin.Context) {
	var req models.UpdatePaleAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	h.saveAnnotation(c, req.Changes(), renderPale)
}

func (h *Handler) createAnnotation(c *gin.Context, annotation *models.Annotation, render annotationRenderer) {
	ctx := c.Request.Context()

	created, err := h.annotations.CreateAnnotation(ctx, annotation)
	if err != nil {
		h.storeError(c, err, "annotation target not found", "failed to create annotation")
		return
	}

	if err := h.annotationCache.Set(ctx, created.ID, created); err != nil {
		h.logger.Warn("Failed to cache annotation", zap.String("id", created.ID), zap.Error(err))
	}
	h.indexDocument(ctx, h.annotationIndex, created.ID, created.Full())

	h.logger.Info("Created annotation",
		zap.String("id", created.ID),
		zap.String("target_id", created.TargetID),
	)
	c.JSON(http.StatusCreated, render(created))
}

func (h *Handler) getAnnotation(c *gin.Context, render annotationRenderer) {
	id := c.Param("annotation_id")
	ctx := c.Request.Context()

	if cached, err := h.annotationCache.Get(ctx, id); err == nil && cached != nil {
		h.logger.Debug("Cache hit for annotation", zap.String("id", id))
		c.JSON(http.StatusOK, render(cached))
		return
	}

	annotation, err := h.annotations.GetAnnotation(ctx, id)
	if err != nil {
		h.storeError(c, err, "annotation not found", "failed to get annotation")
		return
	}

	if err := h.annotationCache.Set(ctx, id, annotation); err != nil {
		h.logger.Warn("Failed to cache annotation", zap.String("id", id), zap.Error(err))
	}

	c.JSON(http.StatusOK, render(annotation))
}

func (h *Handler) saveAnnotation(c *gin.Context, changes *models.AnnotationChanges, render annotationRenderer) {
	id := c.Param("annotation_id")
	ctx := c.Request.Context()

	annotation, err := h.annotations.UpdateAnnotation(ctx, id, changes)
	if err != nil {
		h.storeError(c, err, "annotation not found", "failed to update annotation")
		return
	}

	if err := h.annotationCache.Set(ctx, id, annotation); err != nil {
		h.logger.Warn("Failed to update cache", zap.String("id", id), zap.Error(err))
	}
	h.indexDocument(ctx, h.annotationIndex, id, annotation.Full())

	c.JSON(http.StatusOK, render(annotation))
}

// allAnnotations returns every annotation in insertion order, reading through the cache.
func (h *Handler) allAnnotations(ctx context.Context) ([]models.Annotation, error) {
	if cached, found, err := h.annotationCache.GetAll(ctx); err == nil && found {
		h.logger.Debug("Cache hit for annotation list")
		return cached, nil
	}

	annotations, err := h.annotations.ListAnnotations(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.annotationCache.SetAll(ctx, annotations); err != nil {
		h.logger.Warn("Failed to cache annotation list", zap.Error(err))
	}
	return annotations, nil
}
