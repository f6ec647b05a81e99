package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/models"
)

// ListHeritages handles GET /heritages.
// With ?keyword= the result comes from the search service instead of the catalog.
func (h *Handler) ListHeritages(c *gin.Context) {
	if h.searchFallback(c, h.heritageIndex) {
		return
	}

	ctx := c.Request.Context()

	if cached, found, err := h.heritageCache.GetAll(ctx); err == nil && found {
		h.logger.Debug("Cache hit for heritage list")
		c.JSON(http.StatusOK, cached)
		return
	}

	heritages, err := h.heritages.ListHeritages(ctx)
	if err != nil {
		h.internalError(c, "failed to list heritages", err)
		return
	}

	if err := h.heritageCache.SetAll(ctx, heritages); err != nil {
		h.logger.Warn("Failed to cache heritage list", zap.Error(err))
	}

	c.JSON(http.StatusOK, heritages)
}

// CreateHeritage handles POST /heritages.
func (h *Handler) CreateHeritage(c *gin.Context) {
	var req models.CreateHeritageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	ctx := c.Request.Context()

	heritage, err := h.heritages.CreateHeritage(ctx, &req)
	if err != nil {
		h.internalError(c, "failed to create heritage", err)
		return
	}

	if err := h.heritageCache.Set(ctx, heritage.ID, heritage); err != nil {
		h.logger.Warn("Failed to cache heritage", zap.String("id", heritage.ID), zap.Error(err))
	}
	h.indexDocument(ctx, h.heritageIndex, heritage.ID, heritage)

	h.logger.Info("Created heritage", zap.String("id", heritage.ID))
	c.JSON(http.StatusCreated, heritage)
}

// GetHeritage handles GET /heritages/:heritage_id.
func (h *Handler) GetHeritage(c *gin.Context) {
	id := c.Param("heritage_id")

	heritage, err := h.findHeritage(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, "heritage not found", "failed to get heritage")
		return
	}

	c.JSON(http.StatusOK, heritage)
}

// ReplaceHeritage handles PUT /heritages/:heritage_id.
func (h *Handler) ReplaceHeritage(c *gin.Context) {
	var req models.CreateHeritageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	h.saveHeritage(c, req.Replacement())
}

// UpdateHeritage handles PATCH /heritages/:heritage_id.
func (h *Handler) UpdateHeritage(c *gin.Context) {
	var req models.UpdateHeritageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	h.saveHeritage(c, &req)
}

func (h *Handler) saveHeritage(c *gin.Context, req *models.UpdateHeritageRequest) {
	id := c.Param("heritage_id")
	ctx := c.Request.Context()

	heritage, err := h.heritages.UpdateHeritage(ctx, id, req)
	if err != nil {
		h.storeError(c, err, "heritage not found", "failed to update heritage")
		return
	}

	if err := h.heritageCache.Set(ctx, id, heritage); err != nil {
		h.logger.Warn("Failed to update cache", zap.String("id", id), zap.Error(err))
	}
	h.indexDocument(ctx, h.heritageIndex, id, heritage)

	c.JSON(http.StatusOK, heritage)
}

// DeleteHeritage handles DELETE /heritages/:heritage_id.
// Multimedia rows cascade in the database; their stored files are removed here.
func (h *Handler) DeleteHeritage(c *gin.Context) {
	id := c.Param("heritage_id")
	ctx := c.Request.Context()

	attachments, err := h.multimedia.ListMultimedia(ctx, id)
	if err != nil {
		h.logger.Warn("Failed to list multimedia before delete", zap.String("id", id), zap.Error(err))
	}

	if err := h.heritages.DeleteHeritage(ctx, id); err != nil {
		h.storeError(c, err, "heritage not found", "failed to delete heritage")
		return
	}

	for i := range attachments {
		h.deleteStoredFile(ctx, &attachments[i])
	}

	if err := h.heritageCache.Delete(ctx, id); err != nil {
		h.logger.Warn("Failed to delete from cache", zap.String("id", id), zap.Error(err))
	}
	h.removeDocument(ctx, h.heritageIndex, id)

	h.logger.Info("Deleted heritage", zap.String("id", id), zap.Int("multimedia", len(attachments)))
	c.Status(http.StatusNoContent)
}

// findHeritage reads through the heritage cache.
func (h *Handler) findHeritage(ctx context.Context, id string) (*models.Heritage, error) {
	if cached, err := h.heritageCache.Get(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	heritage, err := h.heritages.GetHeritage(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := h.heritageCache.Set(ctx, id, heritage); err != nil {
		h.logger.Warn("Failed to cache heritage", zap.String("id", id), zap.Error(err))
	}
	return heritage, nil
}

// requireHeritage writes 404 and returns false when the path heritage does not exist.
func (h *Handler) requireHeritage(c *gin.Context) (*models.Heritage, bool) {
	heritage, err := h.findHeritage(c.Request.Context(), c.Param("heritage_id"))
	if err != nil {
		h.storeError(c, err, "heritage not found", "failed to get heritage")
		return nil, false
	}
	return heritage, true
}
