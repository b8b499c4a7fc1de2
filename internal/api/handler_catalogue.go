package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"device-lending-backend/internal/model"
	"device-lending-backend/internal/store"
)

// ListDeviceModels handles GET /api/device-models.
func (h *Handler) ListDeviceModels(c *gin.Context) {
	filter := store.ModelFilter{
		Search: c.Query("search"),
		Sort:   store.ModelSort(c.Query("sort")),
	}

	if cat := c.Query("category"); cat != "" {
		category := model.DeviceCategory(cat)
		if !model.ValidCategory(category) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
		filter.Category = category
	}
	if f := c.Query("featured"); f != "" {
		featured, err := strconv.ParseBool(f)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid featured flag"})
			return
		}
		filter.Featured = &featured
	}

	models, err := h.store.ListDeviceModels(c.Request.Context(), filter)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models)
}

// GetDeviceModel handles GET /api/device-models/:id.
func (h *Handler) GetDeviceModel(c *gin.Context) {
	m, err := h.store.GetDeviceModel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetAvailability handles GET /api/device-models/:id/availability.
func (h *Handler) GetAvailability(c *gin.Context) {
	avail, err := h.availability.Compute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, avail)
}

type deviceModelRequest struct {
	ID             string               `json:"id"`
	Brand          string               `json:"brand" binding:"required"`
	Model          string               `json:"model" binding:"required"`
	Category       model.DeviceCategory `json:"category" binding:"required"`
	Description    string               `json:"description"`
	Specifications model.Specifications `json:"specifications"`
	ImageURL       string               `json:"imageUrl"`
	Featured       bool                 `json:"featured"`
}

// CreateDeviceModel handles POST /api/device-models (staff).
func (h *Handler) CreateDeviceModel(c *gin.Context) {
	var req deviceModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" || !model.ValidCategory(req.Category) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "id and a valid category are required"})
		return
	}

	m := model.DeviceModel{
		ID:             req.ID,
		Brand:          req.Brand,
		Model:          req.Model,
		Category:       req.Category,
		Description:    req.Description,
		Specifications: req.Specifications,
		ImageURL:       req.ImageURL,
		Featured:       req.Featured,
	}
	if err := h.store.CreateDeviceModel(c.Request.Context(), &m); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, m)
}

// UpdateDeviceModel handles PUT /api/device-models/:id (staff).
func (h *Handler) UpdateDeviceModel(c *gin.Context) {
	var req deviceModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !model.ValidCategory(req.Category) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	m := model.DeviceModel{
		ID:             c.Param("id"),
		Brand:          req.Brand,
		Model:          req.Model,
		Category:       req.Category,
		Description:    req.Description,
		Specifications: req.Specifications,
		ImageURL:       req.ImageURL,
		Featured:       req.Featured,
	}
	if err := h.store.UpdateDeviceModel(c.Request.Context(), &m); err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.store.GetDeviceModel(c.Request.Context(), m.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteDeviceModel handles DELETE /api/device-models/:id (staff).
func (h *Handler) DeleteDeviceModel(c *gin.Context) {
	if err := h.store.DeleteDeviceModel(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseTime is a shared helper for RFC3339 query/body timestamps.
func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}
