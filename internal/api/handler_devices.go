package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"device-lending-backend/internal/model"
)

type deviceRequest struct {
	ID            string             `json:"id"`
	DeviceModelID string             `json:"deviceModelId" binding:"required"`
	SerialNumber  string             `json:"serialNumber" binding:"required"`
	AssetID       string             `json:"assetId"`
	Status        model.DeviceStatus `json:"status"`
	Condition     string             `json:"condition"`
	Notes         string             `json:"notes"`
	PurchaseDate  string             `json:"purchaseDate"`
}

// ListDevices handles GET /api/devices (staff).
func (h *Handler) ListDevices(c *gin.Context) {
	if modelID := c.Query("deviceModelId"); modelID != "" {
		devices, err := h.store.ListDevicesByModel(c.Request.Context(), modelID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, devices)
		return
	}

	devices, err := h.store.ListDevices(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, devices)
}

// GetDevice handles GET /api/devices/:id (staff).
func (h *Handler) GetDevice(c *gin.Context) {
	d, err := h.store.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// CreateDevice handles POST /api/devices (staff).
func (h *Handler) CreateDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, ok := h.deviceFromRequest(c, req)
	if !ok {
		return
	}
	if d.ID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	// The catalogue entry must exist before units can join the pool.
	if _, err := h.store.GetDeviceModel(c.Request.Context(), d.DeviceModelID); err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.CreateDevice(c.Request.Context(), d); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, d)
}

// UpdateDevice handles PUT /api/devices/:id (staff).
func (h *Handler) UpdateDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, ok := h.deviceFromRequest(c, req)
	if !ok {
		return
	}
	d.ID = c.Param("id")

	if err := h.store.UpdateDevice(c.Request.Context(), d); err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.store.GetDevice(c.Request.Context(), d.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type deviceStatusRequest struct {
	Status model.DeviceStatus `json:"status" binding:"required"`
}

// SetDeviceStatus handles PUT /api/devices/:id/status (staff). This is the
// explicit administrative action for maintenance/retired/lost outcomes; it
// never happens implicitly on return.
func (h *Handler) SetDeviceStatus(c *gin.Context) {
	var req deviceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !model.ValidDeviceStatus(req.Status) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown device status"})
		return
	}

	d, err := h.store.SetDeviceStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DeleteDevice handles DELETE /api/devices/:id (staff).
func (h *Handler) DeleteDevice(c *gin.Context) {
	if err := h.store.DeleteDevice(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deviceFromRequest(c *gin.Context, req deviceRequest) (*model.Device, bool) {
	status := req.Status
	if status == "" {
		status = model.DeviceAvailable
	}
	if !model.ValidDeviceStatus(status) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown device status"})
		return nil, false
	}

	d := &model.Device{
		ID:            req.ID,
		DeviceModelID: req.DeviceModelID,
		SerialNumber:  req.SerialNumber,
		AssetID:       req.AssetID,
		Status:        status,
		Condition:     req.Condition,
		Notes:         req.Notes,
	}
	if req.PurchaseDate != "" {
		t, err := parseTime(req.PurchaseDate)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid purchaseDate; use RFC3339"})
			return nil, false
		}
		d.PurchaseDate = t
	}
	return d, true
}
