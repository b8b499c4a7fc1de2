package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"device-lending-backend/internal/model"
	"device-lending-backend/internal/store"
)

// DashboardStats handles GET /api/admin/dashboard/stats (staff).
func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.reports.Stats(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AdminListReservations handles GET /api/admin/reservations (staff) with
// status/userId/deviceModelId filters.
func (h *Handler) AdminListReservations(c *gin.Context) {
	filter := store.ReservationFilter{
		UserID:        c.Query("userId"),
		DeviceModelID: c.Query("deviceModelId"),
	}
	if s := c.Query("status"); s != "" {
		status := model.ReservationStatus(s)
		if !model.ValidReservationStatus(status) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown reservation status"})
			return
		}
		filter.Status = status
	}

	reservations, err := h.store.ListReservations(c.Request.Context(), filter)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// ListOverdueReservations handles GET /api/admin/reservations/overdue (staff).
func (h *Handler) ListOverdueReservations(c *gin.Context) {
	reservations, err := h.reports.ListOverdue(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// ListPendingReservations handles GET /api/admin/reservations/pending (staff).
func (h *Handler) ListPendingReservations(c *gin.Context) {
	reservations, err := h.reports.ListPending(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reservations)
}
