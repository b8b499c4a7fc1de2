package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"device-lending-backend/internal/lifecycle"
	"device-lending-backend/internal/store"
)

type createReservationRequest struct {
	DeviceID      string `json:"deviceId" binding:"required"`
	DeviceModelID string `json:"deviceModelId" binding:"required"`
	Notes         string `json:"notes"`
}

// CreateReservation handles POST /api/reservations. The requester's identity
// comes from the session, never from the body.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actorFrom(c)
	r, err := h.engine.Create(c.Request.Context(), lifecycle.CreateParams{
		DeviceID:      req.DeviceID,
		DeviceModelID: req.DeviceModelID,
		UserID:        actor.UserID,
		UserEmail:     actor.Email,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// ListReservations handles GET /api/reservations. Users see their own
// records; staff may pass ?all=true for the full ledger.
func (h *Handler) ListReservations(c *gin.Context) {
	actor := actorFrom(c)

	filter := store.ReservationFilter{UserID: actor.UserID}
	if all, _ := strconv.ParseBool(c.Query("all")); all && actor.Staff {
		filter.UserID = ""
	}

	reservations, err := h.store.ListReservations(c.Request.Context(), filter)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// GetReservation handles GET /api/reservations/:id. Owner or staff only.
func (h *Handler) GetReservation(c *gin.Context) {
	r, err := h.store.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	actor := actorFrom(c)
	if !actor.Staff && r.UserID != actor.UserID {
		respondError(c, lifecycle.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, r)
}

// CancelReservation handles PUT /api/reservations/:id/cancel.
func (h *Handler) CancelReservation(c *gin.Context) {
	r, err := h.engine.Cancel(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// CollectReservation handles PUT /api/reservations/:id/collect (staff).
// ?override=true lets staff hand out a device past its collection deadline.
func (h *Handler) CollectReservation(c *gin.Context) {
	override, _ := strconv.ParseBool(c.Query("override"))
	r, err := h.engine.Collect(c.Request.Context(), c.Param("id"), override)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type returnReservationRequest struct {
	ConditionNotes string `json:"conditionNotes"`
}

// ReturnReservation handles PUT /api/reservations/:id/return (staff).
func (h *Handler) ReturnReservation(c *gin.Context) {
	var req returnReservationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	r, err := h.engine.Return(c.Request.Context(), c.Param("id"), req.ConditionNotes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
