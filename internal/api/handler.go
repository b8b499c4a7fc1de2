package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"device-lending-backend/internal/availability"
	"device-lending-backend/internal/lifecycle"
	"device-lending-backend/internal/mw"
	"device-lending-backend/internal/report"
	"device-lending-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store        store.Store
	engine       *lifecycle.Engine
	availability *availability.Calculator
	reports      *report.Aggregator
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, engine *lifecycle.Engine) *Handler {
	return &Handler{
		store:        s,
		engine:       engine,
		availability: availability.NewCalculator(s),
		reports:      report.NewAggregator(s.DB()),
	}
}

// respondError maps domain errors to HTTP statuses. Conflict and Unavailable
// tell the client to try another device; InvalidTransition says the
// reservation cannot be acted on.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, lifecycle.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, lifecycle.ErrForbidden):
		status = http.StatusForbidden
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// actorFrom builds the acting identity from the auth middleware's context.
func actorFrom(c *gin.Context) lifecycle.Actor {
	return lifecycle.Actor{
		UserID: c.GetString(mw.CtxUserID),
		Email:  c.GetString(mw.CtxUserEmail),
		Staff:  c.GetBool(mw.CtxIsStaff),
	}
}
