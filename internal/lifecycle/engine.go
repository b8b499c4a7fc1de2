// Package lifecycle implements the reservation state machine:
//
//	Reserved -> Collected -> Returned
//	Reserved -> Cancelled
//	Reserved -> Expired
//
// Returned, Cancelled and Expired are terminal. All transitions run as
// single-record transactions in the ledger; illegal ones fail with
// ErrInvalidTransition and leave no partial state.
package lifecycle

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"device-lending-backend/config"
	"device-lending-backend/internal/model"
	"device-lending-backend/internal/store"
)

// Engine enforces the reservation lifecycle over the ledger.
type Engine struct {
	cfg   config.ReservationConfig
	store store.Store
}

// NewEngine creates a lifecycle engine with the given policy configuration.
func NewEngine(cfg config.ReservationConfig, s store.Store) *Engine {
	return &Engine{cfg: cfg, store: s}
}

// Actor identifies who is performing a user-facing action.
type Actor struct {
	UserID string
	Email  string
	Staff  bool
}

// CreateParams are the inputs for a new reservation.
type CreateParams struct {
	DeviceID      string
	DeviceModelID string
	UserID        string
	UserEmail     string
	Notes         string
}

// Create reserves a device for a user. The check-and-insert is atomic in the
// ledger, so of N concurrent calls racing on one free device exactly one
// succeeds; the rest fail with store.ErrConflict.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*model.Reservation, error) {
	now := time.Now().UTC()
	r := &model.Reservation{
		ID:            uuid.NewString(),
		UserID:        p.UserID,
		UserEmail:     p.UserEmail,
		DeviceID:      p.DeviceID,
		DeviceModelID: p.DeviceModelID,
		Status:        model.StatusReserved,
		ReservedAt:    now,
		ExpiresAt:     now.Add(e.cfg.CollectionWindow),
		Notes:         p.Notes,
	}
	if err := e.store.CreateReservation(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Cancel aborts a reservation before collection. Only the owning user or
// staff may cancel, and only while the reservation is still Reserved.
func (e *Engine) Cancel(ctx context.Context, id string, actor Actor) (*model.Reservation, error) {
	return e.store.UpdateReservation(ctx, id, func(r *model.Reservation) error {
		if !actor.Staff && actor.UserID != r.UserID {
			return ErrForbidden
		}
		if r.Status != model.StatusReserved {
			return ErrInvalidTransition
		}
		now := time.Now().UTC()
		r.Status = model.StatusCancelled
		r.CancelledAt = &now
		return nil
	})
}

// Collect marks a reservation as picked up (staff action). The collection
// deadline is enforced unless override is set. The return due date is the
// collection time plus the configured loan period for the device model's
// category.
func (e *Engine) Collect(ctx context.Context, id string, override bool) (*model.Reservation, error) {
	existing, err := e.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	// Category only selects the loan period; fall back to the default when
	// the catalogue entry has since been removed.
	var category model.DeviceCategory
	if m, err := e.store.GetDeviceModel(ctx, existing.DeviceModelID); err == nil {
		category = m.Category
	}
	period := e.cfg.LoanPeriod(category)

	return e.store.UpdateReservation(ctx, id, func(r *model.Reservation) error {
		if r.Status != model.StatusReserved {
			return ErrInvalidTransition
		}
		now := time.Now().UTC()
		if !override && now.After(r.ExpiresAt) {
			return ErrInvalidTransition
		}
		r.Status = model.StatusCollected
		r.CollectedAt = &now
		due := now.Add(period)
		r.ReturnDueAt = &due
		return nil
	})
}

// Return closes a collected loan (staff action). Condition notes from the
// return inspection are appended to the reservation record; any resulting
// device status change (damage, loss) is a separate administrative action on
// the device pool.
func (e *Engine) Return(ctx context.Context, id string, conditionNotes string) (*model.Reservation, error) {
	return e.store.UpdateReservation(ctx, id, func(r *model.Reservation) error {
		if r.Status != model.StatusCollected {
			return ErrInvalidTransition
		}
		now := time.Now().UTC()
		r.Status = model.StatusReturned
		r.ReturnedAt = &now
		if conditionNotes != "" {
			if r.Notes != "" {
				r.Notes += "\n"
			}
			r.Notes += conditionNotes
		}
		return nil
	})
}

// errSweepSkip aborts a sweep transition whose precondition no longer holds.
var errSweepSkip = errors.New("sweep: record already transitioned")

// SweepExpirations transitions every Reserved record whose collection
// deadline passed before now to Expired and returns the transitioned
// records. Each transition is its own transaction with the precondition
// re-checked under lock, so the sweep is idempotent and safe to run
// concurrently with user actions. Per-record failures are logged and
// skipped; they never abort the whole sweep.
func (e *Engine) SweepExpirations(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	stale, err := e.store.ListExpiredReserved(ctx, now)
	if err != nil {
		return nil, err
	}

	var expired []model.Reservation
	for _, candidate := range stale {
		r, err := e.store.UpdateReservation(ctx, candidate.ID, func(r *model.Reservation) error {
			if r.Status != model.StatusReserved || !r.ExpiresAt.Before(now) {
				return errSweepSkip
			}
			r.Status = model.StatusExpired
			return nil
		})
		if errors.Is(err, errSweepSkip) {
			continue
		}
		if err != nil {
			log.Printf("sweep: failed to expire reservation %s: %v", candidate.ID, err)
			continue
		}
		expired = append(expired, *r)
	}
	return expired, nil
}

// IsOverdue reports whether a collected loan has passed its return due date.
// Overdue is a derived view, never a stored status.
func IsOverdue(r model.Reservation, now time.Time) bool {
	return r.Status == model.StatusCollected && r.ReturnDueAt != nil && r.ReturnDueAt.Before(now)
}
