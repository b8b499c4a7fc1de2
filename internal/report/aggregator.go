// Package report computes read-only dashboard rollups from the reservation
// ledger. Everything here is derived fresh per call; brief staleness is
// tolerated at the HTTP layer via the response cache middleware.
package report

import (
	"context"
	"time"

	"gorm.io/gorm"

	"device-lending-backend/internal/model"
)

// DashboardStats are the staff dashboard counters.
type DashboardStats struct {
	ActiveLoans       int64 `json:"activeLoans"`
	PendingCollection int64 `json:"pendingCollection"`
	OverdueLoans      int64 `json:"overdueLoans"`
	ReturnedToday     int64 `json:"returnedToday"`
	ReservationsToday int64 `json:"reservationsToday"`
}

// Aggregator runs rollup queries against the ledger.
type Aggregator struct {
	db *gorm.DB
}

// NewAggregator creates an Aggregator over the given database handle.
func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// dayBounds returns the half-open calendar day [start, end) containing now.
func dayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// Stats computes the dashboard counters as of now.
func (a *Aggregator) Stats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	dayStart, dayEnd := dayBounds(now)
	stats := &DashboardStats{}
	ledger := func() *gorm.DB { return a.db.WithContext(ctx).Model(&model.Reservation{}) }

	if err := ledger().Where("status = ?", model.StatusCollected).
		Count(&stats.ActiveLoans).Error; err != nil {
		return nil, err
	}
	if err := ledger().Where("status = ? AND expires_at >= ?", model.StatusReserved, now).
		Count(&stats.PendingCollection).Error; err != nil {
		return nil, err
	}
	if err := ledger().Where("status = ? AND return_due_at IS NOT NULL AND return_due_at < ?", model.StatusCollected, now).
		Count(&stats.OverdueLoans).Error; err != nil {
		return nil, err
	}
	if err := ledger().Where("status = ? AND returned_at >= ? AND returned_at < ?", model.StatusReturned, dayStart, dayEnd).
		Count(&stats.ReturnedToday).Error; err != nil {
		return nil, err
	}
	if err := ledger().Where("reserved_at >= ? AND reserved_at < ?", dayStart, dayEnd).
		Count(&stats.ReservationsToday).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// ListOverdue returns collected loans past their return due date, most
// overdue first.
func (a *Aggregator) ListOverdue(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := a.db.WithContext(ctx).
		Where("status = ? AND return_due_at IS NOT NULL AND return_due_at < ?", model.StatusCollected, now).
		Order("return_due_at ASC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// ListPending returns reservations still awaiting collection, soonest
// deadline first.
func (a *Aggregator) ListPending(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := a.db.WithContext(ctx).
		Where("status = ? AND expires_at >= ?", model.StatusReserved, now).
		Order("expires_at ASC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}
