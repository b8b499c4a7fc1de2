package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"device-lending-backend/internal/model"
)

// lockForUpdate takes a row lock on databases that support it. SQLite has no
// FOR UPDATE; its transactions take a single writer lock, which gives the
// same serialization for the check-and-insert below.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// CreateReservation atomically validates and inserts a reservation.
// The device row is locked for the duration of the check-and-insert, so two
// concurrent calls racing on the same device cannot both observe it free:
// at most one reservation per device is ever open.
func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var device model.Device
		if err := lockForUpdate(tx).First(&device, "id = ?", r.DeviceID).Error; err != nil {
			return translateNotFound(err)
		}
		if device.DeviceModelID != r.DeviceModelID {
			return ErrNotFound
		}
		if device.Status != model.DeviceAvailable {
			return ErrUnavailable
		}

		var open int64
		if err := tx.Model(&model.Reservation{}).
			Where("device_id = ? AND status IN ?", r.DeviceID, openStatuses).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrConflict
		}

		return tx.Create(r).Error
	})
}

func (s *gormStore) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &r, nil
}

// ListReservations returns ledger records matching the filter, most recent
// first.
func (s *gormStore) ListReservations(ctx context.Context, filter ReservationFilter) ([]model.Reservation, error) {
	q := s.db.WithContext(ctx).Model(&model.Reservation{}).Order("reserved_at DESC")
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.DeviceID != "" {
		q = q.Where("device_id = ?", filter.DeviceID)
	}
	if filter.DeviceModelID != "" {
		q = q.Where("device_model_id = ?", filter.DeviceModelID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var reservations []model.Reservation
	if err := q.Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// UpdateReservation applies mutate to the reservation under a row lock and
// saves the result. mutate decides transition legality; any error it returns
// aborts the transaction unchanged.
func (s *gormStore) UpdateReservation(ctx context.Context, id string, mutate func(*model.Reservation) error) (*model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&r, "id = ?", id).Error; err != nil {
			return translateNotFound(err)
		}
		if err := mutate(&r); err != nil {
			return err
		}
		return tx.Save(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListExpiredReserved returns Reserved records whose collection deadline
// passed before now, oldest first.
func (s *gormStore) ListExpiredReserved(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", model.StatusReserved, now).
		Order("expires_at ASC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// OpenReservationDeviceIDs returns the set of device ids of the given model
// that currently have an open reservation.
func (s *gormStore) OpenReservationDeviceIDs(ctx context.Context, modelID string) (map[string]bool, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("device_model_id = ? AND status IN ?", modelID, openStatuses).
		Pluck("device_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
