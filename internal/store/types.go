package store

import (
	"errors"

	"device-lending-backend/internal/model"
)

// Domain errors surfaced by the ledger. Callers distinguish them with
// errors.Is.
var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means the device already has an open reservation.
	ErrConflict = errors.New("device already reserved")
	// ErrUnavailable means the device is administratively not Available.
	ErrUnavailable = errors.New("device not available")
)

// openStatuses are the reservation states that count against the
// one-open-reservation-per-device invariant.
var openStatuses = []model.ReservationStatus{model.StatusReserved, model.StatusCollected}

// ModelSort names the supported catalogue orderings.
type ModelSort string

const (
	SortPopular  ModelSort = "popular"
	SortNewest   ModelSort = "newest"
	SortOldest   ModelSort = "oldest"
	SortNameAsc  ModelSort = "name-asc"
	SortNameDesc ModelSort = "name-desc"
)

// ModelFilter narrows a catalogue listing.
type ModelFilter struct {
	Category model.DeviceCategory
	Search   string
	Sort     ModelSort
	Featured *bool
}

// ReservationFilter narrows a ledger listing. Zero fields are ignored.
type ReservationFilter struct {
	UserID        string
	DeviceID      string
	DeviceModelID string
	Status        model.ReservationStatus
}
