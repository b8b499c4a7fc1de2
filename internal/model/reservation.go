package model

import "time"

// ReservationStatus is the lifecycle state of a reservation. Transitions move
// forward only; Returned, Cancelled and Expired are terminal.
type ReservationStatus string

const (
	StatusReserved  ReservationStatus = "Reserved"
	StatusCollected ReservationStatus = "Collected"
	StatusReturned  ReservationStatus = "Returned"
	StatusCancelled ReservationStatus = "Cancelled"
	StatusExpired   ReservationStatus = "Expired"
)

// ValidReservationStatus reports whether s is a known lifecycle state.
func ValidReservationStatus(s ReservationStatus) bool {
	switch s {
	case StatusReserved, StatusCollected, StatusReturned, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Open reports whether s counts against the one-open-reservation-per-device
// invariant.
func (s ReservationStatus) Open() bool {
	return s == StatusReserved || s == StatusCollected
}

// Terminal reports whether no further transition is defined out of s.
func (s ReservationStatus) Terminal() bool {
	return s == StatusReturned || s == StatusCancelled || s == StatusExpired
}

// Reservation is a user's claim on one specific device across its loan
// lifecycle. At most one reservation per device may be open (Reserved or
// Collected) at any time.
type Reservation struct {
	ID            string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string            `gorm:"size:64;index;not null" json:"userId"`
	UserEmail     string            `gorm:"size:255;not null" json:"userEmail"`
	DeviceID      string            `gorm:"size:64;index;not null" json:"deviceId"`
	DeviceModelID string            `gorm:"size:64;index;not null" json:"deviceModelId"`
	Status        ReservationStatus `gorm:"size:16;index;not null" json:"status"`
	ReservedAt    time.Time         `gorm:"index;not null" json:"reservedAt"`
	ExpiresAt     time.Time         `gorm:"index;not null" json:"expiresAt"`
	CollectedAt   *time.Time        `json:"collectedAt,omitempty"`
	ReturnDueAt   *time.Time        `gorm:"index" json:"returnDueAt,omitempty"`
	ReturnedAt    *time.Time        `gorm:"index" json:"returnedAt,omitempty"`
	CancelledAt   *time.Time        `json:"cancelledAt,omitempty"`
	Notes         string            `gorm:"size:512" json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
