package model

import "time"

// StaffSubscription holds a staff browser push subscription used for sweep
// alerts (expired reservations awaiting restocking).
type StaffSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}
