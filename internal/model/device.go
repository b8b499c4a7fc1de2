package model

import "time"

// DeviceStatus is the administrative state of a physical unit. It is
// orthogonal to loan state, which is derived from the reservation ledger:
// an Available device can still be on loan.
type DeviceStatus string

const (
	DeviceAvailable   DeviceStatus = "Available"
	DeviceUnavailable DeviceStatus = "Unavailable"
	DeviceMaintenance DeviceStatus = "Maintenance"
	DeviceRetired     DeviceStatus = "Retired"
	DeviceLost        DeviceStatus = "Lost"
)

// ValidDeviceStatus reports whether s is a known administrative status.
func ValidDeviceStatus(s DeviceStatus) bool {
	switch s {
	case DeviceAvailable, DeviceUnavailable, DeviceMaintenance, DeviceRetired, DeviceLost:
		return true
	}
	return false
}

// Device represents one physical, individually tracked unit of a DeviceModel.
type Device struct {
	ID            string       `gorm:"primaryKey;size:64" json:"id"`
	DeviceModelID string       `gorm:"size:64;index;not null" json:"deviceModelId"`
	SerialNumber  string       `gorm:"size:128;uniqueIndex;not null" json:"serialNumber"`
	AssetID       string       `gorm:"size:128;not null" json:"assetId"`
	Status        DeviceStatus `gorm:"size:32;index;not null;default:'Available'" json:"status"`
	Condition     string       `gorm:"size:64" json:"condition"`
	Notes         string       `gorm:"type:text" json:"notes,omitempty"`
	PurchaseDate  time.Time    `json:"purchaseDate"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`

	// Associations
	DeviceModel DeviceModel `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
