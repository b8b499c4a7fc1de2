package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DeviceCategory classifies a catalogue entry.
type DeviceCategory string

const (
	CategoryLaptop      DeviceCategory = "Laptop"
	CategoryTablet      DeviceCategory = "Tablet"
	CategoryCamera      DeviceCategory = "Camera"
	CategoryMobilePhone DeviceCategory = "MobilePhone"
	CategoryKeyboard    DeviceCategory = "Keyboard"
	CategoryMouse       DeviceCategory = "Mouse"
	CategoryCharger     DeviceCategory = "Charger"
	CategoryOther       DeviceCategory = "Other"
)

// ValidCategory reports whether c is one of the known catalogue categories.
func ValidCategory(c DeviceCategory) bool {
	switch c {
	case CategoryLaptop, CategoryTablet, CategoryCamera, CategoryMobilePhone,
		CategoryKeyboard, CategoryMouse, CategoryCharger, CategoryOther:
		return true
	}
	return false
}

// Specifications is a free-form key/value spec sheet stored as a JSON column.
type Specifications map[string]string

func (s Specifications) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Specifications) Scan(value any) error {
	if value == nil {
		*s = Specifications{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported specifications column type %T", value)
	}
}

// DeviceModel represents a catalogue entry describing a class of loanable item.
type DeviceModel struct {
	ID             string         `gorm:"primaryKey;size:64" json:"id"`
	Brand          string         `gorm:"size:128;not null" json:"brand"`
	Model          string         `gorm:"size:128;not null" json:"model"`
	Category       DeviceCategory `gorm:"size:32;index;not null" json:"category"`
	Description    string         `gorm:"type:text;not null" json:"description"`
	Specifications Specifications `gorm:"type:text" json:"specifications"`
	ImageURL       string         `gorm:"size:512" json:"imageUrl,omitempty"`
	Featured       bool           `gorm:"index;not null;default:false" json:"featured"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
