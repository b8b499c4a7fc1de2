package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"device-lending-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Catalogue
	CreateDeviceModel(ctx context.Context, m *model.DeviceModel) error
	GetDeviceModel(ctx context.Context, id string) (*model.DeviceModel, error)
	ListDeviceModels(ctx context.Context, filter ModelFilter) ([]model.DeviceModel, error)
	UpdateDeviceModel(ctx context.Context, m *model.DeviceModel) error
	DeleteDeviceModel(ctx context.Context, id string) error

	// Device pool
	CreateDevice(ctx context.Context, d *model.Device) error
	GetDevice(ctx context.Context, id string) (*model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
	ListDevicesByModel(ctx context.Context, modelID string) ([]model.Device, error)
	UpdateDevice(ctx context.Context, d *model.Device) error
	SetDeviceStatus(ctx context.Context, id string, status model.DeviceStatus) (*model.Device, error)
	DeleteDevice(ctx context.Context, id string) error

	// Reservation ledger
	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]model.Reservation, error)
	UpdateReservation(ctx context.Context, id string, mutate func(*model.Reservation) error) (*model.Reservation, error)
	ListExpiredReserved(ctx context.Context, now time.Time) ([]model.Reservation, error)
	OpenReservationDeviceIDs(ctx context.Context, modelID string) (map[string]bool, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// --- Catalogue ---

func (s *gormStore) CreateDeviceModel(ctx context.Context, m *model.DeviceModel) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *gormStore) GetDeviceModel(ctx context.Context, id string) (*model.DeviceModel, error) {
	var m model.DeviceModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &m, nil
}

func (s *gormStore) ListDeviceModels(ctx context.Context, filter ModelFilter) ([]model.DeviceModel, error) {
	q := s.db.WithContext(ctx).Model(&model.DeviceModel{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Featured != nil {
		q = q.Where("featured = ?", *filter.Featured)
	}
	if filter.Search != "" {
		needle := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(brand) LIKE ? OR LOWER(model) LIKE ? OR LOWER(description) LIKE ?", needle, needle, needle)
	}

	switch filter.Sort {
	case SortNewest:
		q = q.Order("created_at DESC")
	case SortOldest:
		q = q.Order("created_at ASC")
	case SortNameAsc:
		q = q.Order("brand ASC, model ASC")
	case SortNameDesc:
		q = q.Order("brand DESC, model DESC")
	case SortPopular, "":
		q = q.Order("featured DESC, updated_at DESC")
	default:
		return nil, fmt.Errorf("unknown sort %q", filter.Sort)
	}

	var models []model.DeviceModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

func (s *gormStore) UpdateDeviceModel(ctx context.Context, m *model.DeviceModel) error {
	res := s.db.WithContext(ctx).Model(&model.DeviceModel{ID: m.ID}).Updates(map[string]any{
		"brand":          m.Brand,
		"model":          m.Model,
		"category":       m.Category,
		"description":    m.Description,
		"specifications": m.Specifications,
		"image_url":      m.ImageURL,
		"featured":       m.Featured,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteDeviceModel(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.DeviceModel{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Device pool ---

func (s *gormStore) CreateDevice(ctx context.Context, d *model.Device) error {
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *gormStore) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	var d model.Device
	if err := s.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &d, nil
}

func (s *gormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (s *gormStore) ListDevicesByModel(ctx context.Context, modelID string) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).
		Where("device_model_id = ?", modelID).
		Order("id ASC").
		Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (s *gormStore) UpdateDevice(ctx context.Context, d *model.Device) error {
	res := s.db.WithContext(ctx).Model(&model.Device{ID: d.ID}).Updates(map[string]any{
		"device_model_id": d.DeviceModelID,
		"serial_number":   d.SerialNumber,
		"asset_id":        d.AssetID,
		"status":          d.Status,
		"condition":       d.Condition,
		"notes":           d.Notes,
		"purchase_date":   d.PurchaseDate,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) SetDeviceStatus(ctx context.Context, id string, status model.DeviceStatus) (*model.Device, error) {
	var d model.Device
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&d, "id = ?", id).Error; err != nil {
			return translateNotFound(err)
		}
		d.Status = status
		return tx.Save(&d).Error
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *gormStore) DeleteDevice(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Device{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// translateNotFound maps gorm's sentinel to the domain error.
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
