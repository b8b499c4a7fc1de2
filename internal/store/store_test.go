package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"device-lending-backend/internal/model"
)

// newTestStore opens an isolated in-memory database. The pool is capped at
// one connection so concurrent transactions serialize instead of tripping
// SQLite's busy handler.
func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.DeviceModel{},
		&model.Device{},
		&model.Reservation{},
		&model.StaffSubscription{},
	))
	return NewGormStore(db)
}

func seedModel(t *testing.T, s Store, id string, category model.DeviceCategory) {
	t.Helper()
	require.NoError(t, s.CreateDeviceModel(context.Background(), &model.DeviceModel{
		ID:       id,
		Brand:    "Dell",
		Model:    "Latitude 5420",
		Category: category,
	}))
}

func seedDevice(t *testing.T, s Store, id, modelID string, status model.DeviceStatus) {
	t.Helper()
	require.NoError(t, s.CreateDevice(context.Background(), &model.Device{
		ID:            id,
		DeviceModelID: modelID,
		SerialNumber:  "SN-" + id,
		AssetID:       "AST-" + id,
		Status:        status,
		Condition:     "Good",
	}))
}

func newReservation(deviceID, modelID, userID string) *model.Reservation {
	now := time.Now().UTC()
	return &model.Reservation{
		ID:            uuid.NewString(),
		UserID:        userID,
		UserEmail:     userID + "@example.edu",
		DeviceID:      deviceID,
		DeviceModelID: modelID,
		Status:        model.StatusReserved,
		ReservedAt:    now,
		ExpiresAt:     now.Add(24 * time.Hour),
	}
}

func TestCreateReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds for a free available device", func(t *testing.T) {
		s := newTestStore(t)
		seedModel(t, s, "model-a", model.CategoryLaptop)
		seedDevice(t, s, "dev-1", "model-a", model.DeviceAvailable)

		err := s.CreateReservation(ctx, newReservation("dev-1", "model-a", "u1"))
		assert.NoError(t, err)
	})

	t.Run("conflict when an open reservation exists", func(t *testing.T) {
		s := newTestStore(t)
		seedModel(t, s, "model-a", model.CategoryLaptop)
		seedDevice(t, s, "dev-1", "model-a", model.DeviceAvailable)

		require.NoError(t, s.CreateReservation(ctx, newReservation("dev-1", "model-a", "u1")))
		err := s.CreateReservation(ctx, newReservation("dev-1", "model-a", "u2"))
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("not found for unknown device", func(t *testing.T) {
		s := newTestStore(t)
		seedModel(t, s, "model-a", model.CategoryLaptop)

		err := s.CreateReservation(ctx, newReservation("dev-missing", "model-a", "u1"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("not found when device belongs to another model", func(t *testing.T) {
		s := newTestStore(t)
		seedModel(t, s, "model-a", model.CategoryLaptop)
		seedModel(t, s, "model-b", model.CategoryTablet)
		seedDevice(t, s, "dev-1", "model-a", model.DeviceAvailable)

		err := s.CreateReservation(ctx, newReservation("dev-1", "model-b", "u1"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unavailable for administrative statuses", func(t *testing.T) {
		s := newTestStore(t)
		seedModel(t, s, "model-a", model.CategoryLaptop)
		seedDevice(t, s, "dev-m", "model-a", model.DeviceMaintenance)

		err := s.CreateReservation(ctx, newReservation("dev-m", "model-a", "u1"))
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("closed reservations free the device again", func(t *testing.T) {
		s := newTestStore(t)
		seedModel(t, s, "model-a", model.CategoryLaptop)
		seedDevice(t, s, "dev-1", "model-a", model.DeviceAvailable)

		first := newReservation("dev-1", "model-a", "u1")
		require.NoError(t, s.CreateReservation(ctx, first))

		_, err := s.UpdateReservation(ctx, first.ID, func(r *model.Reservation) error {
			r.Status = model.StatusCancelled
			return nil
		})
		require.NoError(t, err)

		assert.NoError(t, s.CreateReservation(ctx, newReservation("dev-1", "model-a", "u2")))
	})
}

// TestCreateReservationRace is the core concurrency property: N racing
// creates for one free device yield exactly 1 success and N-1 conflicts.
func TestCreateReservationRace(t *testing.T) {
	const racers = 8

	s := newTestStore(t)
	seedModel(t, s, "model-a", model.CategoryLaptop)
	seedDevice(t, s, "dev-2", "model-a", model.DeviceAvailable)

	var wg sync.WaitGroup
	errs := make([]error, racers)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = s.CreateReservation(context.Background(), newReservation("dev-2", "model-a", "u"))
		}(i)
	}
	close(start)
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, racers-1, conflicts)

	open, err := s.OpenReservationDeviceIDs(context.Background(), "model-a")
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestUpdateReservation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedModel(t, s, "model-a", model.CategoryLaptop)
	seedDevice(t, s, "dev-1", "model-a", model.DeviceAvailable)

	r := newReservation("dev-1", "model-a", "u1")
	require.NoError(t, s.CreateReservation(ctx, r))

	t.Run("mutate error aborts unchanged", func(t *testing.T) {
		boom := assert.AnError
		_, err := s.UpdateReservation(ctx, r.ID, func(*model.Reservation) error { return boom })
		assert.ErrorIs(t, err, boom)

		got, err := s.GetReservation(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusReserved, got.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.UpdateReservation(ctx, uuid.NewString(), func(*model.Reservation) error { return nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListReservations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedModel(t, s, "model-a", model.CategoryLaptop)
	seedModel(t, s, "model-b", model.CategoryCamera)
	seedDevice(t, s, "dev-1", "model-a", model.DeviceAvailable)
	seedDevice(t, s, "dev-2", "model-b", model.DeviceAvailable)

	first := newReservation("dev-1", "model-a", "alice")
	first.ReservedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, s.CreateReservation(ctx, first))

	second := newReservation("dev-2", "model-b", "bob")
	require.NoError(t, s.CreateReservation(ctx, second))

	t.Run("orders most recent first", func(t *testing.T) {
		all, err := s.ListReservations(ctx, ReservationFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, second.ID, all[0].ID)
		assert.Equal(t, first.ID, all[1].ID)
	})

	t.Run("filters by user", func(t *testing.T) {
		mine, err := s.ListReservations(ctx, ReservationFilter{UserID: "alice"})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, first.ID, mine[0].ID)
	})

	t.Run("filters by model and status", func(t *testing.T) {
		got, err := s.ListReservations(ctx, ReservationFilter{
			DeviceModelID: "model-b",
			Status:        model.StatusReserved,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, second.ID, got[0].ID)
	})
}

func TestListExpiredReserved(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedModel(t, s, "model-a", model.CategoryLaptop)
	seedDevice(t, s, "dev-1", "model-a", model.DeviceAvailable)
	seedDevice(t, s, "dev-2", "model-a", model.DeviceAvailable)

	stale := newReservation("dev-1", "model-a", "u1")
	stale.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, s.CreateReservation(ctx, stale))

	fresh := newReservation("dev-2", "model-a", "u2")
	require.NoError(t, s.CreateReservation(ctx, fresh))

	expired, err := s.ListExpiredReserved(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
}

func TestSetDeviceStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedModel(t, s, "model-a", model.CategoryLaptop)
	seedDevice(t, s, "dev-1", "model-a", model.DeviceAvailable)

	d, err := s.SetDeviceStatus(ctx, "dev-1", model.DeviceMaintenance)
	require.NoError(t, err)
	assert.Equal(t, model.DeviceMaintenance, d.Status)

	_, err = s.SetDeviceStatus(ctx, "dev-missing", model.DeviceLost)
	assert.ErrorIs(t, err, ErrNotFound)
}
