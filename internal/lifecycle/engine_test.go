package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"pgregory.net/rapid"

	"device-lending-backend/config"
	"device-lending-backend/internal/model"
	"device-lending-backend/internal/store"
)

func testPolicy() config.ReservationConfig {
	cfg := config.Config{}
	config.ApplyDefaults(&cfg)
	return cfg.Reservation
}

// newTestDB opens an isolated in-memory database. rapid.TB is the common
// subset of *testing.T and *rapid.T, so the property test shares the helper.
func newTestDB(t rapid.TB) store.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.DeviceModel{}, &model.Device{}, &model.Reservation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewGormStore(db)
}

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	s := newTestDB(t)
	return NewEngine(testPolicy(), s), s
}

func seedPool(t rapid.TB, s store.Store, modelID string, category model.DeviceCategory, deviceIDs ...string) {
	ctx := context.Background()
	if err := s.CreateDeviceModel(ctx, &model.DeviceModel{
		ID: modelID, Brand: "Canon", Model: "EOS R6", Category: category,
	}); err != nil {
		t.Fatalf("seed model: %v", err)
	}
	for _, id := range deviceIDs {
		if err := s.CreateDevice(ctx, &model.Device{
			ID: id, DeviceModelID: modelID, SerialNumber: "SN-" + id, Status: model.DeviceAvailable,
		}); err != nil {
			t.Fatalf("seed device: %v", err)
		}
	}
}

// forceExpiry backdates the collection deadline so the record is sweepable.
func forceExpiry(t *testing.T, s store.Store, id string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, s.DB().Model(&model.Reservation{}).
		Where("id = ?", id).
		Update("expires_at", expiresAt).Error)
}

func TestCreateSetsCollectionWindow(t *testing.T) {
	eng, s := newTestEngine(t)
	seedPool(t, s, "model-a", model.CategoryLaptop, "dev-1")

	before := time.Now().UTC()
	r, err := eng.Create(context.Background(), CreateParams{
		DeviceID: "dev-1", DeviceModelID: "model-a", UserID: "alice", UserEmail: "alice@example.edu",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusReserved, r.Status)
	assert.WithinDuration(t, before.Add(24*time.Hour), r.ExpiresAt, 5*time.Second)
	assert.Equal(t, 24*time.Hour, r.ExpiresAt.Sub(r.ReservedAt))
}

func TestNormalLoanPath(t *testing.T) {
	eng, s := newTestEngine(t)
	seedPool(t, s, "model-a", model.CategoryLaptop, "dev-1")
	ctx := context.Background()

	r, err := eng.Create(ctx, CreateParams{
		DeviceID: "dev-1", DeviceModelID: "model-a", UserID: "alice", UserEmail: "alice@example.edu",
	})
	require.NoError(t, err)

	collected, err := eng.Collect(ctx, r.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCollected, collected.Status)
	require.NotNil(t, collected.CollectedAt)
	require.NotNil(t, collected.ReturnDueAt)
	// Laptops carry the 14-day loan period from the policy table.
	assert.Equal(t, 14*24*time.Hour, collected.ReturnDueAt.Sub(*collected.CollectedAt))

	returned, err := eng.Return(ctx, r.ID, "scratched lid")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnedAt)
	assert.Contains(t, returned.Notes, "scratched lid")
}

func TestLoanPeriodFallsBackToDefault(t *testing.T) {
	eng, s := newTestEngine(t)
	seedPool(t, s, "model-kb", model.CategoryKeyboard, "dev-kb")
	ctx := context.Background()

	r, err := eng.Create(ctx, CreateParams{
		DeviceID: "dev-kb", DeviceModelID: "model-kb", UserID: "alice", UserEmail: "a@example.edu",
	})
	require.NoError(t, err)

	collected, err := eng.Collect(ctx, r.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, collected.ReturnDueAt.Sub(*collected.CollectedAt))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("owner can cancel a reserved record", func(t *testing.T) {
		eng, s := newTestEngine(t)
		seedPool(t, s, "model-a", model.CategoryLaptop, "dev-1")
		r, err := eng.Create(ctx, CreateParams{DeviceID: "dev-1", DeviceModelID: "model-a", UserID: "alice"})
		require.NoError(t, err)

		cancelled, err := eng.Cancel(ctx, r.ID, Actor{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, cancelled.Status)
		assert.NotNil(t, cancelled.CancelledAt)
	})

	t.Run("staff can cancel on behalf of the user", func(t *testing.T) {
		eng, s := newTestEngine(t)
		seedPool(t, s, "model-a", model.CategoryLaptop, "dev-1")
		r, err := eng.Create(ctx, CreateParams{DeviceID: "dev-1", DeviceModelID: "model-a", UserID: "alice"})
		require.NoError(t, err)

		_, err = eng.Cancel(ctx, r.ID, Actor{UserID: "desk-staff", Staff: true})
		assert.NoError(t, err)
	})

	t.Run("forbidden for another user", func(t *testing.T) {
		eng, s := newTestEngine(t)
		seedPool(t, s, "model-a", model.CategoryLaptop, "dev-1")
		r, err := eng.Create(ctx, CreateParams{DeviceID: "dev-1", DeviceModelID: "model-a", UserID: "alice"})
		require.NoError(t, err)

		_, err = eng.Cancel(ctx, r.ID, Actor{UserID: "mallory"})
		assert.ErrorIs(t, err, ErrForbidden)

		got, err := s.GetReservation(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusReserved, got.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		_, err := eng.Cancel(ctx, "no-such-id", Actor{UserID: "alice"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestIllegalTransitions(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedPool(t, s, "model-a", model.CategoryLaptop, "dev-1", "dev-2")

	collectedRes, err := eng.Create(ctx, CreateParams{DeviceID: "dev-1", DeviceModelID: "model-a", UserID: "alice"})
	require.NoError(t, err)
	_, err = eng.Collect(ctx, collectedRes.ID, false)
	require.NoError(t, err)

	expiredRes, err := eng.Create(ctx, CreateParams{DeviceID: "dev-2", DeviceModelID: "model-a", UserID: "bob"})
	require.NoError(t, err)
	forceExpiry(t, s, expiredRes.ID, time.Now().UTC().Add(-time.Hour))
	swept, err := eng.SweepExpirations(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, swept, 1)

	t.Run("collect on collected", func(t *testing.T) {
		_, err := eng.Collect(ctx, collectedRes.ID, false)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
	t.Run("collect on expired", func(t *testing.T) {
		_, err := eng.Collect(ctx, expiredRes.ID, false)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
	t.Run("cancel on collected", func(t *testing.T) {
		_, err := eng.Cancel(ctx, collectedRes.ID, Actor{UserID: "alice"})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
	t.Run("return on reserved", func(t *testing.T) {
		r, err := eng.Create(ctx, CreateParams{DeviceID: "dev-2", DeviceModelID: "model-a", UserID: "carol"})
		require.NoError(t, err)
		_, err = eng.Return(ctx, r.ID, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
	t.Run("return on expired", func(t *testing.T) {
		_, err := eng.Return(ctx, expiredRes.ID, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestCollectDeadline(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedPool(t, s, "model-a", model.CategoryLaptop, "dev-1")

	r, err := eng.Create(ctx, CreateParams{DeviceID: "dev-1", DeviceModelID: "model-a", UserID: "alice"})
	require.NoError(t, err)
	forceExpiry(t, s, r.ID, time.Now().UTC().Add(-time.Minute))

	t.Run("past the deadline fails", func(t *testing.T) {
		_, err := eng.Collect(ctx, r.ID, false)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("staff override succeeds", func(t *testing.T) {
		collected, err := eng.Collect(ctx, r.ID, true)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCollected, collected.Status)
	})
}

func TestSweepExpirations(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedPool(t, s, "model-a", model.CategoryLaptop, "dev-1", "dev-2")

	// dev-1 reserved at T0 with the default 24h window; swept at T0+25h.
	stale, err := eng.Create(ctx, CreateParams{DeviceID: "dev-1", DeviceModelID: "model-a", UserID: "alice"})
	require.NoError(t, err)
	fresh, err := eng.Create(ctx, CreateParams{DeviceID: "dev-2", DeviceModelID: "model-a", UserID: "bob"})
	require.NoError(t, err)

	sweepAt := stale.ReservedAt.Add(25 * time.Hour)

	expired, err := eng.SweepExpirations(ctx, sweepAt)
	require.NoError(t, err)
	require.Len(t, expired, 2) // both windows are 24h, both are past due at T0+25h
	for _, r := range expired {
		assert.Equal(t, model.StatusExpired, r.Status)
	}

	t.Run("idempotent on re-run with the same now", func(t *testing.T) {
		again, err := eng.SweepExpirations(ctx, sweepAt)
		require.NoError(t, err)
		assert.Empty(t, again)

		got, err := s.GetReservation(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusExpired, got.Status)
	})

	t.Run("no-op before the deadline", func(t *testing.T) {
		none, err := eng.SweepExpirations(ctx, stale.ReservedAt.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestIsOverdue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		r    model.Reservation
		want bool
	}{
		{"collected past due", model.Reservation{Status: model.StatusCollected, ReturnDueAt: &past}, true},
		{"collected not yet due", model.Reservation{Status: model.StatusCollected, ReturnDueAt: &future}, false},
		{"collected without due date", model.Reservation{Status: model.StatusCollected}, false},
		{"reserved past due date", model.Reservation{Status: model.StatusReserved, ReturnDueAt: &past}, false},
		{"returned past due date", model.Reservation{Status: model.StatusReturned, ReturnDueAt: &past}, false},
		{"expired", model.Reservation{Status: model.StatusExpired, ReturnDueAt: &past}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.r
			assert.Equal(t, tc.want, IsOverdue(tc.r, now))
			assert.Equal(t, before, tc.r) // never mutates
		})
	}
}
