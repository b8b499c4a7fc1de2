// Package availability derives per-model device availability from the device
// pool and the reservation ledger. It is a read-only snapshot; the atomic
// check in the ledger, not this calculator, is what prevents double-booking.
package availability

import (
	"context"

	"device-lending-backend/internal/model"
	"device-lending-backend/internal/store"
)

// Availability is the per-model availability summary.
type Availability struct {
	DeviceModelID     string `json:"deviceModelId"`
	TotalDevices      int    `json:"totalDevices"`
	AvailableCount    int    `json:"availableCount"`
	CanReserve        bool   `json:"canReserve"`
	AvailableDeviceID string `json:"availableDeviceId,omitempty"`
}

// Calculator computes availability snapshots.
type Calculator struct {
	store store.Store
}

// NewCalculator creates a Calculator over the given store.
func NewCalculator(s store.Store) *Calculator {
	return &Calculator{store: s}
}

// Compute returns the availability summary for a device model.
//
// A device counts toward the total unless it is Retired or Lost; Maintenance
// and Unavailable units stay in the total but are never free. A device is
// free when its administrative status is Available and no open reservation
// references it. The advisory device id is the lowest free id, so repeated
// calls are deterministic absent state changes; callers must still expect
// Conflict from a reservation attempt, since the pool can change in between.
func (c *Calculator) Compute(ctx context.Context, modelID string) (*Availability, error) {
	if _, err := c.store.GetDeviceModel(ctx, modelID); err != nil {
		return nil, err
	}

	devices, err := c.store.ListDevicesByModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	reserved, err := c.store.OpenReservationDeviceIDs(ctx, modelID)
	if err != nil {
		return nil, err
	}

	avail := &Availability{DeviceModelID: modelID}
	for _, d := range devices {
		if d.Status == model.DeviceRetired || d.Status == model.DeviceLost {
			continue
		}
		avail.TotalDevices++

		if d.Status != model.DeviceAvailable || reserved[d.ID] {
			continue
		}
		avail.AvailableCount++
		// Devices arrive ordered by id, so the first free one is the lowest.
		if avail.AvailableDeviceID == "" {
			avail.AvailableDeviceID = d.ID
		}
	}
	avail.CanReserve = avail.AvailableCount > 0
	return avail, nil
}
