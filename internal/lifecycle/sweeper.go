package lifecycle

import (
	"context"
	"log"
	"time"

	"device-lending-backend/config"
	"device-lending-backend/internal/model"
)

// Sweeper periodically runs the expiry sweep.
type Sweeper struct {
	cfg       config.SweepConfig
	engine    *Engine
	onExpired func([]model.Reservation)
}

// NewSweeper creates a sweeper. onExpired, if non-nil, is invoked with the
// records each sweep transitioned (used to fan out staff notifications).
func NewSweeper(cfg config.SweepConfig, engine *Engine, onExpired func([]model.Reservation)) *Sweeper {
	return &Sweeper{cfg: cfg, engine: engine, onExpired: onExpired}
}

// Run starts the sweep loop and blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Expiry sweep is disabled. Not starting.")
		return
	}
	log.Printf("Starting expiry sweep every %s...", s.cfg.Interval)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.sweepOnce(ctx)
	for {
		select {
		case <-ticker.C:
			s.sweepOnce(ctx)
		case <-ctx.Done():
			log.Println("Expiry sweep stopped.")
			return
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	expired, err := s.engine.SweepExpirations(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("sweep: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}
	log.Printf("sweep: expired %d reservation(s)", len(expired))
	if s.onExpired != nil {
		s.onExpired(expired)
	}
}
