package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/invoicely/internal/authgw/store"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

// Sweeper removes one kind of stale state and reports how much went.
type Sweeper struct {
	Name  string
	Sweep func(ctx context.Context) (int64, error)
}

// DeviceSweeper drops device records past their expiry.
func DeviceSweeper(devices store.Devices, now func() time.Time) Sweeper {
	if now == nil {
		now = time.Now
	}
	return Sweeper{
		Name: "expired_devices",
		Sweep: func(ctx context.Context) (int64, error) {
			return devices.DeleteExpiredDevices(ctx, now())
		},
	}
}

// HousekeepingService periodically runs its sweepers so expired device
// records and idle browser sessions do not pile up.
type HousekeepingService struct {
	Sweepers []Sweeper
	Logger   *slog.Logger
	Interval time.Duration

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to one hour.
func NewHousekeepingService(logger *slog.Logger, interval time.Duration, sweepers ...Sweeper) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Sweepers: sweepers,
		Logger:   slogx.OrDiscard(logger),
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs one sweep immediately and then every Interval until Stop. A
// service runs at most once.
func (s *HousekeepingService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "sweepers", len(s.Sweepers))
}

// Stop blocks until an in-progress sweep has finished. Stopping a service
// that never started is a no-op.
func (s *HousekeepingService) Stop() {
	if !s.started.Load() {
		return
	}
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce runs every sweeper. Each is independent; a failure in one does not
// stop the others.
func (s *HousekeepingService) RunOnce(ctx context.Context) {
	var succeeded int
	for _, sw := range s.Sweepers {
		n, err := sw.Sweep(ctx)
		if err != nil {
			s.Logger.Error("housekeeping sweep failed", "sweeper", sw.Name, "error", err)
			continue
		}
		succeeded++
		if n > 0 {
			s.Logger.Info("housekeeping sweep removed records", "sweeper", sw.Name, "removed", n)
		}
	}
	s.Logger.Debug("housekeeping cleanup completed", "successful_cleanups", succeeded)
}
