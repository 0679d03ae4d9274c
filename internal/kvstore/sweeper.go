package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
)

// Sweeper periodically evicts snapshots older than the retention window.
// It complements the lazy eviction the persistence engine performs on read:
// snapshots for pages that are never revisited still get cleaned up.
type Sweeper struct {
	store    Store
	settings schemas.Settings
	interval time.Duration
	limiter  *rate.Limiter
	log      *zap.Logger
	now      func() time.Time
}

// NewSweeper creates a sweeper. deletesPerSecond throttles eviction so a
// large backlog does not hammer the shared store; zero or negative
// disables throttling.
func NewSweeper(store Store, settings schemas.Settings, interval time.Duration, deletesPerSecond float64, logger *zap.Logger) *Sweeper {
	var limiter *rate.Limiter
	if deletesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(deletesPerSecond), 1)
	}
	return &Sweeper{
		store:    store,
		settings: settings.Normalize(),
		interval: interval,
		limiter:  limiter,
		log:      logger.Named("sweeper"),
		now:      time.Now,
	}
}

// Run sweeps on the configured interval until ctx is cancelled. Individual
// sweep failures are logged and retried next tick; they never stop the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("Retention sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce lists every stored snapshot and deletes the expired ones,
// returning the number removed. The reserved settings key and entries that
// fail to decode are left alone.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	sweepID := uuid.NewString()
	entries, err := s.store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list store entries: %w", err)
	}

	now := s.now()
	var expired []string
	for key, value := range entries {
		if key == schemas.SettingsKey {
			continue
		}
		snap, err := schemas.UnmarshalSnapshot(value)
		if err != nil {
			// Not a snapshot we understand. Leave it for a future version.
			s.log.Debug("Skipping undecodable entry", zap.String("sweep_id", sweepID), zap.String("key", key))
			continue
		}
		if snap.Expired(now, s.settings.RetentionDays) {
			expired = append(expired, key)
		}
	}

	removed := 0
	for _, key := range expired {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return removed, err
			}
		}
		if err := s.store.Remove(ctx, key); err != nil {
			return removed, fmt.Errorf("failed to remove expired snapshot %q: %w", key, err)
		}
		removed++
	}

	if removed > 0 {
		s.log.Info("Retention sweep complete",
			zap.String("sweep_id", sweepID),
			zap.Int("removed", removed),
			zap.Int("scanned", len(entries)))
	}
	return removed, nil
}
