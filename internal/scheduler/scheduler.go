// Package scheduler runs the nightly price sync after SET market close.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pattarads/set-dividend-tracker-backend/internal/config"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
	"github.com/pattarads/set-dividend-tracker-backend/internal/service"
)

// Scheduler owns the cron runner and the scheduled sync job.
type Scheduler struct {
	cron      *cron.Cron
	priceSync *service.PriceSyncService
	cfg       config.SyncConfig
	logger    zerolog.Logger

	// syncing guards against a run overlapping a previous one that is still
	// waiting on the rate-limited provider.
	syncing atomic.Bool
}

// New creates a Scheduler from the sync configuration. The cron expression
// includes a seconds field and is evaluated in the configured market timezone.
func New(priceSync *service.PriceSyncService, cfg config.SyncConfig, logger zerolog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		priceSync: priceSync,
		cfg:       cfg,
		logger:    logger,
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, s.runSync); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled jobs in their own goroutines.
func (s *Scheduler) Start() {
	if len(s.cfg.Symbols) == 0 {
		s.logger.Info().Msg("no sync symbols configured, scheduler idle")
	}
	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.cfg.Schedule).
		Str("timezone", s.cfg.Timezone).
		Int("symbols", len(s.cfg.Symbols)).
		Msg("price sync scheduler started")
}

// Stop stops the cron runner and waits for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// runSync syncs the recent window for every configured symbol, pausing
// between symbols to stay under provider rate limits. A run that would
// overlap a still-active previous run is skipped.
func (s *Scheduler) runSync() {
	if !s.syncing.CompareAndSwap(false, true) {
		s.logger.Warn().Msg("previous price sync still running, skipping this run")
		return
	}
	defer s.syncing.Store(false)

	ctx := context.Background()
	to := dateutil.Today()
	from := to.AddDate(0, 0, -s.cfg.LookbackDays)

	for i, symbol := range s.cfg.Symbols {
		if i > 0 {
			time.Sleep(s.cfg.SymbolDelay)
		}

		bars, err := s.priceSync.EnsurePrices(ctx, symbol, from, to)
		if err != nil {
			s.logger.Error().Err(err).Str("symbol", symbol).Msg("scheduled price sync failed")
			continue
		}
		s.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("scheduled price sync done")
	}
}
