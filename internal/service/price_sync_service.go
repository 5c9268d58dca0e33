// Package service implements the business logic for the price ledger,
// position reconstruction, dividend entitlements and tax credits.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
	"github.com/pattarads/set-dividend-tracker-backend/internal/marketdata"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/pricecache"
	"github.com/pattarads/set-dividend-tracker-backend/internal/repository"
)

// MarketDataClient fetches daily bars from the external provider.
type MarketDataClient interface {
	FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]marketdata.Bar, error)
}

// PriceSyncService keeps the local price ledger consistent with the external
// provider. Reads are served from storage; gaps are detected, fetched in
// provider-sized chunks and persisted before the merged view is returned.
//
// Concurrent syncs for the same symbol are collapsed: identical requests share
// one flight, and distinct requests for the same symbol serialize on a
// per-symbol lock so gap detection never races with an in-progress insert.
type PriceSyncService struct {
	priceRepo   *repository.PriceRepository
	holidayRepo *repository.HolidayRepository
	stockRepo   *repository.StockRepository
	client      MarketDataClient
	cache       pricecache.Cache
	logger      zerolog.Logger

	flights singleflight.Group
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewPriceSyncService creates a new PriceSyncService.
func NewPriceSyncService(
	priceRepo *repository.PriceRepository,
	holidayRepo *repository.HolidayRepository,
	stockRepo *repository.StockRepository,
	client MarketDataClient,
	cache pricecache.Cache,
	logger zerolog.Logger,
) *PriceSyncService {
	return &PriceSyncService{
		priceRepo:   priceRepo,
		holidayRepo: holidayRepo,
		stockRepo:   stockRepo,
		client:      client,
		cache:       cache,
		logger:      logger,
		locks:       map[string]*sync.Mutex{},
	}
}

// EnsurePrices guarantees the ledger covers [from,to] for symbol and returns
// the bars in that window, newest first. Missing spans are fetched from the
// provider; a rate-limited fetch degrades gracefully and returns whatever is
// stored plus whatever was fetched before the limit hit.
func (s *PriceSyncService) EnsurePrices(ctx context.Context, symbol string, from, to time.Time) ([]model.PriceBar, error) {
	from = dateutil.Normalize(from)
	to = dateutil.Normalize(to)
	if from.After(to) {
		return nil, fmt.Errorf("%w: from %s after to %s", apperrors.ErrInvalidDateRange,
			from.Format(dateutil.DayFormat), to.Format(dateutil.DayFormat))
	}

	if _, err := s.stockRepo.GetStock(ctx, symbol); err != nil {
		return nil, err
	}

	key := symbol + "|" + from.Format(dateutil.DayFormat) + "|" + to.Format(dateutil.DayFormat)
	v, err, _ := s.flights.Do(key, func() (any, error) {
		lock := s.symbolLock(symbol)
		lock.Lock()
		defer lock.Unlock()
		return s.ensureLocked(ctx, symbol, from, to)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.PriceBar), nil
}

// symbolLock returns the mutex serializing syncs for one symbol.
func (s *PriceSyncService) symbolLock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[symbol] = lock
	}
	return lock
}

func (s *PriceSyncService) ensureLocked(ctx context.Context, symbol string, from, to time.Time) ([]model.PriceBar, error) {
	stored, err := s.priceRepo.GetBars(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	covered := make(map[int64]bool, len(stored))
	for _, b := range stored {
		covered[b.TradingDate.Unix()] = true
	}

	holidayList, err := s.holidayRepo.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	holidays := make(map[int64]bool, len(holidayList))
	for _, h := range holidayList {
		holidays[h.HolidayDate.Unix()] = true
	}

	missing := dateutil.MissingRanges(from, to, covered, holidays)
	if len(missing) == 0 {
		return sortBarsDesc(stored), nil
	}

	fetched, err := s.fetchMissing(ctx, symbol, missing, covered)
	if err != nil {
		return nil, err
	}

	if len(fetched) > 0 {
		inserted, err := s.priceRepo.InsertBars(ctx, fetched)
		if err != nil {
			return nil, err
		}
		if inserted > 0 {
			s.cache.Invalidate(symbol)
		}
		s.logger.Info().
			Str("symbol", symbol).
			Int("fetched", len(fetched)).
			Int64("inserted", inserted).
			Msg("price sync completed")
	}

	return sortBarsDesc(append(stored, fetched...)), nil
}

// fetchMissing fetches each missing range in provider-sized chunks, computing
// the change columns against a running previous close. A rate-limit error
// stops fetching but is not propagated; all other provider errors are.
func (s *PriceSyncService) fetchMissing(ctx context.Context, symbol string, missing []dateutil.Range, covered map[int64]bool) ([]model.PriceBar, error) {
	today := dateutil.Today()
	var out []model.PriceBar

	for _, rng := range missing {
		lastClose := 0.0
		if prev, err := s.priceRepo.LatestBarBefore(ctx, symbol, rng.From); err != nil {
			return nil, err
		} else if prev != nil {
			lastClose = prev.Close
		}

		for _, chunk := range dateutil.SplitRange(rng, marketdata.MaxWindowDays) {
			bars, err := s.client.FetchDaily(ctx, symbol, chunk.From, chunk.To)
			if errors.Is(err, apperrors.ErrRateLimited) {
				s.logger.Warn().
					Str("symbol", symbol).
					Str("from", chunk.From.Format(dateutil.DayFormat)).
					Str("to", chunk.To.Format(dateutil.DayFormat)).
					Msg("provider rate limited, returning partial price data")
				return out, nil
			}
			if err != nil {
				return nil, err
			}

			converted := s.convertBars(symbol, bars, covered, &lastClose)
			out = append(out, converted...)

			// An empty weekday chunk entirely in the past means those days
			// were market holidays. Recording them stops every later sync
			// from re-querying the provider for the same silence.
			if len(converted) == 0 && chunk.To.Before(today) {
				s.inferHolidays(ctx, chunk)
			}
		}
	}

	return out, nil
}

// convertBars turns provider bars into ledger rows, dropping weekend rows,
// zero-volume rows and dates already present.
func (s *PriceSyncService) convertBars(symbol string, bars []marketdata.Bar, covered map[int64]bool, lastClose *float64) []model.PriceBar {
	out := make([]model.PriceBar, 0, len(bars))

	for _, b := range bars {
		if dateutil.IsWeekend(b.Date) || b.Volume == 0 || covered[b.Date.Unix()] {
			continue
		}

		var change, pct float64
		if *lastClose > 0 {
			change = b.Close - *lastClose
			pct = change / *lastClose * 100
		}

		volume := decimal.NewFromInt(b.Volume)
		out = append(out, model.PriceBar{
			Symbol:        symbol,
			TradingDate:   b.Date,
			Open:          b.Open,
			High:          b.High,
			Low:           b.Low,
			Close:         b.Close,
			Change:        change,
			PercentChange: pct,
			VolumeShares:  volume,
			VolumeValue:   volume.Mul(decimal.NewFromFloat(b.Close)),
		})

		covered[b.Date.Unix()] = true
		*lastClose = b.Close
	}

	return out
}

// inferHolidays records every weekday of an empty past chunk as a market
// holiday. Failures only cost a redundant future fetch, so they are logged
// and swallowed.
func (s *PriceSyncService) inferHolidays(ctx context.Context, chunk dateutil.Range) {
	for d := chunk.From; !d.After(chunk.To); d = d.AddDate(0, 0, 1) {
		if dateutil.IsWeekend(d) {
			continue
		}
		if err := s.holidayRepo.UpsertHoliday(ctx, d, "Inferred: no trading data"); err != nil {
			s.logger.Warn().Err(err).
				Str("date", d.Format(dateutil.DayFormat)).
				Msg("failed to record inferred holiday")
		}
	}
}

// LatestClose returns the most recent known close for symbol, served from the
// in-memory cache when fresh.
func (s *PriceSyncService) LatestClose(ctx context.Context, symbol string) (float64, error) {
	if close, ok := s.cache.LatestClose(symbol); ok {
		return close, nil
	}

	bar, err := s.priceRepo.LatestBar(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if bar == nil {
		return 0, fmt.Errorf("%w: %s", apperrors.ErrPriceNotFound, symbol)
	}

	s.cache.SetLatestClose(symbol, bar.Close)
	return bar.Close, nil
}

// PriceOnDate returns the close price for symbol on the given trading date,
// syncing the ledger first if the date is not yet covered. Returns
// apperrors.ErrPriceNotFound when the date turns out to be a non-trading day.
func (s *PriceSyncService) PriceOnDate(ctx context.Context, symbol string, date time.Time) (float64, error) {
	date = dateutil.Normalize(date)

	bars, err := s.EnsurePrices(ctx, symbol, date, date)
	if err != nil {
		return 0, err
	}
	for _, b := range bars {
		if b.TradingDate.Equal(date) {
			return b.Close, nil
		}
	}

	return 0, fmt.Errorf("%w: %s on %s", apperrors.ErrPriceNotFound, symbol, date.Format(dateutil.DayFormat))
}

// History returns every stored bar for symbol, newest first, without
// triggering a provider fetch.
func (s *PriceSyncService) History(ctx context.Context, symbol string) ([]model.PriceBar, error) {
	if _, err := s.stockRepo.GetStock(ctx, symbol); err != nil {
		return nil, err
	}
	return s.priceRepo.GetAllBars(ctx, symbol)
}

func sortBarsDesc(bars []model.PriceBar) []model.PriceBar {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].TradingDate.After(bars[j].TradingDate)
	})
	return bars
}
