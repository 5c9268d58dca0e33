package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/marketdata"
	"github.com/pattarads/set-dividend-tracker-backend/internal/testutil"
)

func TestEnsurePricesFetchesMissingDays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	// Mon 2026-01-05 through Fri 2026-01-09.
	from := testutil.Day(2026, 1, 5)
	to := testutil.Day(2026, 1, 9)
	env.client.bars["PTT"] = []marketdata.Bar{
		providerBar(testutil.Day(2026, 1, 5), 30.00, 1000),
		providerBar(testutil.Day(2026, 1, 6), 30.50, 1200),
		providerBar(testutil.Day(2026, 1, 7), 30.25, 900),
		providerBar(testutil.Day(2026, 1, 8), 31.00, 1500),
		providerBar(testutil.Day(2026, 1, 9), 31.50, 1100),
	}

	bars, err := env.priceSync.EnsurePrices(ctx, "PTT", from, to)
	if err != nil {
		t.Fatalf("EnsurePrices returned error: %v", err)
	}
	if len(bars) != 5 {
		t.Fatalf("Expected 5 bars, got %d", len(bars))
	}
	// Newest first.
	if !bars[0].TradingDate.Equal(to) {
		t.Errorf("Expected newest bar first, got %v", bars[0].TradingDate)
	}
	testutil.AssertRowCount(t, env.db, "price_bar", 5)
}

func TestEnsurePricesIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	from := testutil.Day(2026, 1, 5)
	to := testutil.Day(2026, 1, 9)
	env.client.bars["PTT"] = []marketdata.Bar{
		providerBar(testutil.Day(2026, 1, 5), 30, 1000),
		providerBar(testutil.Day(2026, 1, 6), 31, 1000),
		providerBar(testutil.Day(2026, 1, 7), 32, 1000),
		providerBar(testutil.Day(2026, 1, 8), 33, 1000),
		providerBar(testutil.Day(2026, 1, 9), 34, 1000),
	}

	if _, err := env.priceSync.EnsurePrices(ctx, "PTT", from, to); err != nil {
		t.Fatalf("First EnsurePrices returned error: %v", err)
	}
	callsAfterFirst := env.client.fetchCalls

	bars, err := env.priceSync.EnsurePrices(ctx, "PTT", from, to)
	if err != nil {
		t.Fatalf("Second EnsurePrices returned error: %v", err)
	}
	if env.client.fetchCalls != callsAfterFirst {
		t.Errorf("Expected no provider calls on fully covered range, got %d extra",
			env.client.fetchCalls-callsAfterFirst)
	}
	if len(bars) != 5 {
		t.Errorf("Expected 5 bars from storage, got %d", len(bars))
	}
}

func TestEnsurePricesFiltersWeekendAndZeroVolume(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	env.client.bars["PTT"] = []marketdata.Bar{
		providerBar(testutil.Day(2026, 1, 9), 30, 1000),
		providerBar(testutil.Day(2026, 1, 10), 31, 1000), // Saturday
		providerBar(testutil.Day(2026, 1, 12), 32, 0),    // no trades
		providerBar(testutil.Day(2026, 1, 13), 33, 800),
	}

	bars, err := env.priceSync.EnsurePrices(ctx, "PTT", testutil.Day(2026, 1, 9), testutil.Day(2026, 1, 13))
	if err != nil {
		t.Fatalf("EnsurePrices returned error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("Expected 2 bars after filtering, got %d", len(bars))
	}
	for _, b := range bars {
		if b.TradingDate.Equal(testutil.Day(2026, 1, 10)) || b.TradingDate.Equal(testutil.Day(2026, 1, 12)) {
			t.Errorf("Filtered date %v made it into the ledger", b.TradingDate)
		}
	}
}

func TestEnsurePricesComputesChangeAgainstPreviousClose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	// Friday close already stored; Monday comes from the provider.
	testutil.CreatePriceBar(t, env.db, "PTT", testutil.Day(2026, 1, 9), 30.00)
	env.client.bars["PTT"] = []marketdata.Bar{
		providerBar(testutil.Day(2026, 1, 12), 31.50, 1000),
	}

	bars, err := env.priceSync.EnsurePrices(ctx, "PTT", testutil.Day(2026, 1, 12), testutil.Day(2026, 1, 12))
	if err != nil {
		t.Fatalf("EnsurePrices returned error: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("Expected 1 bar, got %d", len(bars))
	}
	if !closeEnough(bars[0].Change, 1.50) {
		t.Errorf("Change = %v, want 1.50", bars[0].Change)
	}
	if !closeEnough(bars[0].PercentChange, 5.0) {
		t.Errorf("PercentChange = %v, want 5.0", bars[0].PercentChange)
	}
}

func TestEnsurePricesRateLimitReturnsPartialData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	testutil.CreatePriceBar(t, env.db, "PTT", testutil.Day(2026, 1, 5), 30.00)
	env.client.err = apperrors.ErrRateLimited

	bars, err := env.priceSync.EnsurePrices(ctx, "PTT", testutil.Day(2026, 1, 5), testutil.Day(2026, 1, 9))
	if err != nil {
		t.Fatalf("Expected graceful degradation on rate limit, got error: %v", err)
	}
	if len(bars) != 1 {
		t.Errorf("Expected the stored bar back, got %d bars", len(bars))
	}
}

func TestEnsurePricesInfersHolidays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	// The provider has nothing for these past weekdays, so they must be
	// recorded as holidays and never re-queried.
	from := testutil.Day(2026, 1, 5)
	to := testutil.Day(2026, 1, 6)

	if _, err := env.priceSync.EnsurePrices(ctx, "PTT", from, to); err != nil {
		t.Fatalf("EnsurePrices returned error: %v", err)
	}
	testutil.AssertRowCount(t, env.db, "market_holiday", 2)

	callsAfterFirst := env.client.fetchCalls
	if _, err := env.priceSync.EnsurePrices(ctx, "PTT", from, to); err != nil {
		t.Fatalf("Second EnsurePrices returned error: %v", err)
	}
	if env.client.fetchCalls != callsAfterFirst {
		t.Error("Expected inferred holidays to suppress further provider calls")
	}
}

func TestEnsurePricesValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	_, err := env.priceSync.EnsurePrices(ctx, "PTT", testutil.Day(2026, 1, 9), testutil.Day(2026, 1, 5))
	if !errors.Is(err, apperrors.ErrInvalidDateRange) {
		t.Errorf("Expected ErrInvalidDateRange, got %v", err)
	}

	_, err = env.priceSync.EnsurePrices(ctx, "NOPE", testutil.Day(2026, 1, 5), testutil.Day(2026, 1, 9))
	if !errors.Is(err, apperrors.ErrStockNotFound) {
		t.Errorf("Expected ErrStockNotFound, got %v", err)
	}
}

func TestPriceOnDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)
	testutil.CreatePriceBar(t, env.db, "PTT", testutil.Day(2026, 1, 9), 30.25)

	close, err := env.priceSync.PriceOnDate(ctx, "PTT", testutil.Day(2026, 1, 9))
	if err != nil {
		t.Fatalf("PriceOnDate returned error: %v", err)
	}
	if !closeEnough(close, 30.25) {
		t.Errorf("PriceOnDate = %v, want 30.25", close)
	}

	// Saturday: never a trading day.
	_, err = env.priceSync.PriceOnDate(ctx, "PTT", testutil.Day(2026, 1, 10))
	if !errors.Is(err, apperrors.ErrPriceNotFound) {
		t.Errorf("Expected ErrPriceNotFound for a weekend, got %v", err)
	}
}

func TestLatestClose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	_, err := env.priceSync.LatestClose(ctx, "PTT")
	if !errors.Is(err, apperrors.ErrPriceNotFound) {
		t.Errorf("Expected ErrPriceNotFound with an empty ledger, got %v", err)
	}

	testutil.CreatePriceBar(t, env.db, "PTT", testutil.Day(2026, 1, 8), 29.75)
	testutil.CreatePriceBar(t, env.db, "PTT", testutil.Day(2026, 1, 9), 30.25)

	close, err := env.priceSync.LatestClose(ctx, "PTT")
	if err != nil {
		t.Fatalf("LatestClose returned error: %v", err)
	}
	if !closeEnough(close, 30.25) {
		t.Errorf("LatestClose = %v, want 30.25", close)
	}
}
