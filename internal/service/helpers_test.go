package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pattarads/set-dividend-tracker-backend/internal/marketdata"
	"github.com/pattarads/set-dividend-tracker-backend/internal/pricecache"
	"github.com/pattarads/set-dividend-tracker-backend/internal/repository"
	"github.com/pattarads/set-dividend-tracker-backend/internal/testutil"
)

// fakeMarketClient serves canned provider bars per symbol and counts calls.
type fakeMarketClient struct {
	bars        map[string][]marketdata.Bar
	err         error
	fetchCalls  int
	lastFetched []marketdata.Bar
}

func (f *fakeMarketClient) FetchDaily(_ context.Context, symbol string, from, to time.Time) ([]marketdata.Bar, error) {
	f.fetchCalls++
	if f.err != nil {
		return nil, f.err
	}

	var out []marketdata.Bar
	for _, b := range f.bars[symbol] {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	f.lastFetched = out
	return out, nil
}

// testEnv wires the full service stack over an in-memory database with a fake
// market data provider.
type testEnv struct {
	db     *sql.DB
	client *fakeMarketClient

	stockRepo       *repository.StockRepository
	priceRepo       *repository.PriceRepository
	transactionRepo *repository.TransactionRepository
	positionRepo    *repository.PositionRepository
	dividendRepo    *repository.DividendRepository
	predictionRepo  *repository.PredictionRepository
	entitlementRepo *repository.EntitlementRepository
	taxCreditRepo   *repository.TaxCreditRepository

	priceSync    *PriceSyncService
	positions    *PositionService
	taxCredits   *TaxCreditService
	entitlements *EntitlementService
	transactions *TransactionService
	dividends    *DividendService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	client := &fakeMarketClient{bars: map[string][]marketdata.Bar{}}
	logger := zerolog.Nop()

	env := &testEnv{
		db:              db,
		client:          client,
		stockRepo:       repository.NewStockRepository(db),
		priceRepo:       repository.NewPriceRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		positionRepo:    repository.NewPositionRepository(db),
		dividendRepo:    repository.NewDividendRepository(db),
		predictionRepo:  repository.NewPredictionRepository(db),
		entitlementRepo: repository.NewEntitlementRepository(db),
		taxCreditRepo:   repository.NewTaxCreditRepository(db),
	}

	holidayRepo := repository.NewHolidayRepository(db)

	env.priceSync = NewPriceSyncService(env.priceRepo, holidayRepo, env.stockRepo, client, pricecache.New(time.Hour), logger)
	env.positions = NewPositionService(env.transactionRepo, env.positionRepo, env.priceSync, logger)
	env.taxCredits = NewTaxCreditService(env.taxCreditRepo, env.entitlementRepo, env.dividendRepo, env.stockRepo, logger)
	env.entitlements = NewEntitlementService(db, env.dividendRepo, env.transactionRepo, env.entitlementRepo,
		env.predictionRepo, env.stockRepo, env.positions, env.taxCredits, logger)
	env.transactions = NewTransactionService(db, env.transactionRepo, env.stockRepo, env.predictionRepo,
		env.positions, env.priceSync, env.entitlements, logger)
	env.dividends = NewDividendService(env.dividendRepo, env.predictionRepo, env.stockRepo, logger)

	return env
}

// providerBar builds one fake provider bar.
func providerBar(date time.Time, close float64, volume int64) marketdata.Bar {
	return marketdata.Bar{
		Date:   date,
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: volume,
	}
}

// closeEnough compares floats with a fixed epsilon.
func closeEnough(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
