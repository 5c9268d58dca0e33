package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pattarads/set-dividend-tracker-backend/internal/marketdata"
	"github.com/pattarads/set-dividend-tracker-backend/internal/pricecache"
	"github.com/pattarads/set-dividend-tracker-backend/internal/repository"
	"github.com/pattarads/set-dividend-tracker-backend/internal/service"
)

// stubMarketClient satisfies the provider interface without ever returning
// data, so handler tests exercise the stored ledger only.
type stubMarketClient struct{}

func (stubMarketClient) FetchDaily(_ context.Context, _ string, _, _ time.Time) ([]marketdata.Bar, error) {
	return nil, nil
}

// testServices wires the full service stack over a test database.
type testServices struct {
	system       *service.SystemService
	priceSync    *service.PriceSyncService
	positions    *service.PositionService
	taxCredits   *service.TaxCreditService
	entitlements *service.EntitlementService
	transactions *service.TransactionService
	dividends    *service.DividendService
}

func newTestServices(t *testing.T, db *sql.DB) testServices {
	t.Helper()

	logger := zerolog.Nop()
	stockRepo := repository.NewStockRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	dividendRepo := repository.NewDividendRepository(db)
	predictionRepo := repository.NewPredictionRepository(db)
	entitlementRepo := repository.NewEntitlementRepository(db)
	taxCreditRepo := repository.NewTaxCreditRepository(db)

	priceSync := service.NewPriceSyncService(priceRepo, holidayRepo, stockRepo,
		stubMarketClient{}, pricecache.New(time.Hour), logger)
	positions := service.NewPositionService(transactionRepo, positionRepo, priceSync, logger)
	taxCredits := service.NewTaxCreditService(taxCreditRepo, entitlementRepo, dividendRepo, stockRepo, logger)
	entitlements := service.NewEntitlementService(db, dividendRepo, transactionRepo, entitlementRepo,
		predictionRepo, stockRepo, positions, taxCredits, logger)
	transactions := service.NewTransactionService(db, transactionRepo, stockRepo, predictionRepo,
		positions, priceSync, entitlements, logger)
	dividends := service.NewDividendService(dividendRepo, predictionRepo, stockRepo, logger)

	return testServices{
		system:       service.NewSystemService(db, "test"),
		priceSync:    priceSync,
		positions:    positions,
		taxCredits:   taxCredits,
		entitlements: entitlements,
		transactions: transactions,
		dividends:    dividends,
	}
}

// jsonBody marshals v for use as a request body.
func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	return bytes.NewBuffer(data)
}
