package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/testutil"
)

func TestCreateDividend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	in := CreateDividendInput{
		Symbol:           "PTT",
		AnnouncementDate: testutil.Day(2026, 1, 15),
		ExDividendDate:   testutil.Day(2026, 2, 2),
		PaymentDate:      testutil.Day(2026, 2, 23),
		DividendPerShare: 1.75,
	}

	d, err := env.dividends.CreateDividend(ctx, in)
	if err != nil {
		t.Fatalf("CreateDividend returned error: %v", err)
	}
	if d.CalculationStatus != model.CalculationPending {
		t.Errorf("CalculationStatus = %s, want PENDING", d.CalculationStatus)
	}
	// An omitted record date defaults to the day after the ex-date.
	if !d.RecordDate.Equal(testutil.Day(2026, 2, 3)) {
		t.Errorf("RecordDate = %v, want 2026-02-03", d.RecordDate)
	}

	stored, err := env.dividends.GetDividend(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDividend returned error: %v", err)
	}
	if stored.DividendPerShare != 1.75 {
		t.Errorf("DividendPerShare = %v, want 1.75", stored.DividendPerShare)
	}
}

func TestCreateDividendValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	base := CreateDividendInput{
		Symbol:           "PTT",
		ExDividendDate:   testutil.Day(2026, 2, 2),
		PaymentDate:      testutil.Day(2026, 2, 23),
		DividendPerShare: 1.75,
	}

	t.Run("unknown stock", func(t *testing.T) {
		in := base
		in.Symbol = "NOPE"
		if _, err := env.dividends.CreateDividend(ctx, in); !errors.Is(err, apperrors.ErrStockNotFound) {
			t.Errorf("Expected ErrStockNotFound, got %v", err)
		}
	})

	t.Run("non-positive per-share amount", func(t *testing.T) {
		in := base
		in.DividendPerShare = 0
		if _, err := env.dividends.CreateDividend(ctx, in); !errors.Is(err, apperrors.ErrInvalidPrice) {
			t.Errorf("Expected ErrInvalidPrice, got %v", err)
		}
	})

	t.Run("missing payment date", func(t *testing.T) {
		in := base
		in.PaymentDate = time.Time{}
		if _, err := env.dividends.CreateDividend(ctx, in); !errors.Is(err, apperrors.ErrInvalidDate) {
			t.Errorf("Expected ErrInvalidDate, got %v", err)
		}
	})
}

func TestListDividends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)
	testutil.NewStock("AOT").Build(t, env.db)

	testutil.NewDividend("PTT", testutil.Day(2026, 2, 2)).Build(t, env.db)
	testutil.NewDividend("PTT", testutil.Day(2026, 5, 4)).Build(t, env.db)
	testutil.NewDividend("AOT", testutil.Day(2026, 3, 2)).Build(t, env.db)

	all, err := env.dividends.ListDividends(ctx, "")
	if err != nil {
		t.Fatalf("ListDividends returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 declarations, got %d", len(all))
	}
	// Newest ex-date first.
	if !all[0].ExDividendDate.Equal(testutil.Day(2026, 5, 4)) {
		t.Errorf("First declaration ex-date = %v, want 2026-05-04", all[0].ExDividendDate)
	}

	ptt, err := env.dividends.ListDividends(ctx, "PTT")
	if err != nil {
		t.Fatalf("ListDividends filtered returned error: %v", err)
	}
	if len(ptt) != 2 {
		t.Errorf("Expected 2 PTT declarations, got %d", len(ptt))
	}

	if _, err := env.dividends.ListDividends(ctx, "NOPE"); !errors.Is(err, apperrors.ErrStockNotFound) {
		t.Errorf("Expected ErrStockNotFound, got %v", err)
	}
}

func TestIngestPrediction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	exDate := testutil.Day(2026, 10, 1)
	p := model.DividendPrediction{
		Symbol:                    "PTT",
		PredictedExDividendDate:   exDate,
		PredictedDividendPerShare: 1.2,
		PredictionHorizonDays:     90,
	}
	if err := env.dividends.IngestPrediction(ctx, p); err != nil {
		t.Fatalf("IngestPrediction returned error: %v", err)
	}

	stored, err := env.predictionRepo.GetPrediction(ctx, "PTT", exDate)
	if err != nil {
		t.Fatalf("GetPrediction returned error: %v", err)
	}
	if stored.PredictedDividendPerShare != 1.2 {
		t.Errorf("PredictedDividendPerShare = %v, want 1.2", stored.PredictedDividendPerShare)
	}

	// A refreshed forecast for the same key overwrites in place.
	p.PredictedDividendPerShare = 1.4
	if err := env.dividends.IngestPrediction(ctx, p); err != nil {
		t.Fatalf("IngestPrediction refresh returned error: %v", err)
	}
	stored, err = env.predictionRepo.GetPrediction(ctx, "PTT", exDate)
	if err != nil {
		t.Fatalf("GetPrediction after refresh returned error: %v", err)
	}
	if stored.PredictedDividendPerShare != 1.4 {
		t.Errorf("PredictedDividendPerShare = %v, want 1.4 after refresh", stored.PredictedDividendPerShare)
	}
	testutil.AssertRowCount(t, env.db, "prediction", 1)

	if err := env.dividends.IngestPrediction(ctx, model.DividendPrediction{Symbol: "NOPE"}); !errors.Is(err, apperrors.ErrStockNotFound) {
		t.Errorf("Expected ErrStockNotFound, got %v", err)
	}
}
