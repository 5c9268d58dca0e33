package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/testutil"
)

func buyInput(userID string) CreateTransactionInput {
	return CreateTransactionInput{
		UserID:        userID,
		Symbol:        "PTT",
		Date:          testutil.Day(2026, 1, 9),
		Type:          model.TransactionBuy,
		Quantity:      100,
		PricePerShare: 30.00,
		Commission:    50,
	}
}

func TestCreateTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)
	testutil.CreatePriceBar(t, env.db, "PTT", testutil.Day(2026, 1, 9), 30.00)

	userID := testutil.MakeID()
	created, err := env.transactions.CreateTransaction(ctx, buyInput(userID))
	if err != nil {
		t.Fatalf("CreateTransaction returned error: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected a generated transaction ID")
	}
	if !closeEnough(created.TotalAmount, 3050) {
		t.Errorf("TotalAmount = %v, want 3050 (cost plus commission)", created.TotalAmount)
	}

	// The position cache was rebuilt in the same commit.
	p, err := env.positionRepo.GetPosition(ctx, nil, userID, "PTT")
	if err != nil {
		t.Fatalf("GetPosition returned error: %v", err)
	}
	if p == nil || p.CurrentQuantity != 100 {
		t.Fatalf("Position = %+v, want 100 shares", p)
	}
	if !closeEnough(p.TotalInvested, 3050) {
		t.Errorf("TotalInvested = %v, want 3050", p.TotalInvested)
	}
}

func TestCreateTransactionPriceTolerance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)
	testutil.CreatePriceBar(t, env.db, "PTT", testutil.Day(2026, 1, 9), 30.00)

	t.Run("accepts a price at the tolerance boundary", func(t *testing.T) {
		in := buyInput(testutil.MakeID())
		in.PricePerShare = 30.05

		if _, err := env.transactions.CreateTransaction(ctx, in); err != nil {
			t.Errorf("Expected a price 0.05 off the close to pass, got %v", err)
		}
	})

	t.Run("rejects a price beyond the tolerance", func(t *testing.T) {
		in := buyInput(testutil.MakeID())
		in.PricePerShare = 30.06

		_, err := env.transactions.CreateTransaction(ctx, in)
		if !errors.Is(err, apperrors.ErrPriceOutOfTolerance) {
			t.Errorf("Expected ErrPriceOutOfTolerance, got %v", err)
		}
	})

	t.Run("skips the check when no market price exists", func(t *testing.T) {
		in := buyInput(testutil.MakeID())
		in.Date = testutil.Day(2026, 1, 10) // Saturday, never a trading day
		in.PricePerShare = 99.99

		if _, err := env.transactions.CreateTransaction(ctx, in); err != nil {
			t.Errorf("Expected the check to be skipped without a market price, got %v", err)
		}
	})
}

func TestCreateTransactionSellRequiresShares(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	userID := testutil.MakeID()
	if _, err := env.transactions.CreateTransaction(ctx, buyInput(userID)); err != nil {
		t.Fatalf("CreateTransaction returned error: %v", err)
	}

	sell := CreateTransactionInput{
		UserID:        userID,
		Symbol:        "PTT",
		Date:          testutil.Day(2026, 2, 10),
		Type:          model.TransactionSell,
		Quantity:      150,
		PricePerShare: 32,
	}
	_, err := env.transactions.CreateTransaction(ctx, sell)
	if !errors.Is(err, apperrors.ErrInsufficientShares) {
		t.Fatalf("Expected ErrInsufficientShares selling 150 of 100, got %v", err)
	}

	sell.Quantity = 100
	created, err := env.transactions.CreateTransaction(ctx, sell)
	if err != nil {
		t.Fatalf("CreateTransaction for a full sale returned error: %v", err)
	}
	// Sell proceeds are net of commission.
	if !closeEnough(created.TotalAmount, 3200) {
		t.Errorf("TotalAmount = %v, want 3200", created.TotalAmount)
	}

	// The position closed and its cache row is gone.
	testutil.AssertRowCount(t, env.db, "position", 0)
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	tests := []struct {
		name     string
		mutate   func(*CreateTransactionInput)
		expected error
	}{
		{"unknown type", func(in *CreateTransactionInput) { in.Type = "SHORT" }, apperrors.ErrInvalidTransactionType},
		{"zero quantity", func(in *CreateTransactionInput) { in.Quantity = 0 }, apperrors.ErrInvalidQuantity},
		{"negative price", func(in *CreateTransactionInput) { in.PricePerShare = -1 }, apperrors.ErrInvalidPrice},
		{"negative commission", func(in *CreateTransactionInput) { in.Commission = -5 }, apperrors.ErrNegativeCommission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := buyInput(testutil.MakeID())
			tt.mutate(&in)

			_, err := env.transactions.CreateTransaction(ctx, in)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}

	t.Run("unknown stock", func(t *testing.T) {
		in := buyInput(testutil.MakeID())
		in.Symbol = "NOPE"

		_, err := env.transactions.CreateTransaction(ctx, in)
		if !errors.Is(err, apperrors.ErrStockNotFound) {
			t.Errorf("Expected ErrStockNotFound, got %v", err)
		}
	})
}

func TestCreateTransactionRefreshesPrediction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	// An upcoming forecast exists for the symbol, so the trade should leave a
	// predicted entitlement behind.
	exDate := dateutil.Today().AddDate(0, 0, 40)
	testutil.CreatePrediction(t, env.db, "PTT", exDate, 1.0)

	userID := testutil.MakeID()
	if _, err := env.transactions.CreateTransaction(ctx, buyInput(userID)); err != nil {
		t.Fatalf("CreateTransaction returned error: %v", err)
	}

	e, err := env.entitlementRepo.GetForUserAndPrediction(ctx, nil, userID, "PTT", exDate)
	if err != nil {
		t.Fatalf("GetForUserAndPrediction returned error: %v", err)
	}
	if e == nil {
		t.Fatal("Expected a predicted entitlement after the trade, got nil")
	}
	if e.Status != model.EntitlementPredicted {
		t.Errorf("Status = %s, want PREDICTED", e.Status)
	}
	if !closeEnough(e.GrossDividend, 100) {
		t.Errorf("GrossDividend = %v, want 100", e.GrossDividend)
	}
}

func TestListTransactions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").Build(t, env.db)

	userID := testutil.MakeID()
	testutil.NewTransaction(userID, "PTT", testutil.Day(2026, 1, 5)).Build(t, env.db)
	testutil.NewTransaction(userID, "PTT", testutil.Day(2026, 2, 10)).Sell().WithQuantity(50).Build(t, env.db)

	all, err := env.transactions.ListTransactions(ctx, userID, "", "")
	if err != nil {
		t.Fatalf("ListTransactions returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(all))
	}
	// Newest first.
	if !all[0].Date.After(all[1].Date) {
		t.Errorf("Expected newest-first ordering, got %v then %v", all[0].Date, all[1].Date)
	}

	sells, err := env.transactions.ListTransactions(ctx, userID, "PTT", model.TransactionSell)
	if err != nil {
		t.Fatalf("ListTransactions with filter returned error: %v", err)
	}
	if len(sells) != 1 || sells[0].Type != model.TransactionSell {
		t.Errorf("Expected 1 sell, got %+v", sells)
	}

	if _, err := env.transactions.ListTransactions(ctx, userID, "", "SHORT"); !errors.Is(err, apperrors.ErrInvalidTransactionType) {
		t.Errorf("Expected ErrInvalidTransactionType, got %v", err)
	}
}
