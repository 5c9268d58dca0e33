package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/testutil"
)

func TestCredit(t *testing.T) {
	env := newTestEnv(t)

	t.Run("computes imputation credit", func(t *testing.T) {
		credit, taxable, err := env.taxCredits.Credit(1000, 0.20)
		if err != nil {
			t.Fatalf("Credit returned error: %v", err)
		}
		// 1000 x 0.20/0.80.
		if !closeEnough(credit, 250) {
			t.Errorf("Credit = %v, want 250", credit)
		}
		if !closeEnough(taxable, 1250) {
			t.Errorf("Taxable income = %v, want 1250", taxable)
		}
	})

	t.Run("rejects out-of-range rates", func(t *testing.T) {
		for _, rate := range []float64{0, 1, -0.1, 1.5} {
			if _, _, err := env.taxCredits.Credit(1000, rate); !errors.Is(err, apperrors.ErrInvalidTaxRate) {
				t.Errorf("Credit(1000, %v) error = %v, want ErrInvalidTaxRate", rate, err)
			}
		}
	})
}

func TestCalculateTaxCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").WithTaxRate(0.25).Build(t, env.db)

	userID := testutil.MakeID()
	d := testutil.NewDividend("PTT", testutil.Day(2026, 2, 2)).Build(t, env.db)
	e := &model.DividendEntitlement{
		ID:             testutil.MakeID(),
		UserID:         userID,
		Status:         model.EntitlementConfirmed,
		DividendID:     &d.ID,
		SharesHeld:     200,
		GrossDividend:  300,
		WithholdingTax: 30,
		NetDividend:    270,
	}
	if err := env.entitlementRepo.UpsertEntitlement(ctx, nil, e); err != nil {
		t.Fatalf("UpsertEntitlement returned error: %v", err)
	}

	tc, err := env.taxCredits.CalculateTaxCredit(ctx, e.ID)
	if err != nil {
		t.Fatalf("CalculateTaxCredit returned error: %v", err)
	}
	// 300 x 0.25/0.75.
	if !closeEnough(tc.TaxCreditAmount, 100) {
		t.Errorf("TaxCreditAmount = %v, want 100", tc.TaxCreditAmount)
	}
	if !closeEnough(tc.TaxableIncome, 400) {
		t.Errorf("TaxableIncome = %v, want 400", tc.TaxableIncome)
	}
	// Without a recorded receipt the tax year follows the payment date.
	if tc.TaxYear != d.PaymentDate.Year() {
		t.Errorf("TaxYear = %d, want %d", tc.TaxYear, d.PaymentDate.Year())
	}

	// A recorded receipt in a later year moves the credit to that year.
	received := testutil.Day(2027, 1, 10)
	if err := env.entitlementRepo.MarkPaymentReceived(ctx, e.ID, received); err != nil {
		t.Fatalf("MarkPaymentReceived returned error: %v", err)
	}
	tc, err = env.taxCredits.CalculateTaxCredit(ctx, e.ID)
	if err != nil {
		t.Fatalf("CalculateTaxCredit after receipt returned error: %v", err)
	}
	if tc.TaxYear != 2027 {
		t.Errorf("TaxYear = %d, want 2027 from the receipt date", tc.TaxYear)
	}
	// Recalculation upserts, it does not duplicate.
	testutil.AssertRowCount(t, env.db, "tax_credit", 1)
}

func TestCalculateTaxCreditPredictedEntitlement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").WithTaxRate(0.20).Build(t, env.db)

	symbol := "PTT"
	exDate := testutil.Day(2026, 10, 1)
	e := &model.DividendEntitlement{
		ID:              testutil.MakeID(),
		UserID:          testutil.MakeID(),
		Status:          model.EntitlementPredicted,
		PredictedSymbol: &symbol,
		PredictedExDate: &exDate,
		SharesHeld:      100,
		GrossDividend:   100,
		WithholdingTax:  10,
		NetDividend:     90,
	}
	if err := env.entitlementRepo.UpsertEntitlement(ctx, nil, e); err != nil {
		t.Fatalf("UpsertEntitlement returned error: %v", err)
	}

	_, err := env.taxCredits.CalculateTaxCredit(ctx, e.ID)
	if !errors.Is(err, apperrors.ErrInvalidTaxRate) {
		t.Errorf("Expected ErrInvalidTaxRate for a predicted entitlement, got %v", err)
	}
}

func TestCalculateForEntitlementBOIRemovesStaleCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stock := testutil.NewStock("BOI1").WithBOISupport().Build(t, env.db)

	userID := testutil.MakeID()
	d := testutil.NewDividend("BOI1", testutil.Day(2026, 2, 2)).Build(t, env.db)
	e := &model.DividendEntitlement{
		ID:             testutil.MakeID(),
		UserID:         userID,
		Status:         model.EntitlementConfirmed,
		DividendID:     &d.ID,
		SharesHeld:     100,
		GrossDividend:  150,
		WithholdingTax: 15,
		NetDividend:    135,
	}
	if err := env.entitlementRepo.UpsertEntitlement(ctx, nil, e); err != nil {
		t.Fatalf("UpsertEntitlement returned error: %v", err)
	}
	// A stale credit from before the issuer's BOI status was recorded.
	if err := env.taxCreditRepo.UpsertTaxCredit(ctx, nil, model.TaxCredit{
		EntitlementID:    e.ID,
		UserID:           userID,
		TaxYear:          2026,
		CorporateTaxRate: 0.20,
		TaxCreditAmount:  37.5,
		TaxableIncome:    187.5,
	}); err != nil {
		t.Fatalf("UpsertTaxCredit returned error: %v", err)
	}

	_, err := env.taxCredits.CalculateForEntitlement(ctx, nil, *e, stock, 2026)
	if !errors.Is(err, apperrors.ErrInvalidTaxRate) {
		t.Fatalf("Expected ErrInvalidTaxRate for a BOI issuer, got %v", err)
	}

	// The stale credit is gone; the entitlement itself stands.
	testutil.AssertRowCount(t, env.db, "tax_credit", 0)
	testutil.AssertRowCount(t, env.db, "dividend_entitlement", 1)
}

func TestListForYear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.NewStock("PTT").WithTaxRate(0.20).Build(t, env.db)

	userID := testutil.MakeID()
	for i, gross := range []float64{100, 200} {
		d := testutil.NewDividend("PTT", testutil.Day(2026, 2, 2+i)).Build(t, env.db)
		e := &model.DividendEntitlement{
			ID:             testutil.MakeID(),
			UserID:         userID,
			Status:         model.EntitlementConfirmed,
			DividendID:     &d.ID,
			SharesHeld:     100,
			GrossDividend:  gross,
			WithholdingTax: gross * 0.1,
			NetDividend:    gross * 0.9,
		}
		if err := env.entitlementRepo.UpsertEntitlement(ctx, nil, e); err != nil {
			t.Fatalf("UpsertEntitlement returned error: %v", err)
		}
		if _, err := env.taxCredits.CalculateTaxCredit(ctx, e.ID); err != nil {
			t.Fatalf("CalculateTaxCredit returned error: %v", err)
		}
	}

	credits, totalCredit, totalTaxable, err := env.taxCredits.ListForYear(ctx, userID, 2026)
	if err != nil {
		t.Fatalf("ListForYear returned error: %v", err)
	}
	if len(credits) != 2 {
		t.Fatalf("Expected 2 credits, got %d", len(credits))
	}
	// 100 x 0.25 + 200 x 0.25.
	if !closeEnough(totalCredit, 75) {
		t.Errorf("Total credit = %v, want 75", totalCredit)
	}
	if !closeEnough(totalTaxable, 375) {
		t.Errorf("Total taxable income = %v, want 375", totalTaxable)
	}

	credits, _, _, err = env.taxCredits.ListForYear(ctx, userID, 2024)
	if err != nil {
		t.Fatalf("ListForYear for an empty year returned error: %v", err)
	}
	if len(credits) != 0 {
		t.Errorf("Expected no credits for 2024, got %d", len(credits))
	}
}
