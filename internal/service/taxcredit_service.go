package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/repository"
)

// TaxCreditService computes Thai dividend imputation tax credits.
//
// A shareholder may claim back the corporate income tax already paid on the
// distributed profit: credit = gross x T/(1-T) where T is the issuer's
// corporate tax rate. Issuers distributing from BOI-promoted (tax-exempt)
// profits carry no underlying tax, so no credit applies.
type TaxCreditService struct {
	taxCreditRepo   *repository.TaxCreditRepository
	entitlementRepo *repository.EntitlementRepository
	dividendRepo    *repository.DividendRepository
	stockRepo       *repository.StockRepository
	logger          zerolog.Logger
}

// NewTaxCreditService creates a new TaxCreditService.
func NewTaxCreditService(
	taxCreditRepo *repository.TaxCreditRepository,
	entitlementRepo *repository.EntitlementRepository,
	dividendRepo *repository.DividendRepository,
	stockRepo *repository.StockRepository,
	logger zerolog.Logger,
) *TaxCreditService {
	return &TaxCreditService{
		taxCreditRepo:   taxCreditRepo,
		entitlementRepo: entitlementRepo,
		dividendRepo:    dividendRepo,
		stockRepo:       stockRepo,
		logger:          logger,
	}
}

// Credit computes the imputation credit and resulting taxable income for a
// gross dividend at corporate tax rate t. t must lie strictly between 0 and 1.
func (s *TaxCreditService) Credit(gross, t float64) (credit, taxableIncome float64, err error) {
	if t <= 0 || t >= 1 {
		return 0, 0, fmt.Errorf("%w: %v", apperrors.ErrInvalidTaxRate, t)
	}
	credit = gross * t / (1 - t)
	return credit, gross + credit, nil
}

// CalculateForEntitlement derives and persists the tax credit for one
// entitlement. A BOI-supported issuer yields no credit (any stale credit row
// is removed); both that case and a missing or out-of-range rate return
// apperrors.ErrInvalidTaxRate while the entitlement itself stands.
func (s *TaxCreditService) CalculateForEntitlement(
	ctx context.Context,
	q repository.Querier,
	entitlement model.DividendEntitlement,
	stock model.Stock,
	taxYear int,
) (*model.TaxCredit, error) {
	if stock.BOISupport {
		if err := s.taxCreditRepo.DeleteForEntitlement(ctx, q, entitlement.ID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s distributes BOI-exempt profits", apperrors.ErrInvalidTaxRate, stock.Symbol)
	}

	if stock.CorporateTaxRate == nil {
		return nil, fmt.Errorf("%w: no rate for %s", apperrors.ErrInvalidTaxRate, stock.Symbol)
	}

	credit, taxableIncome, err := s.Credit(entitlement.GrossDividend, *stock.CorporateTaxRate)
	if err != nil {
		return nil, err
	}

	tc := model.TaxCredit{
		EntitlementID:    entitlement.ID,
		UserID:           entitlement.UserID,
		TaxYear:          taxYear,
		CorporateTaxRate: *stock.CorporateTaxRate,
		TaxCreditAmount:  credit,
		TaxableIncome:    taxableIncome,
		CreatedAt:        entitlement.CreatedAt,
	}

	if err := s.taxCreditRepo.UpsertTaxCredit(ctx, q, tc); err != nil {
		return nil, err
	}

	return &tc, nil
}

// CalculateTaxCredit recomputes and persists the tax credit for one confirmed
// entitlement. The tax year comes from the recorded payment receipt when
// present, falling back to the declaration's payment date. Predicted
// entitlements carry no tax credit.
func (s *TaxCreditService) CalculateTaxCredit(ctx context.Context, entitlementID string) (*model.TaxCredit, error) {
	e, err := s.entitlementRepo.GetEntitlement(ctx, nil, entitlementID)
	if err != nil {
		return nil, err
	}
	if e.DividendID == nil {
		return nil, fmt.Errorf("%w: predicted entitlement %s has no tax credit", apperrors.ErrInvalidTaxRate, entitlementID)
	}

	d, err := s.dividendRepo.GetDividend(ctx, nil, *e.DividendID)
	if err != nil {
		return nil, err
	}
	stock, err := s.stockRepo.GetStock(ctx, d.Symbol)
	if err != nil {
		return nil, err
	}

	taxYear := d.PaymentDate.Year()
	if e.PaymentReceivedDate != nil {
		taxYear = e.PaymentReceivedDate.Year()
	}

	return s.CalculateForEntitlement(ctx, nil, e, stock, taxYear)
}

// ListForYear returns a user's tax credits for one tax year plus their totals.
func (s *TaxCreditService) ListForYear(ctx context.Context, userID string, taxYear int) ([]model.TaxCredit, float64, float64, error) {
	credits, err := s.taxCreditRepo.ListForUserYear(ctx, userID, taxYear)
	if err != nil {
		return nil, 0, 0, err
	}

	var totalCredit, totalTaxable float64
	for _, c := range credits {
		totalCredit += c.TaxCreditAmount
		totalTaxable += c.TaxableIncome
	}

	return credits, totalCredit, totalTaxable, nil
}
