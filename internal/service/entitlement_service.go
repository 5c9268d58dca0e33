package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/repository"
)

// WithholdingRate is the flat Thai withholding tax rate on dividend income.
const WithholdingRate = 0.10

// EntitlementService derives who gets paid what from a dividend declaration.
//
// The batch calculation for a declaration runs inside a single database
// transaction: the status transition, every entitlement write and every tax
// credit write commit together or not at all. The declaration's calculation
// status is monotonic (PENDING -> PROCESSING -> COMPLETED) and a COMPLETED
// declaration is never recalculated.
type EntitlementService struct {
	db              *sql.DB
	dividendRepo    *repository.DividendRepository
	transactionRepo *repository.TransactionRepository
	entitlementRepo *repository.EntitlementRepository
	predictionRepo  *repository.PredictionRepository
	stockRepo       *repository.StockRepository
	positions       *PositionService
	taxCredits      *TaxCreditService
	logger          zerolog.Logger
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(
	db *sql.DB,
	dividendRepo *repository.DividendRepository,
	transactionRepo *repository.TransactionRepository,
	entitlementRepo *repository.EntitlementRepository,
	predictionRepo *repository.PredictionRepository,
	stockRepo *repository.StockRepository,
	positions *PositionService,
	taxCredits *TaxCreditService,
	logger zerolog.Logger,
) *EntitlementService {
	return &EntitlementService{
		db:              db,
		dividendRepo:    dividendRepo,
		transactionRepo: transactionRepo,
		entitlementRepo: entitlementRepo,
		predictionRepo:  predictionRepo,
		stockRepo:       stockRepo,
		positions:       positions,
		taxCredits:      taxCredits,
		logger:          logger,
	}
}

// CalculateEntitlements runs the batch entitlement calculation for a dividend
// declaration, covering every user who has ever transacted in its symbol.
// Returns apperrors.ErrCalculationCompleted without writing anything if the
// calculation already ran to completion.
func (s *EntitlementService) CalculateEntitlements(ctx context.Context, dividendID string) ([]model.DividendEntitlement, error) {
	// The issuer row is read-only reference data, fetched outside the write
	// transaction.
	d, err := s.dividendRepo.GetDividend(ctx, nil, dividendID)
	if err != nil {
		return nil, err
	}
	stock, err := s.stockRepo.GetStock(ctx, d.Symbol)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-read the status inside the transaction so two concurrent
	// calculations cannot both pass the completion check.
	d, err = s.dividendRepo.GetDividend(ctx, tx, dividendID)
	if err != nil {
		return nil, err
	}
	if d.CalculationStatus == model.CalculationCompleted {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrCalculationCompleted, dividendID)
	}

	if err := s.dividendRepo.SetCalculationStatus(ctx, tx, dividendID, model.CalculationProcessing, nil); err != nil {
		return nil, err
	}

	users, err := s.transactionRepo.GetUsersWithSymbol(ctx, tx, d.Symbol)
	if err != nil {
		return nil, err
	}

	entitlements := []model.DividendEntitlement{}
	for _, userID := range users {
		e, err := s.settleUser(ctx, tx, userID, d, stock)
		if err != nil {
			return nil, err
		}
		if e != nil {
			entitlements = append(entitlements, *e)
		}
	}

	now := time.Now().UTC()
	if err := s.dividendRepo.SetCalculationStatus(ctx, tx, dividendID, model.CalculationCompleted, &now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().
		Str("dividendId", dividendID).
		Str("symbol", d.Symbol).
		Int("users", len(users)).
		Int("entitlements", len(entitlements)).
		Msg("dividend entitlement calculation completed")

	return entitlements, nil
}

// settleUser computes one user's entitlement for a declaration. Zero shares
// held at the record date removes any stale entitlement (the attached tax
// credit cascades away with it) along with any predicted row sharing the
// declaration's logical key; otherwise the confirmed row replaces the
// predicted one.
func (s *EntitlementService) settleUser(ctx context.Context, tx *sql.Tx, userID string, d model.DividendDeclaration, stock model.Stock) (*model.DividendEntitlement, error) {
	// A declaration with no per-share amount pays nobody.
	if d.DividendPerShare <= 0 {
		return nil, nil
	}

	// Shares held at the record date determine who gets paid; a buyer on the
	// ex-date still holds at the record date and qualifies.
	shares, err := s.positions.SharesHeldOn(ctx, tx, userID, d.Symbol, d.RecordDate)
	if err != nil {
		return nil, err
	}

	if shares == 0 {
		existing, err := s.entitlementRepo.GetForUserAndDividend(ctx, tx, userID, d.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := s.entitlementRepo.DeleteEntitlement(ctx, tx, existing.ID); err != nil {
				return nil, err
			}
		}
		if err := s.entitlementRepo.DeletePredictedForDividend(ctx, tx, userID, d.Symbol, d.ExDividendDate); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := s.entitlementRepo.DeletePredictedForDividend(ctx, tx, userID, d.Symbol, d.ExDividendDate); err != nil {
		return nil, err
	}

	gross := float64(shares) * d.DividendPerShare
	withholding := gross * WithholdingRate

	e := &model.DividendEntitlement{
		ID:             uuid.NewString(),
		UserID:         userID,
		Status:         model.EntitlementConfirmed,
		DividendID:     &d.ID,
		SharesHeld:     shares,
		GrossDividend:  gross,
		WithholdingTax: withholding,
		NetDividend:    gross - withholding,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.entitlementRepo.UpsertEntitlement(ctx, tx, e); err != nil {
		return nil, err
	}

	// A tax credit failure (missing or out-of-range issuer rate) must not
	// lose the entitlement itself; the credit can be recalculated later.
	if _, err := s.taxCredits.CalculateForEntitlement(ctx, tx, *e, stock, d.PaymentDate.Year()); err != nil {
		s.logger.Warn().Err(err).
			Str("entitlementId", e.ID).
			Str("symbol", d.Symbol).
			Msg("tax credit calculation failed, keeping entitlement")
	}

	return e, nil
}

// PredictEntitlement computes or refreshes one user's predicted entitlement
// for a forecast dividend. Unlike the batch path it is always recomputable;
// a position sold to zero removes the predicted row.
func (s *EntitlementService) PredictEntitlement(ctx context.Context, userID, symbol string, exDate time.Time) (*model.DividendEntitlement, error) {
	exDate = dateutil.Normalize(exDate)

	prediction, err := s.predictionRepo.GetPrediction(ctx, symbol, exDate)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Predictions carry a record date when the forecaster supplies one;
	// otherwise fall back to the day after the ex-date, mirroring confirmed
	// declarations.
	recordDate := exDate.AddDate(0, 0, 1)
	if prediction.PredictedRecordDate != nil {
		recordDate = dateutil.Normalize(*prediction.PredictedRecordDate)
	}
	shares, err := s.positions.SharesHeldOn(ctx, tx, userID, symbol, recordDate)
	if err != nil {
		return nil, err
	}

	if shares == 0 {
		existing, err := s.entitlementRepo.GetForUserAndPrediction(ctx, tx, userID, symbol, exDate)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := s.entitlementRepo.DeleteEntitlement(ctx, tx, existing.ID); err != nil {
				return nil, err
			}
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, nil
	}

	gross := float64(shares) * prediction.PredictedDividendPerShare
	withholding := gross * WithholdingRate

	e := &model.DividendEntitlement{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          model.EntitlementPredicted,
		PredictedSymbol: &symbol,
		PredictedExDate: &exDate,
		SharesHeld:      shares,
		GrossDividend:   gross,
		WithholdingTax:  withholding,
		NetDividend:     gross - withholding,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.entitlementRepo.UpsertEntitlement(ctx, tx, e); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return e, nil
}

// ResetCalculation returns a declaration stuck in PROCESSING (a crash between
// the status write and the commit of a previous attempt) back to PENDING.
// Only a PROCESSING declaration may be reset.
func (s *EntitlementService) ResetCalculation(ctx context.Context, dividendID string) error {
	d, err := s.dividendRepo.GetDividend(ctx, nil, dividendID)
	if err != nil {
		return err
	}
	if d.CalculationStatus != model.CalculationProcessing {
		return fmt.Errorf("%w: %s is %s", apperrors.ErrCalculationNotStuck, dividendID, d.CalculationStatus)
	}

	if err := s.dividendRepo.SetCalculationStatus(ctx, nil, dividendID, model.CalculationPending, nil); err != nil {
		return err
	}

	s.logger.Info().Str("dividendId", dividendID).Msg("dividend calculation reset to pending")
	return nil
}

// ListEntitlements returns the entitlements created from one declaration.
func (s *EntitlementService) ListEntitlements(ctx context.Context, dividendID string) ([]model.DividendEntitlement, error) {
	if _, err := s.dividendRepo.GetDividend(ctx, nil, dividendID); err != nil {
		return nil, err
	}
	return s.entitlementRepo.ListForDividend(ctx, dividendID)
}

// UserHistory returns a user's entitlement history with dividend details and
// tax credits attached, newest first.
func (s *EntitlementService) UserHistory(ctx context.Context, userID string) ([]model.EntitlementRecord, error) {
	return s.entitlementRepo.ListForUser(ctx, userID)
}

// MarkPaymentReceived records the date the payout actually arrived.
func (s *EntitlementService) MarkPaymentReceived(ctx context.Context, entitlementID string, received time.Time) error {
	return s.entitlementRepo.MarkPaymentReceived(ctx, entitlementID, dateutil.Normalize(received))
}

// Calendar merges actual declarations and predictions into per-day dividend
// events for [from,to]. A prediction whose (symbol, ex-date) already has an
// actual declaration is superseded by it.
func (s *EntitlementService) Calendar(ctx context.Context, from, to time.Time) ([]model.CalendarDay, error) {
	from = dateutil.Normalize(from)
	to = dateutil.Normalize(to)
	if from.After(to) {
		return nil, fmt.Errorf("%w: from %s after to %s", apperrors.ErrInvalidDateRange,
			from.Format(dateutil.DayFormat), to.Format(dateutil.DayFormat))
	}

	dividends, err := s.dividendRepo.ListInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	predictions, err := s.predictionRepo.ListInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	stocks, err := s.stockRepo.ListStocks(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(stocks))
	for _, st := range stocks {
		names[st.Symbol] = st.Name
	}

	confirmed := map[string]bool{}
	byDay := map[string][]model.CalendarEvent{}

	for _, d := range dividends {
		key := d.Symbol + "|" + d.ExDividendDate.Format(dateutil.DayFormat)
		confirmed[key] = true

		recordDate := d.RecordDate
		paymentDate := d.PaymentDate
		dayKey := d.ExDividendDate.Format(dateutil.DayFormat)
		byDay[dayKey] = append(byDay[dayKey], model.CalendarEvent{
			DividendID:       d.ID,
			Symbol:           d.Symbol,
			Name:             names[d.Symbol],
			Type:             "XD",
			ExDividendDate:   d.ExDividendDate,
			RecordDate:       &recordDate,
			PaymentDate:      &paymentDate,
			DividendPerShare: d.DividendPerShare,
		})
	}

	for _, p := range predictions {
		key := p.Symbol + "|" + p.PredictedExDividendDate.Format(dateutil.DayFormat)
		if confirmed[key] {
			continue
		}

		dayKey := p.PredictedExDividendDate.Format(dateutil.DayFormat)
		byDay[dayKey] = append(byDay[dayKey], model.CalendarEvent{
			DividendID:       "predict-" + p.Symbol + "-" + dayKey,
			Symbol:           p.Symbol,
			Name:             names[p.Symbol],
			Type:             "XD-PREDICT",
			ExDividendDate:   p.PredictedExDividendDate,
			RecordDate:       p.PredictedRecordDate,
			PaymentDate:      p.PredictedPaymentDate,
			DividendPerShare: p.PredictedDividendPerShare,
			ConfidenceScore:  p.ConfidenceScore,
		})
	}

	days := make([]model.CalendarDay, 0, len(byDay))
	for date, events := range byDay {
		sort.Slice(events, func(i, j int) bool { return events[i].Symbol < events[j].Symbol })
		days = append(days, model.CalendarDay{Date: date, Events: events})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	return days, nil
}

// UpcomingDividends returns declarations with ex-date today or later, soonest
// first.
func (s *EntitlementService) UpcomingDividends(ctx context.Context, limit int) ([]model.DividendDeclaration, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.dividendRepo.ListUpcoming(ctx, dateutil.Today(), limit)
}

// EstimateBenefit previews what the user would receive from the nearest
// future dividend event for symbol, actual declarations taking precedence
// over predictions. Returns apperrors.ErrDividendNotFound when neither exists.
func (s *EntitlementService) EstimateBenefit(ctx context.Context, userID, symbol string) (*model.EstimatedBenefit, error) {
	stock, err := s.stockRepo.GetStock(ctx, symbol)
	if err != nil {
		return nil, err
	}

	today := dateutil.Today()
	benefit := &model.EstimatedBenefit{Symbol: symbol}

	if d, err := s.dividendRepo.NextAfter(ctx, symbol, today); err != nil {
		return nil, err
	} else if d != nil {
		benefit.Type = "ACTUAL"
		benefit.DividendPerShare = d.DividendPerShare
	} else {
		p, err := s.predictionRepo.NextAfter(ctx, symbol, today)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: no upcoming dividend for %s", apperrors.ErrDividendNotFound, symbol)
		}
		benefit.Type = "PREDICTED"
		benefit.DividendPerShare = p.PredictedDividendPerShare
	}

	shares, err := s.positions.SharesHeldOn(ctx, nil, userID, symbol, today)
	if err != nil {
		return nil, err
	}

	benefit.Shares = shares
	benefit.GrossDividend = float64(shares) * benefit.DividendPerShare
	benefit.WithholdingTax = benefit.GrossDividend * WithholdingRate
	benefit.NetDividend = benefit.GrossDividend - benefit.WithholdingTax
	benefit.TotalWithCredit = benefit.NetDividend

	if !stock.BOISupport && stock.CorporateTaxRate != nil {
		if credit, _, err := s.taxCredits.Credit(benefit.GrossDividend, *stock.CorporateTaxRate); err == nil {
			benefit.AppliedTaxRate = *stock.CorporateTaxRate
			benefit.TaxCreditFactor = *stock.CorporateTaxRate / (1 - *stock.CorporateTaxRate)
			benefit.EstimatedCredit = credit
			benefit.TotalWithCredit = benefit.NetDividend + credit
		}
	}

	return benefit, nil
}
