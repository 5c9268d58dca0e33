package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/repository"
)

// PriceTolerance is the maximum accepted deviation, in baht, between a
// submitted trade price and the market close on the trade date.
const PriceTolerance = 0.05

// TransactionService records trades and keeps the derived state (position
// cache, predicted entitlements) in step with the transaction log.
type TransactionService struct {
	db              *sql.DB
	transactionRepo *repository.TransactionRepository
	stockRepo       *repository.StockRepository
	predictionRepo  *repository.PredictionRepository
	positions       *PositionService
	priceSync       *PriceSyncService
	entitlements    *EntitlementService
	logger          zerolog.Logger
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(
	db *sql.DB,
	transactionRepo *repository.TransactionRepository,
	stockRepo *repository.StockRepository,
	predictionRepo *repository.PredictionRepository,
	positions *PositionService,
	priceSync *PriceSyncService,
	entitlements *EntitlementService,
	logger zerolog.Logger,
) *TransactionService {
	return &TransactionService{
		db:              db,
		transactionRepo: transactionRepo,
		stockRepo:       stockRepo,
		predictionRepo:  predictionRepo,
		positions:       positions,
		priceSync:       priceSync,
		entitlements:    entitlements,
		logger:          logger,
	}
}

// CreateTransactionInput carries a validated-but-unchecked trade submission.
type CreateTransactionInput struct {
	UserID        string
	Symbol        string
	Date          time.Time
	Type          string
	Quantity      int64
	PricePerShare float64
	Commission    float64
}

// CreateTransaction validates and records a trade, then rebuilds the user's
// position and refreshes any predicted entitlement for the symbol. The trade
// insert and position rebuild commit atomically; the entitlement refresh runs
// after the commit and its failure is logged, not propagated.
func (s *TransactionService) CreateTransaction(ctx context.Context, in CreateTransactionInput) (model.Transaction, error) {
	if err := s.validate(in); err != nil {
		return model.Transaction{}, err
	}
	if _, err := s.stockRepo.GetStock(ctx, in.Symbol); err != nil {
		return model.Transaction{}, err
	}

	date := dateutil.Normalize(in.Date)

	// The market price check talks to the external provider, so it runs
	// before the store transaction opens.
	if err := s.checkPriceTolerance(ctx, in.Symbol, date, in.PricePerShare); err != nil {
		return model.Transaction{}, err
	}

	if in.Type == model.TransactionSell {
		held, err := s.positions.SharesHeldOn(ctx, nil, in.UserID, in.Symbol, date)
		if err != nil {
			return model.Transaction{}, err
		}
		if held < in.Quantity {
			return model.Transaction{}, fmt.Errorf("%w: hold %d, selling %d", apperrors.ErrInsufficientShares, held, in.Quantity)
		}
	}

	total := float64(in.Quantity) * in.PricePerShare
	if in.Type == model.TransactionBuy {
		total += in.Commission
	} else {
		total -= in.Commission
	}

	t := model.Transaction{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		Symbol:        in.Symbol,
		Date:          date,
		Type:          in.Type,
		Quantity:      in.Quantity,
		PricePerShare: in.PricePerShare,
		Commission:    in.Commission,
		TotalAmount:   total,
		CreatedAt:     time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.transactionRepo.InsertTransaction(ctx, tx, &t); err != nil {
		return model.Transaction{}, err
	}
	if err := s.positions.RebuildPosition(ctx, tx, in.UserID, in.Symbol); err != nil {
		return model.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Transaction{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.refreshPredictedEntitlement(ctx, in.UserID, in.Symbol)

	return t, nil
}

func (s *TransactionService) validate(in CreateTransactionInput) error {
	if in.Type != model.TransactionBuy && in.Type != model.TransactionSell {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidTransactionType, in.Type)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: %d", apperrors.ErrInvalidQuantity, in.Quantity)
	}
	if in.PricePerShare <= 0 {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidPrice, in.PricePerShare)
	}
	if in.Commission < 0 {
		return fmt.Errorf("%w: %v", apperrors.ErrNegativeCommission, in.Commission)
	}
	if in.Date.IsZero() {
		return apperrors.ErrInvalidDate
	}
	return nil
}

// checkPriceTolerance compares the submitted price against the market close
// on the trade date. A date with no price data (holiday, brand-new listing,
// provider outage) skips the check rather than blocking the trade.
func (s *TransactionService) checkPriceTolerance(ctx context.Context, symbol string, date time.Time, price float64) error {
	close, err := s.priceSync.PriceOnDate(ctx, symbol, date)
	if errors.Is(err, apperrors.ErrPriceNotFound) {
		s.logger.Debug().Str("symbol", symbol).
			Str("date", date.Format(dateutil.DayFormat)).
			Msg("no market price for trade date, skipping tolerance check")
		return nil
	}
	if err != nil {
		return err
	}

	if math.Abs(price-close) > PriceTolerance+1e-9 {
		return fmt.Errorf("%w: submitted %v, market close %v", apperrors.ErrPriceOutOfTolerance, price, close)
	}
	return nil
}

// refreshPredictedEntitlement recomputes the user's predicted entitlement for
// the symbol's next forecast dividend after a trade changed their holding.
func (s *TransactionService) refreshPredictedEntitlement(ctx context.Context, userID, symbol string) {
	p, err := s.predictionRepo.NextAfter(ctx, symbol, dateutil.Today())
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("failed to look up prediction after trade")
		return
	}
	if p == nil {
		return
	}

	if _, err := s.entitlements.PredictEntitlement(ctx, userID, symbol, p.PredictedExDividendDate); err != nil {
		s.logger.Warn().Err(err).
			Str("userId", userID).
			Str("symbol", symbol).
			Msg("failed to refresh predicted entitlement after trade")
	}
}

// ListTransactions returns a user's trades, newest first, optionally filtered
// by symbol and type.
func (s *TransactionService) ListTransactions(ctx context.Context, userID, symbol, txType string) ([]model.Transaction, error) {
	if txType != "" && txType != model.TransactionBuy && txType != model.TransactionSell {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidTransactionType, txType)
	}
	return s.transactionRepo.GetTransactionsForUser(ctx, userID, symbol, txType)
}

// GetTransaction returns one of the user's trades by ID.
func (s *TransactionService) GetTransaction(ctx context.Context, transactionID, userID string) (model.Transaction, error) {
	return s.transactionRepo.GetTransaction(ctx, transactionID, userID)
}
