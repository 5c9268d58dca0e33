package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/repository"
)

// PositionService reconstructs holdings by replaying the transaction log.
// The log is the source of truth; the position table is only a cache of the
// replay's end state.
type PositionService struct {
	transactionRepo *repository.TransactionRepository
	positionRepo    *repository.PositionRepository
	priceSync       *PriceSyncService
	logger          zerolog.Logger
}

// NewPositionService creates a new PositionService.
func NewPositionService(
	transactionRepo *repository.TransactionRepository,
	positionRepo *repository.PositionRepository,
	priceSync *PriceSyncService,
	logger zerolog.Logger,
) *PositionService {
	return &PositionService{
		transactionRepo: transactionRepo,
		positionRepo:    positionRepo,
		priceSync:       priceSync,
		logger:          logger,
	}
}

// SharesHeldOn returns the number of shares the user held in symbol at end of
// the given date. A replay that dips below zero indicates inconsistent stored
// data; the count is clamped to zero and the inconsistency logged, never
// surfaced.
func (s *PositionService) SharesHeldOn(ctx context.Context, q repository.Querier, userID, symbol string, date time.Time) (int64, error) {
	transactions, err := s.transactionRepo.GetTransactionsUntil(ctx, q, userID, symbol, dateutil.Normalize(date))
	if err != nil {
		return 0, err
	}

	var shares int64
	for _, t := range transactions {
		switch t.Type {
		case model.TransactionBuy:
			shares += t.Quantity
		case model.TransactionSell:
			shares -= t.Quantity
		}
	}

	if shares < 0 {
		s.logger.Warn().
			Err(apperrors.ErrDataInconsistency).
			Str("userId", userID).
			Str("symbol", symbol).
			Str("date", dateutil.Normalize(date).Format(dateutil.DayFormat)).
			Int64("shares", shares).
			Msg("reconstructed share count below zero, clamping")
		shares = 0
	}

	return shares, nil
}

// CostBasisCurve replays the user's full transaction log for symbol and
// returns one point per transaction: quantity, total invested and weighted
// average cost after that trade. Buys add cost including commission; sells
// remove shares at the running average cost; a position sold to zero resets
// the invested total entirely.
func (s *PositionService) CostBasisCurve(ctx context.Context, userID, symbol string) ([]model.CostBasisPoint, error) {
	transactions, err := s.transactionRepo.GetTransactionsUntil(ctx, nil, userID, symbol, dateutil.Today().AddDate(100, 0, 0))
	if err != nil {
		return nil, err
	}

	points := make([]model.CostBasisPoint, 0, len(transactions))
	var quantity int64
	var invested float64

	for _, t := range transactions {
		switch t.Type {
		case model.TransactionBuy:
			quantity += t.Quantity
			invested += float64(t.Quantity)*t.PricePerShare + t.Commission
		case model.TransactionSell:
			avgCost := 0.0
			if quantity > 0 {
				avgCost = invested / float64(quantity)
			}
			quantity -= t.Quantity
			invested -= float64(t.Quantity) * avgCost
		}

		if quantity <= 0 {
			quantity = 0
			invested = 0
		}

		avgCost := 0.0
		if quantity > 0 {
			avgCost = invested / float64(quantity)
		}
		points = append(points, model.CostBasisPoint{
			Date:          t.Date,
			Quantity:      quantity,
			TotalInvested: invested,
			AverageCost:   avgCost,
		})
	}

	return points, nil
}

// RebuildPosition replays the full log for (user, symbol) and writes the end
// state to the position cache, deleting the row when the position is closed.
// q carries the transaction when the rebuild is part of trade creation.
func (s *PositionService) RebuildPosition(ctx context.Context, q repository.Querier, userID, symbol string) error {
	transactions, err := s.transactionRepo.GetTransactionsUntil(ctx, q, userID, symbol, dateutil.Today().AddDate(100, 0, 0))
	if err != nil {
		return err
	}

	var quantity int64
	var invested float64
	var lastDate time.Time

	for _, t := range transactions {
		switch t.Type {
		case model.TransactionBuy:
			quantity += t.Quantity
			invested += float64(t.Quantity)*t.PricePerShare + t.Commission
		case model.TransactionSell:
			avgCost := 0.0
			if quantity > 0 {
				avgCost = invested / float64(quantity)
			}
			quantity -= t.Quantity
			invested -= float64(t.Quantity) * avgCost
		}
		if quantity <= 0 {
			quantity = 0
			invested = 0
		}
		lastDate = t.Date
	}

	if quantity == 0 {
		return s.positionRepo.DeletePosition(ctx, q, userID, symbol)
	}

	return s.positionRepo.UpsertPosition(ctx, q, model.Position{
		UserID:              userID,
		Symbol:              symbol,
		CurrentQuantity:     quantity,
		TotalInvested:       invested,
		AverageCost:         invested / float64(quantity),
		LastTransactionDate: lastDate,
	})
}

// ListPositions returns the user's open positions valued at the latest known
// close. A symbol with no price data yet is returned unvalued rather than
// failing the whole listing.
func (s *PositionService) ListPositions(ctx context.Context, userID string) ([]model.PositionValuation, error) {
	positions, err := s.positionRepo.ListPositions(ctx, userID)
	if err != nil {
		return nil, err
	}

	valuations := make([]model.PositionValuation, 0, len(positions))
	for _, p := range positions {
		v := model.PositionValuation{Position: p}

		close, err := s.priceSync.LatestClose(ctx, p.Symbol)
		if err == nil {
			v.LatestClose = close
			v.MarketValue = float64(p.CurrentQuantity) * close
			v.UnrealizedGain = v.MarketValue - p.TotalInvested
		} else {
			s.logger.Debug().Err(err).Str("symbol", p.Symbol).Msg("no latest close for valuation")
		}

		valuations = append(valuations, v)
	}

	return valuations, nil
}
