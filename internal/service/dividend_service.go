package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/repository"
)

// DividendService manages dividend declarations and ingests forecast
// predictions. Entitlement math lives in EntitlementService; this service only
// handles the declarations themselves.
type DividendService struct {
	dividendRepo   *repository.DividendRepository
	predictionRepo *repository.PredictionRepository
	stockRepo      *repository.StockRepository
	logger         zerolog.Logger
}

// NewDividendService creates a new DividendService.
func NewDividendService(
	dividendRepo *repository.DividendRepository,
	predictionRepo *repository.PredictionRepository,
	stockRepo *repository.StockRepository,
	logger zerolog.Logger,
) *DividendService {
	return &DividendService{
		dividendRepo:   dividendRepo,
		predictionRepo: predictionRepo,
		stockRepo:      stockRepo,
		logger:         logger,
	}
}

// CreateDividendInput carries a new dividend declaration. RecordDate may be
// zero, in which case it defaults to the day after the ex-date per SET
// settlement convention.
type CreateDividendInput struct {
	Symbol           string
	AnnouncementDate time.Time
	ExDividendDate   time.Time
	RecordDate       time.Time
	PaymentDate      time.Time
	DividendPerShare float64
	SourceOfDividend string
}

// CreateDividend records a dividend declaration in the PENDING calculation
// state.
func (s *DividendService) CreateDividend(ctx context.Context, in CreateDividendInput) (model.DividendDeclaration, error) {
	if _, err := s.stockRepo.GetStock(ctx, in.Symbol); err != nil {
		return model.DividendDeclaration{}, err
	}
	if in.DividendPerShare <= 0 {
		return model.DividendDeclaration{}, fmt.Errorf("%w: dividend per share %v", apperrors.ErrInvalidPrice, in.DividendPerShare)
	}
	if in.ExDividendDate.IsZero() || in.PaymentDate.IsZero() {
		return model.DividendDeclaration{}, apperrors.ErrInvalidDate
	}

	exDate := dateutil.Normalize(in.ExDividendDate)
	recordDate := dateutil.Normalize(in.RecordDate)
	if in.RecordDate.IsZero() {
		recordDate = exDate.AddDate(0, 0, 1)
	}

	announceDate := dateutil.Normalize(in.AnnouncementDate)
	if in.AnnouncementDate.IsZero() {
		announceDate = dateutil.Today()
	}

	d := model.DividendDeclaration{
		ID:                uuid.NewString(),
		Symbol:            in.Symbol,
		AnnouncementDate:  announceDate,
		ExDividendDate:    exDate,
		RecordDate:        recordDate,
		PaymentDate:       dateutil.Normalize(in.PaymentDate),
		DividendPerShare:  in.DividendPerShare,
		SourceOfDividend:  in.SourceOfDividend,
		CalculationStatus: model.CalculationPending,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.dividendRepo.CreateDividend(ctx, &d); err != nil {
		return model.DividendDeclaration{}, err
	}

	s.logger.Info().
		Str("dividendId", d.ID).
		Str("symbol", d.Symbol).
		Float64("dividendPerShare", d.DividendPerShare).
		Msg("dividend declaration recorded")

	return d, nil
}

// GetDividend returns one declaration by ID.
func (s *DividendService) GetDividend(ctx context.Context, dividendID string) (model.DividendDeclaration, error) {
	return s.dividendRepo.GetDividend(ctx, nil, dividendID)
}

// ListDividends returns declarations, newest ex-date first, optionally
// filtered by symbol.
func (s *DividendService) ListDividends(ctx context.Context, symbol string) ([]model.DividendDeclaration, error) {
	if symbol != "" {
		if _, err := s.stockRepo.GetStock(ctx, symbol); err != nil {
			return nil, err
		}
	}
	return s.dividendRepo.ListDividends(ctx, symbol)
}

// IngestPrediction stores or refreshes a forecast from the prediction
// pipeline.
func (s *DividendService) IngestPrediction(ctx context.Context, p model.DividendPrediction) error {
	if _, err := s.stockRepo.GetStock(ctx, p.Symbol); err != nil {
		return err
	}
	if p.PredictedExDividendDate.IsZero() {
		return apperrors.ErrInvalidDate
	}
	if p.PredictedDividendPerShare < 0 {
		return fmt.Errorf("%w: predicted dividend per share %v", apperrors.ErrInvalidPrice, p.PredictedDividendPerShare)
	}

	p.PredictedExDividendDate = dateutil.Normalize(p.PredictedExDividendDate)
	if p.PredictionDate.IsZero() {
		p.PredictionDate = time.Now().UTC()
	}
	if p.PredictedRecordDate != nil {
		d := dateutil.Normalize(*p.PredictedRecordDate)
		p.PredictedRecordDate = &d
	}
	if p.PredictedPaymentDate != nil {
		d := dateutil.Normalize(*p.PredictedPaymentDate)
		p.PredictedPaymentDate = &d
	}

	return s.predictionRepo.UpsertPrediction(ctx, p)
}
