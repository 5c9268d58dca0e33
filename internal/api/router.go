// Package api wires the HTTP surface: router, middleware, request parsing and
// response shaping.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pattarads/set-dividend-tracker-backend/internal/api/handlers"
	custommiddleware "github.com/pattarads/set-dividend-tracker-backend/internal/api/middleware"
	"github.com/pattarads/set-dividend-tracker-backend/internal/config"
	"github.com/pattarads/set-dividend-tracker-backend/internal/repository"
	"github.com/pattarads/set-dividend-tracker-backend/internal/service"
)

// Services bundles the service dependencies the router needs.
type Services struct {
	System       *service.SystemService
	PriceSync    *service.PriceSyncService
	Positions    *service.PositionService
	Transactions *service.TransactionService
	Dividends    *service.DividendService
	Entitlements *service.EntitlementService
	TaxCredits   *service.TaxCreditService
	StockRepo    *repository.StockRepository
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
		})

		r.Route("/stock", func(r chi.Router) {
			stockHandler := handlers.NewStockHandler(svc.StockRepo, svc.PriceSync, svc.Entitlements)
			r.Get("/", stockHandler.ListStocks)
			r.Post("/", stockHandler.CreateStock)
			r.Get("/{symbol}", stockHandler.GetStock)
			r.Get("/{symbol}/prices", stockHandler.Prices)
			r.Get("/{symbol}/price-by-date", stockHandler.PriceByDate)
			r.Get("/{symbol}/price-history", stockHandler.PriceHistory)
			r.Get("/{symbol}/estimated-benefit", stockHandler.EstimatedBenefit)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Positions)
			r.Get("/{userID}", portfolioHandler.Positions)
			r.Get("/{userID}/shares", portfolioHandler.SharesOn)
			r.Get("/{userID}/cost-basis", portfolioHandler.CostBasis)
		})

		r.Route("/transaction", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
			r.Post("/", transactionHandler.CreateTransaction)
			r.Get("/", transactionHandler.ListTransactions)
			r.Get("/{id}", transactionHandler.GetTransaction)
		})

		dividendHandler := handlers.NewDividendHandler(svc.Dividends, svc.Entitlements)
		r.Route("/dividend", func(r chi.Router) {
			r.Post("/", dividendHandler.CreateDividend)
			r.Get("/", dividendHandler.ListDividends)
			r.Get("/upcoming", dividendHandler.Upcoming)
			r.Get("/calendar", dividendHandler.Calendar)
			r.Get("/received", dividendHandler.Received)
			r.Get("/{id}", dividendHandler.GetDividend)
			r.Post("/{id}/calculate", dividendHandler.Calculate)
			r.Post("/{id}/reset-calculation", dividendHandler.ResetCalculation)
			r.Get("/{id}/entitlements", dividendHandler.Entitlements)
		})

		r.Route("/entitlement", func(r chi.Router) {
			r.Post("/{id}/payment-received", dividendHandler.MarkPaymentReceived)
		})

		r.Route("/prediction", func(r chi.Router) {
			r.Post("/", dividendHandler.UpsertPrediction)
		})

		r.Route("/taxcredit", func(r chi.Router) {
			taxCreditHandler := handlers.NewTaxCreditHandler(svc.TaxCredits)
			r.Get("/", taxCreditHandler.ListForYear)
			r.Post("/{entitlementID}", taxCreditHandler.Calculate)
		})
	})

	return r
}
