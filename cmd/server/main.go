package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pattarads/set-dividend-tracker-backend/internal/api"
	"github.com/pattarads/set-dividend-tracker-backend/internal/config"
	"github.com/pattarads/set-dividend-tracker-backend/internal/database"
	"github.com/pattarads/set-dividend-tracker-backend/internal/marketdata"
	"github.com/pattarads/set-dividend-tracker-backend/internal/pricecache"
	"github.com/pattarads/set-dividend-tracker-backend/internal/repository"
	"github.com/pattarads/set-dividend-tracker-backend/internal/scheduler"
	"github.com/pattarads/set-dividend-tracker-backend/internal/service"
)

const version = "1.0.0"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Open database connection and apply migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	logger.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	// Create repositories
	stockRepo := repository.NewStockRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	dividendRepo := repository.NewDividendRepository(db)
	predictionRepo := repository.NewPredictionRepository(db)
	entitlementRepo := repository.NewEntitlementRepository(db)
	taxCreditRepo := repository.NewTaxCreditRepository(db)

	// Create services
	systemService := service.NewSystemService(db, version)
	marketClient := marketdata.NewClient(cfg.MarketData.BaseURL, cfg.MarketData.Token, cfg.MarketData.MinRequestInterval)
	priceCache := pricecache.New(time.Hour)

	priceSyncService := service.NewPriceSyncService(
		priceRepo,
		holidayRepo,
		stockRepo,
		marketClient,
		priceCache,
		logger,
	)
	positionService := service.NewPositionService(
		transactionRepo,
		positionRepo,
		priceSyncService,
		logger,
	)
	taxCreditService := service.NewTaxCreditService(
		taxCreditRepo,
		entitlementRepo,
		dividendRepo,
		stockRepo,
		logger,
	)
	entitlementService := service.NewEntitlementService(
		db,
		dividendRepo,
		transactionRepo,
		entitlementRepo,
		predictionRepo,
		stockRepo,
		positionService,
		taxCreditService,
		logger,
	)
	transactionService := service.NewTransactionService(
		db,
		transactionRepo,
		stockRepo,
		predictionRepo,
		positionService,
		priceSyncService,
		entitlementService,
		logger,
	)
	dividendService := service.NewDividendService(
		dividendRepo,
		predictionRepo,
		stockRepo,
		logger,
	)

	// Start the nightly price sync
	sched, err := scheduler.New(priceSyncService, cfg.Sync, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create scheduler")
	}
	sched.Start()
	defer sched.Stop()

	// Create router
	router := api.NewRouter(api.Services{
		System:       systemService,
		PriceSync:    priceSyncService,
		Positions:    positionService,
		Transactions: transactionService,
		Dividends:    dividendService,
		Entitlements: entitlementService,
		TaxCredits:   taxCreditService,
		StockRepo:    stockRepo,
	}, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}
