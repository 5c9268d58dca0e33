package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pattarads/set-dividend-tracker-backend/internal/api/request"
	"github.com/pattarads/set-dividend-tracker-backend/internal/api/response"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/repository"
	"github.com/pattarads/set-dividend-tracker-backend/internal/service"
	"github.com/pattarads/set-dividend-tracker-backend/internal/validation"
)

// StockHandler handles HTTP requests for stock and price endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the services.
type StockHandler struct {
	stockRepo    *repository.StockRepository
	priceSync    *service.PriceSyncService
	entitlements *service.EntitlementService
}

// NewStockHandler creates a new StockHandler with the provided dependencies.
func NewStockHandler(
	stockRepo *repository.StockRepository,
	priceSync *service.PriceSyncService,
	entitlements *service.EntitlementService,
) *StockHandler {
	return &StockHandler{
		stockRepo:    stockRepo,
		priceSync:    priceSync,
		entitlements: entitlements,
	}
}

// ListStocks handles GET requests to retrieve all registered stocks.
//
// Endpoint: GET /api/stock?sector
// Response: 200 OK with array of Stock
func (h *StockHandler) ListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.stockRepo.ListStocks(r.Context(), r.URL.Query().Get("sector"))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, stocks)
}

// GetStock handles GET requests for one stock.
//
// Endpoint: GET /api/stock/{symbol}
// Response: 200 OK with Stock
// Error: 404 Not Found if the symbol is unknown
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.stockRepo.GetStock(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, stock)
}

// CreateStock handles POST requests to register a stock.
//
// Endpoint: POST /api/stock
// Request Body: CreateStockRequest
// Response: 201 Created with Stock
// Error: 400 Bad Request if validation fails
func (h *StockHandler) CreateStock(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateStockRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateStock(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	stock := model.Stock{
		Symbol:           req.Symbol,
		Name:             req.Name,
		Sector:           req.Sector,
		CorporateTaxRate: req.CorporateTaxRate,
		BOISupport:       req.BOISupport,
	}
	if err := h.stockRepo.CreateStock(r.Context(), stock); err != nil {
		response.RespondAppError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, stock)
}

// Prices handles GET requests for a symbol's price bars in a date range,
// syncing missing days from the provider first.
//
// Endpoint: GET /api/stock/{symbol}/prices?start=YYYY-MM-DD&end=YYYY-MM-DD
// Response: 200 OK with array of PriceBar, newest first
// Error: 400 Bad Request if the range is malformed
// Error: 404 Not Found if the symbol is unknown
func (h *StockHandler) Prices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	start, err := dateutil.ParseDay(r.URL.Query().Get("start"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "start must be YYYY-MM-DD")
		return
	}
	end, err := dateutil.ParseDay(r.URL.Query().Get("end"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "end must be YYYY-MM-DD")
		return
	}

	bars, err := h.priceSync.EnsurePrices(r.Context(), symbol, start, end)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, bars)
}

// PriceByDate handles GET requests for the close price on one trading date.
//
// Endpoint: GET /api/stock/{symbol}/price-by-date?date=YYYY-MM-DD
// Response: 200 OK with {date, close}
// Error: 404 Not Found if the date has no trading data
func (h *StockHandler) PriceByDate(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	date, err := dateutil.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "date must be YYYY-MM-DD")
		return
	}

	close, err := h.priceSync.PriceOnDate(r.Context(), symbol, date)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"date":   date.Format(dateutil.DayFormat),
		"close":  close,
	})
}

// PriceHistory handles GET requests for every stored bar of a symbol.
//
// Endpoint: GET /api/stock/{symbol}/price-history
// Response: 200 OK with array of PriceBar, newest first
func (h *StockHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	bars, err := h.priceSync.History(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, bars)
}

// EstimatedBenefit handles GET requests previewing the user's take from the
// symbol's next dividend event.
//
// Endpoint: GET /api/stock/{symbol}/estimated-benefit?userId
// Response: 200 OK with EstimatedBenefit
// Error: 404 Not Found if no upcoming dividend or prediction exists
func (h *StockHandler) EstimatedBenefit(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "userId is required")
		return
	}

	benefit, err := h.entitlements.EstimateBenefit(r.Context(), userID, chi.URLParam(r, "symbol"))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, benefit)
}
