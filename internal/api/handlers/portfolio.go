package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pattarads/set-dividend-tracker-backend/internal/api/response"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
	"github.com/pattarads/set-dividend-tracker-backend/internal/service"
	"github.com/pattarads/set-dividend-tracker-backend/internal/validation"
)

// PortfolioHandler handles HTTP requests for position endpoints.
type PortfolioHandler struct {
	positions *service.PositionService
}

// NewPortfolioHandler creates a new PortfolioHandler with the provided service dependency.
func NewPortfolioHandler(positions *service.PositionService) *PortfolioHandler {
	return &PortfolioHandler{positions: positions}
}

// Positions handles GET requests for a user's open positions with valuation.
//
// Endpoint: GET /api/portfolio/{userID}
// Response: 200 OK with array of PositionValuation
func (h *PortfolioHandler) Positions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positions.ListPositions(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, positions)
}

// SharesOn handles GET requests reconstructing the shares held at a date.
//
// Endpoint: GET /api/portfolio/{userID}/shares?symbol&date
// Response: 200 OK with {symbol, date, shares}
func (h *PortfolioHandler) SharesOn(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if err := validation.ValidateSymbol(symbol); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	date, err := dateutil.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "date must be YYYY-MM-DD")
		return
	}

	userID := chi.URLParam(r, "userID")
	shares, err := h.positions.SharesHeldOn(r.Context(), nil, userID, symbol, date)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{
		"userId": userID,
		"symbol": symbol,
		"date":   date.Format(dateutil.DayFormat),
		"shares": shares,
	})
}

// CostBasis handles GET requests for the user's cost-basis curve in a symbol.
//
// Endpoint: GET /api/portfolio/{userID}/cost-basis?symbol
// Response: 200 OK with array of CostBasisPoint, oldest first
func (h *PortfolioHandler) CostBasis(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if err := validation.ValidateSymbol(symbol); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	points, err := h.positions.CostBasisCurve(r.Context(), chi.URLParam(r, "userID"), symbol)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, points)
}
