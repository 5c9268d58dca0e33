package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pattarads/set-dividend-tracker-backend/internal/api/response"
	"github.com/pattarads/set-dividend-tracker-backend/internal/service"
)

// TaxCreditHandler handles HTTP requests for tax credit endpoints.
type TaxCreditHandler struct {
	taxCredits *service.TaxCreditService
}

// NewTaxCreditHandler creates a new TaxCreditHandler with the provided service dependency.
func NewTaxCreditHandler(taxCredits *service.TaxCreditService) *TaxCreditHandler {
	return &TaxCreditHandler{taxCredits: taxCredits}
}

// Calculate handles POST requests to recompute the tax credit for one
// confirmed entitlement.
//
// Endpoint: POST /api/taxcredit/{entitlementID}
// Response: 200 OK with TaxCredit
// Error: 400 Bad Request if the issuer yields no credit (BOI or invalid rate)
// Error: 404 Not Found if the entitlement does not exist
func (h *TaxCreditHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	tc, err := h.taxCredits.CalculateTaxCredit(r.Context(), chi.URLParam(r, "entitlementID"))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, tc)
}

// ListForYear handles GET requests for a user's credits in one tax year.
//
// Endpoint: GET /api/taxcredit?userId&year
// Response: 200 OK with {credits, totalCredit, totalTaxableIncome}
func (h *TaxCreditHandler) ListForYear(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "userId is required")
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "year must be a number")
		return
	}

	credits, totalCredit, totalTaxable, err := h.taxCredits.ListForYear(r.Context(), userID, year)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{
		"credits":            credits,
		"totalCredit":        totalCredit,
		"totalTaxableIncome": totalTaxable,
	})
}
