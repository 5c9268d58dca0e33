package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pattarads/set-dividend-tracker-backend/internal/api/request"
	"github.com/pattarads/set-dividend-tracker-backend/internal/api/response"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
	"github.com/pattarads/set-dividend-tracker-backend/internal/service"
	"github.com/pattarads/set-dividend-tracker-backend/internal/validation"
)

// TransactionHandler handles HTTP requests for trade endpoints.
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransaction handles POST requests to record a trade.
//
// Endpoint: POST /api/transaction
// Request Body: CreateTransactionRequest
// Response: 201 Created with Transaction
// Error: 400 Bad Request if validation fails or the price is out of tolerance
// Error: 409 Conflict if a sell exceeds the held quantity
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateTransaction(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	date, err := dateutil.ParseDay(req.Date)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	t, err := h.transactionService.CreateTransaction(r.Context(), service.CreateTransactionInput{
		UserID:        req.UserID,
		Symbol:        req.Symbol,
		Date:          date,
		Type:          req.Type,
		Quantity:      req.Quantity,
		PricePerShare: req.PricePerShare,
		Commission:    req.Commission,
	})
	if err != nil {
		response.RespondAppError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, t)
}

// ListTransactions handles GET requests for a user's trades.
//
// Endpoint: GET /api/transaction?userId&symbol&type
// Response: 200 OK with array of Transaction, newest first
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "userId is required")
		return
	}

	transactions, err := h.transactionService.ListTransactions(
		r.Context(), userID, r.URL.Query().Get("symbol"), r.URL.Query().Get("type"))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// GetTransaction handles GET requests for one of the user's trades.
//
// Endpoint: GET /api/transaction/{id}?userId
// Response: 200 OK with Transaction
// Error: 404 Not Found if no such trade belongs to the user
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "userId is required")
		return
	}

	t, err := h.transactionService.GetTransaction(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, t)
}
