package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pattarads/set-dividend-tracker-backend/internal/api/request"
	"github.com/pattarads/set-dividend-tracker-backend/internal/api/response"
	"github.com/pattarads/set-dividend-tracker-backend/internal/dateutil"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
	"github.com/pattarads/set-dividend-tracker-backend/internal/service"
	"github.com/pattarads/set-dividend-tracker-backend/internal/validation"
)

// DividendHandler handles HTTP requests for dividend declaration, prediction
// and entitlement endpoints.
type DividendHandler struct {
	dividendService *service.DividendService
	entitlements    *service.EntitlementService
}

// NewDividendHandler creates a new DividendHandler with the provided service dependencies.
func NewDividendHandler(dividendService *service.DividendService, entitlements *service.EntitlementService) *DividendHandler {
	return &DividendHandler{
		dividendService: dividendService,
		entitlements:    entitlements,
	}
}

// CreateDividend handles POST requests to record a dividend declaration.
//
// Endpoint: POST /api/dividend
// Request Body: CreateDividendRequest
// Response: 201 Created with DividendDeclaration in PENDING state
// Error: 400 Bad Request if validation fails
func (h *DividendHandler) CreateDividend(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateDividendRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateDividend(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	in := service.CreateDividendInput{
		Symbol:           req.Symbol,
		DividendPerShare: req.DividendPerShare,
		SourceOfDividend: req.SourceOfDividend,
	}
	in.ExDividendDate, _ = dateutil.ParseDay(req.ExDividendDate)
	in.PaymentDate, _ = dateutil.ParseDay(req.PaymentDate)
	if req.AnnouncementDate != "" {
		in.AnnouncementDate, _ = dateutil.ParseDay(req.AnnouncementDate)
	}
	if req.RecordDate != "" {
		in.RecordDate, _ = dateutil.ParseDay(req.RecordDate)
	}

	d, err := h.dividendService.CreateDividend(r.Context(), in)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, d)
}

// ListDividends handles GET requests for declarations.
//
// Endpoint: GET /api/dividend?symbol
// Response: 200 OK with array of DividendDeclaration, newest ex-date first
func (h *DividendHandler) ListDividends(w http.ResponseWriter, r *http.Request) {
	dividends, err := h.dividendService.ListDividends(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, dividends)
}

// Upcoming handles GET requests for declarations with ex-date today or later.
//
// Endpoint: GET /api/dividend/upcoming?limit
// Response: 200 OK with array of DividendDeclaration, soonest first
func (h *DividendHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	dividends, err := h.entitlements.UpcomingDividends(r.Context(), limit)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, dividends)
}

// Calendar handles GET requests for the dividend calendar of one month,
// merging declarations and predictions.
//
// Endpoint: GET /api/dividend/calendar?month&year
// Response: 200 OK with array of CalendarDay
// Error: 400 Bad Request if month or year is malformed
func (h *DividendHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "month must be 1-12")
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1970 {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "year must be a four-digit year")
		return
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	days, err := h.entitlements.Calendar(r.Context(), from, to)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, days)
}

// GetDividend handles GET requests for one declaration.
//
// Endpoint: GET /api/dividend/{id}
// Response: 200 OK with DividendDeclaration
// Error: 404 Not Found if the declaration does not exist
func (h *DividendHandler) GetDividend(w http.ResponseWriter, r *http.Request) {
	d, err := h.dividendService.GetDividend(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, d)
}

// Calculate handles POST requests to run the batch entitlement calculation.
//
// Endpoint: POST /api/dividend/{id}/calculate
// Response: 200 OK with array of DividendEntitlement
// Error: 404 Not Found if the declaration does not exist
// Error: 409 Conflict if the calculation already completed
func (h *DividendHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	entitlements, err := h.entitlements.CalculateEntitlements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, entitlements)
}

// ResetCalculation handles POST requests to return a declaration stuck in
// PROCESSING back to PENDING.
//
// Endpoint: POST /api/dividend/{id}/reset-calculation
// Response: 200 OK with the declaration's new state
// Error: 409 Conflict if the declaration is not in PROCESSING
func (h *DividendHandler) ResetCalculation(w http.ResponseWriter, r *http.Request) {
	dividendID := chi.URLParam(r, "id")

	if err := h.entitlements.ResetCalculation(r.Context(), dividendID); err != nil {
		response.RespondAppError(w, err)
		return
	}

	d, err := h.dividendService.GetDividend(r.Context(), dividendID)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, d)
}

// Entitlements handles GET requests for the entitlements created from one
// declaration.
//
// Endpoint: GET /api/dividend/{id}/entitlements
// Response: 200 OK with array of DividendEntitlement
func (h *DividendHandler) Entitlements(w http.ResponseWriter, r *http.Request) {
	entitlements, err := h.entitlements.ListEntitlements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, entitlements)
}

// Received handles GET requests for a user's entitlement history with
// dividend details and tax credits attached.
//
// Endpoint: GET /api/dividend/received?userId
// Response: 200 OK with array of EntitlementRecord, newest ex-date first
func (h *DividendHandler) Received(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "userId is required")
		return
	}

	records, err := h.entitlements.UserHistory(r.Context(), userID)
	if err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, records)
}

// MarkPaymentReceived handles POST requests recording the payout arrival date
// on an entitlement.
//
// Endpoint: POST /api/entitlement/{id}/payment-received
// Request Body: MarkPaymentReceivedRequest
// Response: 204 No Content
// Error: 404 Not Found if the entitlement does not exist
func (h *DividendHandler) MarkPaymentReceived(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.MarkPaymentReceivedRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	received, err := dateutil.ParseDay(req.ReceivedDate)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "receivedDate must be YYYY-MM-DD")
		return
	}

	if err := h.entitlements.MarkPaymentReceived(r.Context(), chi.URLParam(r, "id"), received); err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}

// UpsertPrediction handles POST requests from the forecasting pipeline.
//
// Endpoint: POST /api/prediction
// Request Body: UpsertPredictionRequest
// Response: 204 No Content
// Error: 400 Bad Request if validation fails
func (h *DividendHandler) UpsertPrediction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpsertPredictionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpsertPrediction(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	p := model.DividendPrediction{
		Symbol:                    req.Symbol,
		PredictedDividendPerShare: req.PredictedDividendPerShare,
		ConfidenceScore:           req.ConfidenceScore,
		PredictionHorizonDays:     req.PredictionHorizonDays,
	}
	p.PredictedExDividendDate, _ = dateutil.ParseDay(req.PredictedExDividendDate)
	if req.PredictionDate != "" {
		p.PredictionDate, _ = dateutil.ParseDay(req.PredictionDate)
	}
	if req.PredictedRecordDate != "" {
		d, _ := dateutil.ParseDay(req.PredictedRecordDate)
		p.PredictedRecordDate = &d
	}
	if req.PredictedPaymentDate != "" {
		d, _ := dateutil.ParseDay(req.PredictedPaymentDate)
		p.PredictedPaymentDate = &d
	}

	if err := h.dividendService.IngestPrediction(r.Context(), p); err != nil {
		response.RespondAppError(w, err)
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}
