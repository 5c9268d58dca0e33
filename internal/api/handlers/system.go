package handlers

import (
	"net/http"

	"github.com/pattarads/set-dividend-tracker-backend/internal/api/response"
	"github.com/pattarads/set-dividend-tracker-backend/internal/service"
)

// SystemHandler handles HTTP requests for system endpoints.
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler with the provided service dependency.
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{systemService: systemService}
}

// Health handles GET requests for the health check.
//
// Endpoint: GET /api/system/health
// Response: 200 OK with Health, 503 when the database does not respond
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	health := h.systemService.Check()

	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	response.RespondJSON(w, status, health)
}
