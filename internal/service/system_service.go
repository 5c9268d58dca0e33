package service

import (
	"database/sql"
	"time"

	"github.com/pattarads/set-dividend-tracker-backend/internal/database"
)

// SystemService reports process health.
type SystemService struct {
	db      *sql.DB
	started time.Time
	version string
}

// NewSystemService creates a new SystemService.
func NewSystemService(db *sql.DB, version string) *SystemService {
	return &SystemService{db: db, started: time.Now(), version: version}
}

// Health is the health report returned by the system endpoint.
type Health struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
}

// Check reports overall health. The status degrades when the database does
// not respond.
func (s *SystemService) Check() Health {
	h := Health{
		Status:   "ok",
		Version:  s.version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Database: "ok",
	}
	if err := database.HealthCheck(s.db); err != nil {
		h.Status = "degraded"
		h.Database = err.Error()
	}
	return h
}
