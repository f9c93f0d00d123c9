package api

import (
	"net/http"
	"time"

	"github.com/kjannette/stocks-backend/internal/scheduler"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Database string          `json:"database"`
	Session  string          `json:"session"`
	Poller   scheduler.State `json:"poller"`
	Updated  string          `json:"lastUpdate,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "disabled"
	if s.pool != nil {
		dbStatus = "connected"
		if err := s.pool.Ping(r.Context()); err != nil {
			dbStatus = "disconnected"
		}
	}

	sessionStatus := "pending"
	if s.market.HasCrumb() {
		sessionStatus = "ready"
	}

	svc := healthServices{Database: dbStatus, Session: sessionStatus, Poller: s.poller.State()}
	if at := s.latest.UpdatedAt(); !at.IsZero() {
		svc.Updated = at.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Services:  svc,
	})
}
