package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/logging"
	"github.com/JonMunkholm/inventory/internal/web/templates"
)

func (s *Server) handleDeletedEquipment(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListDeletedEquipment(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleDeletedSoftware(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListDeletedSoftware(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleDeletedSubscriptions(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListDeletedSubscriptions(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status   string                   `json:"status"`
	Database string                   `json:"database"`
	Imports  core.ImportLimiterStatus `json:"imports"`
}

// healthTimeout bounds the database ping so a stuck pool fails fast.
const healthTimeout = 2 * time.Second

// handleHealth reports database reachability. It answers 503 when the ping
// fails so load balancers take the instance out of rotation.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok", Imports: s.service.Imports().Status()}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := s.service.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		resp.Status, resp.Database = "degraded", "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleStatusPage renders a small HTML overview for operators.
func (s *Server) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	data := templates.StatusData{
		Imports:   s.service.Imports().Status(),
		Generated: time.Now(),
	}
	for _, def := range core.All() {
		data.Resources = append(data.Resources, templates.ResourceLink{
			Key:   def.Info.Key,
			Label: def.Info.Label,
			Path:  "/api/v1/" + def.Info.Path,
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if stats, err := s.service.Stats(ctx); err != nil {
		data.Error = core.MapError(err).Message
	} else {
		data.Stats = &stats
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.StatusPage(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render status page", "error", err)
	}
}
