package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
	"tournament-tracker/internal/constants"
	"tournament-tracker/internal/domain"
	"tournament-tracker/internal/rankings"
	"tournament-tracker/internal/refresh"

	"github.com/rs/zerolog"
)

// OpsServer is the operational HTTP surface: rankings reads, per-domain
// staleness reporting, on-demand refreshes, and admin cache clears. The
// Discord presentation layer consumes the same Go services directly; this
// surface exists for admin tooling.
type OpsServer struct {
	coordinator *refresh.Coordinator
	rankings    *rankings.Service
	logger      zerolog.Logger
}

func NewOpsServer(coordinator *refresh.Coordinator, rankingsSvc *rankings.Service, logger zerolog.Logger) *OpsServer {
	return &OpsServer{
		coordinator: coordinator,
		rankings:    rankingsSvc,
		logger:      logger.With().Str("component", "ops").Logger(),
	}
}

func (s *OpsServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rankings/{division}", s.handleRankings)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/refresh/matches", s.handleRefreshMatches)
	mux.HandleFunc("POST /api/cache/clear", s.handleClear)
}

type rankingsResponse struct {
	*domain.RankingsSnapshot
	LastRefreshed *time.Time `json:"last_refreshed,omitempty"`
}

func (s *OpsServer) handleRankings(w http.ResponseWriter, r *http.Request) {
	division, err := domain.ParseDivision(r.PathValue("division"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	snap, err := s.rankings.Get(ctx, division)
	if err != nil {
		// No cached fallback exists when the source fetch fails.
		s.logger.Error().Err(err).Str("division", string(division)).Msg("rankings unavailable")
		writeError(w, http.StatusBadGateway, "rankings unavailable")
		return
	}

	resp := rankingsResponse{RankingsSnapshot: snap}
	if ts, ok := s.rankings.LastRefreshed(ctx); ok {
		resp.LastRefreshed = &ts
	}
	writeJSON(w, http.StatusOK, resp)
}

type domainStatus struct {
	Domain        string     `json:"domain"`
	LastRefreshed *time.Time `json:"last_refreshed,omitempty"`
	Stale         bool       `json:"stale"`
	StaleAfter    string     `json:"stale_after"`
}

func (s *OpsServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	statuses := make([]domainStatus, 0, len(s.coordinator.Domains())+1)
	for _, d := range s.coordinator.Domains() {
		st := domainStatus{
			Domain:     d.Name(),
			Stale:      d.Stale(ctx),
			StaleAfter: d.StaleAfter().String(),
		}
		if ts, ok := d.LastRefreshed(ctx); ok {
			st.LastRefreshed = &ts
		}
		statuses = append(statuses, st)
	}

	rankStatus := domainStatus{Domain: "rankings", Stale: true}
	if ts, ok := s.rankings.LastRefreshed(ctx); ok {
		rankStatus.LastRefreshed = &ts
		rankStatus.Stale = false
	}
	statuses = append(statuses, rankStatus)

	writeJSON(w, http.StatusOK, map[string]any{"domains": statuses})
}

func (s *OpsServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.RunCycle(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "refresh cycle ended with errors")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *OpsServer) handleRefreshMatches(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.RefreshMatchData(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "match data refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *OpsServer) handleClear(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("domain")
	ctx := r.Context()

	if name == "rankings" {
		if err := s.rankings.Clear(ctx); err != nil {
			writeError(w, http.StatusInternalServerError, "clear failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"cleared": name})
		return
	}

	for _, d := range s.coordinator.Domains() {
		if d.Name() == name {
			if err := d.Clear(ctx); err != nil {
				writeError(w, http.StatusInternalServerError, "clear failed")
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"cleared": name})
			return
		}
	}
	writeError(w, http.StatusBadRequest, "unknown domain")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
