// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/olyrank/internal/adapters/repository"
	"github.com/okian/olyrank/internal/engine"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LeaderboardDependencies
	RankDependencies
	TeamDependencies
	MetaDependencies
	StatsProvider
}

// Standing mirrors the read shape returned by leaderboard queries.
type Standing = repository.Standing

// Summary mirrors the division meta shape.
type Summary = engine.Summary

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	teamHandler        *TeamHandler
	metaHandler        *MetaHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		teamHandler:        NewTeamHandler(deps),
		metaHandler:        NewMetaHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /leaderboard/{division}", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{division}/{state}/{team}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("GET /teams/{division}/{state}/{team}", MetricsMiddleware(s.teamHandler.HandleGetTeam, "teams"))
	mux.HandleFunc("GET /meta/{division}", MetricsMiddleware(s.metaHandler.HandleGetMeta, "meta"))
}

// selector is the optional season/category pair shared by board queries.
type selector struct {
	season   int
	category string
}

func parseSelector(r *http.Request) (selector, error) {
	q := r.URL.Query()
	sel := selector{category: strings.TrimSpace(q.Get("category"))}
	if raw := q.Get("season"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return selector{}, fmt.Errorf("%w: season must be a positive year", ErrBadRequest)
		}
		sel.season = n
	}
	return sel, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeUpstreamError translates upstream not-found errors to 404 and
// everything else to 500.
func writeUpstreamError(w http.ResponseWriter, err error) {
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}

// isNotFound stays generic to avoid coupling with the service's sentinels.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, repository.ErrNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
