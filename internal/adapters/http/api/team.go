package api

import (
	"context"
	"net/http"

	"github.com/okian/olyrank/internal/adapters/repository"
)

// TeamDependencies reads a team's stored ratings.
type TeamDependencies interface {
	Team(ctx context.Context, division, state, team string) (*repository.TeamRatings, error)
}

// TeamHandler handles team requests.
type TeamHandler struct {
	deps TeamDependencies
}

// NewTeamHandler creates a new team handler.
func NewTeamHandler(deps TeamDependencies) *TeamHandler {
	return &TeamHandler{deps: deps}
}

// HandleGetTeam handles GET /teams/{division}/{state}/{team}: every season,
// category and history entry of one team.
func (h *TeamHandler) HandleGetTeam(w http.ResponseWriter, r *http.Request) {
	tr, err := h.deps.Team(r.Context(), r.PathValue("division"), r.PathValue("state"), r.PathValue("team"))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}
