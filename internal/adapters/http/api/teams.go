package api

import (
	"net/http"
)

// teamQuery bounds the per-team query parameters. Zero values select the
// service defaults.
type teamQuery struct {
	TeamID int64 `validate:"gt=0"`
	NGames int   `validate:"min=0,max=50"`
	NTop   int   `validate:"min=0,max=50"`
}

// TeamsHandler handles per-team reports.
type TeamsHandler struct {
	deps   TeamDependencies
	server *Server
}

func (h *TeamsHandler) parse(op string, r *http.Request) (teamQuery, error) {
	var (
		q   teamQuery
		err error
	)
	if q.TeamID, err = pathID(r, "teamID"); err != nil {
		return q, WrapKind(op, ErrBadRequest, err)
	}
	if q.NGames, err = queryInt(r, "n_games"); err != nil {
		return q, WrapKind(op, ErrBadRequest, err)
	}
	if q.NTop, err = queryInt(r, "n_top"); err != nil {
		return q, WrapKind(op, ErrBadRequest, err)
	}
	return q, h.server.check(op, q)
}

// HandleVAEP handles GET /api/teams/{teamID}/vaep?n_games&n_top requests.
func (h *TeamsHandler) HandleVAEP(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_vaep"
	q, err := h.parse(op, r)
	if err != nil {
		h.server.fail(w, r, err)
		return
	}
	summary, err := h.deps.TeamSummary(r.Context(), q.TeamID, q.NGames, q.NTop)
	if err != nil {
		h.server.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleRate handles GET /api/teams/{teamID}/rate?n_games requests.
func (h *TeamsHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_rate"
	q, err := h.parse(op, r)
	if err != nil {
		h.server.fail(w, r, err)
		return
	}
	rate, err := h.deps.EstimateTeamRate(r.Context(), q.TeamID, q.NGames)
	if err != nil {
		h.server.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rate)
}
