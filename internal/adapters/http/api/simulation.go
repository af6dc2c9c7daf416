package api

import (
	"encoding/json"
	"net/http"
)

// preMatchRequest mirrors the body of POST /api/simulation/pre-match.
type preMatchRequest struct {
	OurTeamID  int64 `json:"our_team_id" validate:"required,gt=0"`
	OpponentID int64 `json:"opponent_id" validate:"required,gt=0,nefield=OurTeamID"`
	NGames     int   `json:"n_games" validate:"min=0,max=50"`
}

// scenarioRequest evaluates one tactic; an unknown key applies all of them.
type scenarioRequest struct {
	OurTeamID  int64  `json:"our_team_id" validate:"required,gt=0"`
	OpponentID int64  `json:"opponent_id" validate:"required,gt=0,nefield=OurTeamID"`
	NGames     int    `json:"n_games" validate:"min=0,max=50"`
	Scenario   string `json:"scenario" validate:"required,max=64"`
}

// SimulationHandler handles matchup simulations.
type SimulationHandler struct {
	deps   SimulationDependencies
	server *Server
}

// HandlePreMatch handles POST /api/simulation/pre-match requests.
func (h *SimulationHandler) HandlePreMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.pre_match"
	var req preMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.server.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.server.check(op, req); err != nil {
		h.server.fail(w, r, err)
		return
	}
	sim, err := h.deps.SimulateMatch(r.Context(), req.OurTeamID, req.OpponentID, req.NGames)
	if err != nil {
		h.server.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

// HandleScenario handles POST /api/simulation/scenario requests.
func (h *SimulationHandler) HandleScenario(w http.ResponseWriter, r *http.Request) {
	const op = "api.scenario"
	var req scenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.server.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.server.check(op, req); err != nil {
		h.server.fail(w, r, err)
		return
	}
	sc, err := h.deps.Scenario(r.Context(), req.OurTeamID, req.OpponentID, req.NGames, req.Scenario)
	if err != nil {
		h.server.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sc)
}
