package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/matchday/internal/domain/training"
)

var cutoffLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// trainRequest mirrors the body of POST /api/models/train. Both fields are
// optional; an empty body trains on every game.
type trainRequest struct {
	Cutoff       string  `json:"cutoff" validate:"omitempty,max=32"`
	ExcludeGames []int64 `json:"exclude_games" validate:"max=1000,dive,gt=0"`
}

func (t trainRequest) options() (training.Options, error) {
	opts := training.Options{Exclude: t.ExcludeGames}
	if t.Cutoff == "" {
		return opts, nil
	}
	for _, layout := range cutoffLayouts {
		if c, err := time.Parse(layout, t.Cutoff); err == nil {
			opts.Cutoff = c
			return opts, nil
		}
	}
	return opts, fmt.Errorf("invalid cutoff %q; use RFC3339 or YYYY-MM-DD", t.Cutoff)
}

type runsQuery struct {
	Limit int `validate:"min=0,max=500"`
}

// ModelsHandler handles model training and inspection.
type ModelsHandler struct {
	deps    ModelDependencies
	server  *Server
	limiter *rate.Limiter
}

// HandleTrain handles POST /api/models/train requests.
func (h *ModelsHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	const op = "api.train"
	if !h.limiter.Allow() {
		h.server.fail(w, r, NewKind(op, ErrRateLimited))
		return
	}
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.server.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.server.check(op, req); err != nil {
		h.server.fail(w, r, err)
		return
	}
	opts, err := req.options()
	if err != nil {
		h.server.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	info, err := h.deps.TrainModel(r.Context(), opts)
	if err != nil {
		h.server.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleMetrics handles GET /api/models/metrics requests.
func (h *ModelsHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "api.model_metrics"
	info, err := h.deps.Metrics(r.Context())
	if err != nil {
		h.server.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleRuns handles GET /api/models/runs?limit requests.
func (h *ModelsHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	const op = "api.model_runs"
	var (
		q   runsQuery
		err error
	)
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		h.server.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.server.check(op, q); err != nil {
		h.server.fail(w, r, err)
		return
	}
	runs, err := h.deps.Runs(r.Context(), q.Limit)
	if err != nil {
		h.server.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
