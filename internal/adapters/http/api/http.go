// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/okian/matchday/internal/domain/training"
	"github.com/okian/matchday/internal/domain/types"
	"github.com/okian/matchday/pkg/logger"
)

const (
	defaultTrainPerMin = 6
	corsMaxAge         = 300
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	TeamDependencies
	SimulationDependencies
	ModelDependencies
	DataDependencies
}

// TeamDependencies serves the per-team reports.
type TeamDependencies interface {
	TeamSummary(ctx context.Context, teamID int64, nGames, topN int) (types.TeamSummary, error)
	EstimateTeamRate(ctx context.Context, teamID int64, nGames int) (types.TeamRate, error)
}

// SimulationDependencies runs matchup simulations.
type SimulationDependencies interface {
	SimulateMatch(ctx context.Context, ourTeamID, opponentID int64, nGames int) (types.Simulation, error)
	Scenario(ctx context.Context, ourTeamID, opponentID int64, nGames int, key string) (types.Scenario, error)
}

// ModelDependencies trains and describes models.
type ModelDependencies interface {
	TrainModel(ctx context.Context, opts training.Options) (types.ModelInfo, error)
	Metrics(ctx context.Context) (types.ModelInfo, error)
	Runs(ctx context.Context, limit int) ([]types.TrainingRun, error)
}

// DataDependencies reloads the source data.
type DataDependencies interface {
	Refresh(ctx context.Context) (types.Refresh, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	teamsHandler      *TeamsHandler
	simulationHandler *SimulationHandler
	modelsHandler     *ModelsHandler
	dataHandler       *DataHandler

	origins     []string
	trainPerMin int
	validate    *validator.Validate
	logger      logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins. Defaults to any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithTrainRate limits POST /api/models/train to n requests per minute.
// n <= 0 disables the limit.
func WithTrainRate(n int) Option {
	return func(s *Server) {
		s.trainPerMin = n
	}
}

// WithLogger sets a custom logger for the API.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		origins:     []string{"*"},
		trainPerMin: defaultTrainPerMin,
		validate:    validator.New(),
		logger:      logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	limit := rate.Inf
	burst := 1
	if s.trainPerMin > 0 {
		limit = rate.Every(time.Minute / time.Duration(s.trainPerMin))
		burst = s.trainPerMin
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.teamsHandler = &TeamsHandler{deps: deps, server: s}
	s.simulationHandler = &SimulationHandler{deps: deps, server: s}
	s.modelsHandler = &ModelsHandler{deps: deps, server: s, limiter: rate.NewLimiter(limit, burst)}
	s.dataHandler = &DataHandler{deps: deps, server: s}
	return s
}

// Routes returns the router with every API route.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         corsMaxAge,
	}))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/teams/{teamID}/vaep", MetricsMiddleware(s.teamsHandler.HandleVAEP, "team_vaep"))
		r.Get("/teams/{teamID}/rate", MetricsMiddleware(s.teamsHandler.HandleRate, "team_rate"))
		r.Post("/simulation/pre-match", MetricsMiddleware(s.simulationHandler.HandlePreMatch, "pre_match"))
		r.Post("/simulation/scenario", MetricsMiddleware(s.simulationHandler.HandleScenario, "scenario"))
		r.Post("/models/train", MetricsMiddleware(s.modelsHandler.HandleTrain, "train"))
		r.Get("/models/metrics", MetricsMiddleware(s.modelsHandler.HandleMetrics, "model_metrics"))
		r.Get("/models/runs", MetricsMiddleware(s.modelsHandler.HandleRuns, "model_runs"))
		r.Post("/data/refresh", MetricsMiddleware(s.dataHandler.HandleRefresh, "data_refresh"))
	})
	return r
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.Handle("/", s.Routes())
	s.logger.Info(ctx, "api routes registered", logger.Any("cors_origins", s.origins))
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

// fail classifies err and writes it; server-side failures are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err))
	}
	writeError(w, status, code, err)
}

// check runs the struct validator and tags failures as bad requests.
func (s *Server) check(op string, v any) error {
	if err := s.validate.Struct(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return n, nil
}

// pathID parses a positive-integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return id, nil
}
