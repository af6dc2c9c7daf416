package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/modelcache"
	"github.com/okian/matchday/internal/domain/outcome"
	"github.com/okian/matchday/internal/domain/rating"
	"github.com/okian/matchday/internal/domain/training"
	"github.com/okian/matchday/internal/domain/types"
	"github.com/okian/matchday/internal/domain/vaep"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

const methodology = "VAEP"

// running returns the cache once the service is started.
func (s *Service) running() (*modelcache.Cache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.cache, nil
}

// fetch returns the artifact for opts trained on ds.
func (s *Service) fetch(ctx context.Context, ds *repository.Dataset, opts training.Options) (*training.Artifact, error) {
	cache, err := s.running()
	if err != nil {
		return nil, err
	}
	return cache.GetOrBuild(withDataset(ctx, ds), ds.Token, opts)
}

// TrainOrFetchModels returns the cached artifact for opts, training one on a
// miss. It fails with training.ErrInsufficientData when no rows are usable.
func (s *Service) TrainOrFetchModels(ctx context.Context, opts training.Options) (*training.Artifact, types.ModelInfo, error) {
	ds := s.currentDataset()
	art, err := s.fetch(ctx, ds, opts)
	if err != nil {
		return nil, types.ModelInfo{}, err
	}
	return art, modelInfo(ds.Token, art), nil
}

// TrainModel is TrainOrFetchModels without the artifact.
func (s *Service) TrainModel(ctx context.Context, opts training.Options) (types.ModelInfo, error) {
	_, info, err := s.TrainOrFetchModels(ctx, opts)
	return info, err
}

// Metrics returns the description of the model trained on all games.
func (s *Service) Metrics(ctx context.Context) (types.ModelInfo, error) {
	return s.TrainModel(ctx, training.Options{})
}

// ValueActions scores actions with art and applies the value recurrence.
func (s *Service) ValueActions(actions []model.Action, art *training.Artifact) []model.ValuedAction {
	values := vaep.Value(actions, art)
	metrics.RecordActionsValued(len(values))
	return values
}

// TeamSummary values the team's last nGames games with a model that never saw
// them.
func (s *Service) TeamSummary(ctx context.Context, teamID int64, nGames, topN int) (types.TeamSummary, error) {
	if topN <= 0 {
		topN = s.topN
	}
	ds := s.currentDataset()
	recent, err := s.lastGames(ds, teamID, nGames)
	if err != nil {
		return types.TeamSummary{}, err
	}
	games := gameIDs(recent)

	art, err := s.fetch(ctx, ds, guardOptions(recent))
	if err != nil {
		return types.TeamSummary{}, fmt.Errorf("team %d summary: %w", teamID, err)
	}

	values := s.ValueActions(ds.GameActions(games), art)
	summary := vaep.Summarize(values, teamID, topN)
	out := summaryResponse(summary, games)
	out.ModelID = art.ID
	out.CutoffRelaxed = art.CutoffRelaxed
	out.Metrics = art.Metrics

	s.logger.Debug(ctx, "team summary",
		logger.Int64("team", teamID),
		logger.Int("games", len(games)),
		logger.Int("values", len(values)),
		logger.String("model", art.ID))
	return out, nil
}

// EstimateTeamRate rates the team over its last nGames games, with xG from a
// model that never saw them.
func (s *Service) EstimateTeamRate(ctx context.Context, teamID int64, nGames int) (types.TeamRate, error) {
	ds := s.currentDataset()
	recent, err := s.lastGames(ds, teamID, nGames)
	if err != nil {
		return types.TeamRate{}, err
	}
	art, err := s.fetch(ctx, ds, guardOptions(recent))
	if err != nil {
		return types.TeamRate{}, fmt.Errorf("team %d rate: %w", teamID, err)
	}
	r := s.teamRate(ds, art, teamID, recent)
	return rateResponse(r, art), nil
}

// SimulateMatch rates both teams and runs the outcome simulator with every
// tactic scenario.
func (s *Service) SimulateMatch(ctx context.Context, ourTeamID, opponentID int64, nGames int) (types.Simulation, error) {
	m, err := s.matchupRates(ctx, ourTeamID, opponentID, nGames)
	if err != nil {
		return types.Simulation{}, err
	}

	sim := s.simulator.Simulate(m.our, m.opp)
	sim.OurRate = rateResponse(m.our, m.art)
	sim.OpponentRate = rateResponse(m.opp, m.art)
	metrics.RecordSimulation()

	s.logger.Debug(ctx, "match simulated",
		logger.Int64("our", ourTeamID),
		logger.Int64("opponent", opponentID),
		logger.String("model", m.art.ID),
		logger.Float64("win", sim.BasePrediction.Win),
		logger.Float64("improvement", sim.WinImprovement))
	return sim, nil
}

// Scenario evaluates one tactic for a matchup; an unknown key applies all of them.
func (s *Service) Scenario(ctx context.Context, ourTeamID, opponentID int64, nGames int, key string) (types.Scenario, error) {
	m, err := s.matchupRates(ctx, ourTeamID, opponentID, nGames)
	if err != nil {
		return types.Scenario{}, err
	}
	metrics.RecordSimulation()
	return s.simulator.Case(outcome.State{Our: m.our, Opponent: m.opp}, key), nil
}

type matchup struct {
	our, opp rating.TeamRate
	art      *training.Artifact
}

// matchupRates rates both teams in parallel with one model that saw neither
// team's recent games.
func (s *Service) matchupRates(ctx context.Context, ourTeamID, opponentID int64, nGames int) (matchup, error) {
	ds := s.currentDataset()
	ourGames, err := s.lastGames(ds, ourTeamID, nGames)
	if err != nil {
		return matchup{}, err
	}
	oppGames, err := s.lastGames(ds, opponentID, nGames)
	if err != nil {
		return matchup{}, err
	}

	guarded := make([]model.Match, 0, len(ourGames)+len(oppGames))
	guarded = append(append(guarded, ourGames...), oppGames...)
	art, err := s.fetch(ctx, ds, guardOptions(guarded))
	if err != nil {
		return matchup{}, fmt.Errorf("matchup %d-%d: %w", ourTeamID, opponentID, err)
	}

	m := matchup{art: art}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.our = s.teamRate(ds, art, ourTeamID, ourGames)
		return gctx.Err()
	})
	g.Go(func() error {
		m.opp = s.teamRate(ds, art, opponentID, oppGames)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return matchup{}, err
	}
	return m, nil
}

// lastGames is the team's last nGames games, newest first.
func (s *Service) lastGames(ds *repository.Dataset, teamID int64, nGames int) ([]model.Match, error) {
	if nGames <= 0 {
		nGames = s.recentGames
	}
	recent := rating.RecentGames(ds.Matches, teamID, nGames)
	if len(recent) == 0 {
		return nil, fmt.Errorf("team %d: %w", teamID, ErrNoTeamData)
	}
	return recent, nil
}

// guardOptions keeps the analysed games out of training: they are excluded
// and the cutoff is one second before the earliest of them.
func guardOptions(games []model.Match) training.Options {
	opts := training.Options{Exclude: gameIDs(games)}
	if earliest := earliestDate(games); !earliest.IsZero() {
		opts.Cutoff = earliest.Add(-time.Second)
	}
	return opts.Normalized()
}

func (s *Service) teamRate(ds *repository.Dataset, art *training.Artifact, teamID int64, recent []model.Match) rating.TeamRate {
	values := s.ValueActions(ds.GameActions(gameIDs(recent)), art)
	return s.estimator.Estimate(values, recent, teamID)
}

// Refresh reloads the source tables. A changed dataset invalidates every
// cached model and restarts the warm-up.
func (s *Service) Refresh(ctx context.Context) (types.Refresh, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.Refresh{}, ErrNotStarted
	}

	ds, changed, err := s.store.Refresh(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("service", "refresh_error")
		return types.Refresh{}, fmt.Errorf("refresh data: %w", err)
	}
	if changed {
		s.cache.Invalidate(ctx, ds.Token)
		s.ready.Store(false)
		if s.warmUp {
			s.startWarmUp(s.runCtx)
		}
	}
	s.logger.Info(ctx, "data refreshed",
		logger.String("token", ds.Token),
		logger.Bool("changed", changed))
	return types.Refresh{
		Token:        ds.Token,
		Changed:      changed,
		Actions:      len(ds.Actions),
		Matches:      len(ds.Matches),
		SkippedRows:  ds.SkippedRows,
		DataWarnings: ds.Report.Total(),
	}, nil
}

// Runs lists the most recent training runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]types.TrainingRun, error) {
	if s.ledger == nil {
		return []types.TrainingRun{}, nil
	}
	runs, err := s.ledger.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list training runs: %w", err)
	}
	return runs, nil
}

func (s *Service) currentDataset() *repository.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return &repository.Dataset{}
	}
	return s.store.Current()
}

func gameIDs(matches []model.Match) []int64 {
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.GameID
	}
	return ids
}

// earliestDate is the first known date among matches; zero if none is known.
func earliestDate(matches []model.Match) time.Time {
	var first time.Time
	for _, m := range matches {
		if m.Date.IsZero() {
			continue
		}
		if first.IsZero() || m.Date.Before(first) {
			first = m.Date
		}
	}
	return first
}

func modelInfo(token string, art *training.Artifact) types.ModelInfo {
	scoring, conceding := art.Methods()
	info := types.ModelInfo{
		ModelID:            art.ID,
		Key:                art.Key,
		Token:              token,
		TrainedAt:          art.TrainedAt,
		ExcludeGames:       append([]int64{}, art.Options.Exclude...),
		CutoffRelaxed:      art.CutoffRelaxed,
		TrainRows:          art.TrainRows,
		ValidationRows:     art.ValidationRows,
		TrainGames:         len(art.TrainGames),
		ValidationGames:    len(art.ValidationGames),
		ScoreCalibration:   scoring,
		ConcedeCalibration: conceding,
		Metrics:            art.Metrics,
	}
	if !art.Options.Cutoff.IsZero() {
		cutoff := art.Options.Cutoff
		info.Cutoff = &cutoff
	}
	return info
}

// summaryResponse rounds player rows first and derives the team totals from
// the rounded rows.
func summaryResponse(sum vaep.TeamSummary, games []int64) types.TeamSummary {
	out := types.TeamSummary{
		TeamID:             sum.TeamID,
		Games:              games,
		TopPlayers:         playerRows(sum.TopPlayers),
		TopOffensive:       playerRows(sum.TopOffensive),
		TopDefensive:       playerRows(sum.TopDefensive),
		TopValuableActions: make([]types.ActionValue, 0, len(sum.TopActions)),
		Methodology:        methodology,
	}
	var total, off, def float64
	for _, p := range playerRows(sum.Players) {
		total += p.TotalVAEP
		off += p.OffensiveVAEP
		def += p.DefensiveVAEP
	}
	out.TeamTotalVAEP = types.Round(total, 3)
	out.OffensiveVAEP = types.Round(off, 3)
	out.DefensiveVAEP = types.Round(def, 3)

	for i := range sum.TopActions {
		a := &sum.TopActions[i]
		out.TopValuableActions = append(out.TopValuableActions, types.ActionValue{
			GameID:         a.GameID,
			ActionID:       a.ActionID,
			PlayerID:       a.PlayerID,
			Player:         a.PlayerName,
			Action:         string(a.Type),
			Value:          types.Round(a.Total, 4),
			OffensiveValue: types.Round(a.Offensive, 4),
			StartX:         types.Round(a.StartX, 1),
			StartY:         types.Round(a.StartY, 1),
			EndX:           types.Round(a.EndX, 1),
			EndY:           types.Round(a.EndY, 1),
		})
	}
	return out
}

func playerRows(players []vaep.PlayerValue) []types.PlayerValue {
	out := make([]types.PlayerValue, len(players))
	for i, p := range players {
		out[i] = types.PlayerValue{
			PlayerID:      p.PlayerID,
			PlayerName:    p.PlayerName,
			TotalVAEP:     types.Round(p.Total, 3),
			OffensiveVAEP: types.Round(p.Offensive, 3),
			DefensiveVAEP: types.Round(p.Defensive, 3),
			Actions:       p.Actions,
			AvgVAEP:       types.Round(p.Average(), 4),
		}
	}
	return out
}

func rateResponse(r rating.TeamRate, art *training.Artifact) types.TeamRate {
	return types.TeamRate{
		TeamID:            r.TeamID,
		ModelID:           art.ID,
		Games:             r.Games,
		XGForPerGame:      types.Round(r.XGFor, 3),
		XGAgainstPerGame:  types.Round(r.XGAgainst, 3),
		Shots:             r.Shots,
		ShotsAgainst:      r.ShotsAgainst,
		Goals:             r.Goals,
		GoalsAgainst:      r.GoalsAgainst,
		ShotConversion:    types.Round(r.ShotConversion, 3),
		OppShotConversion: types.Round(r.OppShotConversion, 3),
		PassSuccess:       types.Round(r.PassSuccess, 3),
		OppPassSuccess:    types.Round(r.OppPassSuccess, 3),
		Possession:        types.Round(r.Possession, 3),
	}
}
