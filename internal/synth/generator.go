// Package synth generates deterministic synthetic leagues in the vendor event
// format and drives end-to-end smoke runs against a live service.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/okian/matchday/internal/domain/model"
)

// Default league shape.
const (
	defaultTeams          = 6
	defaultRounds         = 2
	defaultActionsPerGame = 360
	defaultSeed           = 7
	firstGameID           = 1001
	daysBetweenGames      = 3

	pitchLength = 105.0
	pitchWidth  = 68.0
	halfLength  = pitchLength / 2
	halfWidth   = pitchWidth / 2
)

// League is a generated season: raw vendor rows plus the match table.
type League struct {
	Events  []model.RawEvent
	Matches []model.Match
	Teams   []Team
}

// Team is one generated club.
type Team struct {
	ID       int64
	Name     string
	Strength float64
}

// Option configures Generate.
type Option func(*genConfig)

type genConfig struct {
	teams          int
	rounds         int
	actionsPerGame int
	seed           int64
	start          time.Time
}

// WithTeams sets the number of clubs (at least 2).
func WithTeams(n int) Option {
	return func(c *genConfig) {
		if n >= 2 {
			c.teams = n
		}
	}
}

// WithRounds sets how many full round robins are played.
func WithRounds(n int) Option {
	return func(c *genConfig) {
		if n > 0 {
			c.rounds = n
		}
	}
}

// WithActionsPerGame sets the on-ball actions simulated per game.
func WithActionsPerGame(n int) Option {
	return func(c *genConfig) {
		if n > 10 {
			c.actionsPerGame = n
		}
	}
}

// WithSeed fixes the random source.
func WithSeed(seed int64) Option {
	return func(c *genConfig) {
		c.seed = seed
	}
}

// WithStart sets the date of the first game.
func WithStart(t time.Time) Option {
	return func(c *genConfig) {
		if !t.IsZero() {
			c.start = t
		}
	}
}

// Generate builds a league. The same options always produce the same league.
func Generate(opts ...Option) *League {
	cfg := genConfig{
		teams:          defaultTeams,
		rounds:         defaultRounds,
		actionsPerGame: defaultActionsPerGame,
		seed:           defaultSeed,
		start:          time.Date(2024, time.March, 2, 15, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	rng := rand.New(rand.NewSource(cfg.seed)) //nolint:gosec // deterministic fixtures
	league := &League{}
	for i := 0; i < cfg.teams; i++ {
		league.Teams = append(league.Teams, Team{
			ID:       int64(10 + i),
			Name:     fmt.Sprintf("Club %c", 'A'+rune(i%26)),
			Strength: 0.8 + 0.4*float64(i)/float64(cfg.teams-1),
		})
	}

	gameID := int64(firstGameID)
	date := cfg.start
	for round := 0; round < cfg.rounds; round++ {
		for i := 0; i < cfg.teams; i++ {
			for j := i + 1; j < cfg.teams; j++ {
				home, away := league.Teams[i], league.Teams[j]
				if (round+i+j)%2 == 1 {
					home, away = away, home
				}
				g := &game{
					rng:   rng,
					id:    gameID,
					home:  home,
					away:  away,
					total: cfg.actionsPerGame,
				}
				g.play()
				league.Events = append(league.Events, g.rows...)
				league.Matches = append(league.Matches, model.Match{
					GameID:     gameID,
					HomeTeamID: home.ID,
					AwayTeamID: away.ID,
					HomeName:   home.Name,
					AwayName:   away.Name,
					HomeScore:  g.goals[0],
					AwayScore:  g.goals[1],
					Date:       date,
				})
				gameID++
				date = date.Add(daysBetweenGames * 24 * time.Hour)
			}
		}
	}
	return league
}

// game simulates one match. Positions are tracked in the frame of the team in
// possession (attacking towards x=105) and mirrored for the away side on output.
type game struct {
	rng   *rand.Rand
	id    int64
	home  Team
	away  Team
	total int

	rows     []model.RawEvent
	actionID int64
	period   int
	clock    float64
	side     int // 0 home, 1 away
	x, y     float64
	goals    [2]int
}

func (g *game) team(side int) Team {
	if side == 0 {
		return g.home
	}
	return g.away
}

func (g *game) play() {
	g.period = 1
	g.side = g.rng.Intn(2)
	g.kickoff(g.side)
	for n := 0; n < g.total; n++ {
		if n == g.total/2 {
			g.period = 2
			g.clock = 0
			g.kickoff(1 - g.side)
		}
		g.clock += 2 + g.rng.Float64()*9
		g.step()
	}
}

func (g *game) kickoff(side int) {
	g.side = side
	g.x, g.y = halfLength, halfWidth
}

func (g *game) step() {
	att := g.team(g.side)
	switch {
	case g.x > 86 && g.rng.Float64() < 0.3*att.Strength:
		g.shoot(att)
	case g.x > 80 && math.Abs(g.y-halfWidth) > 18 && g.rng.Float64() < 0.3:
		g.cross(att)
	case g.rng.Float64() < 0.2:
		g.carry(att)
	default:
		g.pass(att)
	}
}

func (g *game) pass(att Team) {
	sx, sy := g.x, g.y
	ex := clamp(sx+g.rng.Float64()*22-5, 1, 104)
	ey := clamp(sy+g.rng.NormFloat64()*12, 1, 67)
	success := g.rng.Float64() < 0.62+0.2*att.Strength
	result := "Successful"
	if !success {
		result = "Unsuccessful"
	}
	g.emit(g.side, "Pass", result, "foot", sx, sy, ex, ey)
	if !success {
		g.turnover(ex, ey)
		return
	}
	g.x, g.y = ex, ey
	if g.rng.Float64() < 0.05 {
		g.emit(g.side, "Pass Received", "", "", ex, ey, ex, ey)
	}
}

func (g *game) carry(att Team) {
	sx, sy := g.x, g.y
	ex := clamp(sx+2+g.rng.Float64()*10, 1, 104)
	ey := clamp(sy+g.rng.NormFloat64()*4, 1, 67)
	if g.rng.Float64() < 0.25 {
		success := g.rng.Float64() < 0.4+0.2*att.Strength
		result := "Successful"
		if !success {
			result = "Unsuccessful"
		}
		g.emit(g.side, "Take-On", result, "foot", sx, sy, ex, ey)
		if !success {
			g.turnover(sx, sy)
			return
		}
	} else {
		g.emit(g.side, "Carry", "", "foot", sx, sy, ex, ey)
	}
	g.x, g.y = ex, ey
}

func (g *game) cross(att Team) {
	sx, sy := g.x, g.y
	ex := clamp(95+g.rng.Float64()*8, 1, 104)
	ey := clamp(halfWidth+g.rng.NormFloat64()*6, 1, 67)
	success := g.rng.Float64() < 0.25+0.15*att.Strength
	result := "Successful"
	if !success {
		result = "Unsuccessful"
	}
	g.emit(g.side, "Cross", result, "foot", sx, sy, ex, ey)
	if !success {
		// defending side heads it clear; rarely into its own net
		def := 1 - g.side
		dx, dy := pitchLength-ex, pitchWidth-ey
		if g.rng.Float64() < 0.01 {
			g.emit(def, "Clearance", "Own Goal", "head", dx, dy, 0, halfWidth)
			g.goals[g.side]++
			g.kickoff(def)
			return
		}
		g.emit(def, "Clearance", "Successful", "head", dx, dy, dx+25, dy)
		g.side = def
		g.x, g.y = dx+25, dy
		return
	}
	g.x, g.y = ex, ey
}

func (g *game) shoot(att Team) {
	sx, sy := g.x, g.y
	dist := math.Hypot(pitchLength-sx, halfWidth-sy)
	pGoal := clamp(0.34*att.Strength*(1-dist/40), 0.02, 0.6)
	body := "foot"
	if g.rng.Float64() < 0.2 {
		body = "head"
	}
	u := g.rng.Float64()
	switch {
	case u < pGoal:
		ey := halfWidth + g.rng.NormFloat64()*1.5
		g.emit(g.side, "Shot", "Goal", body, sx, sy, pitchLength, ey)
		if g.rng.Float64() < 0.5 {
			g.emitAs(g.side, g.lastPlayer(), "Goal", "Goal", body, pitchLength, ey, pitchLength, ey)
		}
		g.goals[g.side]++
		g.kickoff(1 - g.side)
	case u < pGoal+0.3:
		g.emit(g.side, "Shot", "On Target", body, sx, sy, pitchLength, halfWidth)
		def := 1 - g.side
		g.emit(def, "Catch", "Successful", "hand", 1, halfWidth, 1, halfWidth)
		g.side = def
		g.x, g.y = 1, halfWidth
	default:
		result := "Off Target"
		if g.rng.Float64() < 0.3 {
			result = "Blocked"
		}
		g.emit(g.side, "Shot", result, body, sx, sy, pitchLength, halfWidth+10)
		def := 1 - g.side
		g.emit(def, "Goal Kick", "Successful", "foot", 5, halfWidth, 45, halfWidth)
		g.side = def
		g.x, g.y = 45, halfWidth
	}
}

// turnover hands the ball to the defending side at (x, y) in the attacker's frame.
func (g *game) turnover(x, y float64) {
	def := 1 - g.side
	dx, dy := pitchLength-x, pitchWidth-y
	kind := "Interception"
	if g.rng.Float64() < 0.4 {
		kind = "Tackle"
	}
	g.emit(def, kind, "Successful", "foot", dx, dy, dx, dy)
	g.side = def
	g.x, g.y = dx, dy
}

func (g *game) lastPlayer() int64 {
	return g.rows[len(g.rows)-1].PlayerID
}

func (g *game) emit(side int, typeName, result, body string, sx, sy, ex, ey float64) {
	player := g.team(side).ID*100 + 1 + int64(g.rng.Intn(11))
	g.emitAs(side, player, typeName, result, body, sx, sy, ex, ey)
}

func (g *game) emitAs(side int, player int64, typeName, result, body string, sx, sy, ex, ey float64) {
	if side == 1 {
		sx, sy = pitchLength-sx, pitchWidth-sy
		ex, ey = pitchLength-ex, pitchWidth-ey
	}
	g.actionID++
	team := g.team(side)
	g.rows = append(g.rows, model.RawEvent{
		GameID:      g.id,
		Period:      g.period,
		TimeSeconds: math.Round(g.clock*10) / 10,
		TeamID:      team.ID,
		PlayerID:    player,
		PlayerName:  fmt.Sprintf("%s #%d", team.Name, player%100),
		ActionID:    g.actionID,
		TypeName:    typeName,
		ResultName:  result,
		BodyPart:    body,
		StartX:      sx,
		StartY:      sy,
		EndX:        ex,
		EndY:        ey,
		DX:          ex - sx,
		DY:          ey - sy,
	})
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
