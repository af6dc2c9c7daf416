// Package outcome turns expected-goals rates into win/draw/lose probabilities
// with a correlated bivariate Poisson model and evaluates tactical what-if
// scenarios on top of it.
package outcome

import "math"

// Model defaults.
const (
	DefaultMaxGoals = 7
	DefaultRho      = 0.08
)

// minLambda keeps every Poisson component strictly positive.
const minLambda = 1e-9

// Table is the joint goal-count distribution. P[i][j] is the probability of
// the team scoring i and conceding j.
type Table struct {
	P [][]float64
}

// NewTable builds the (maxGoals+1)^2 table for rates lambdaFor and
// lambdaAgainst with shared component lambda3 = rho*sqrt(lambdaFor*lambdaAgainst).
// Independent components are lambda-lambda3 so that the marginal means stay
// at the requested rates. The table is renormalized to sum to one.
func NewTable(lambdaFor, lambdaAgainst, rho float64, maxGoals int) Table {
	if maxGoals < 1 {
		maxGoals = DefaultMaxGoals
	}
	lf := math.Max(lambdaFor, minLambda)
	la := math.Max(lambdaAgainst, minLambda)
	l3 := math.Max(rho, 0) * math.Sqrt(lf*la)
	l1 := math.Max(lf-l3, minLambda)
	l2 := math.Max(la-l3, minLambda)

	p1 := pmf(l1, maxGoals)
	p2 := pmf(l2, maxGoals)
	p3 := pmf(l3, maxGoals)

	n := maxGoals + 1
	t := Table{P: make([][]float64, n)}
	var total float64
	for i := 0; i < n; i++ {
		t.P[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			var s float64
			for k := 0; k <= min(i, j); k++ {
				s += p1[i-k] * p2[j-k] * p3[k]
			}
			t.P[i][j] = s
			total += s
		}
	}
	if total > 0 {
		for i := range t.P {
			for j := range t.P[i] {
				t.P[i][j] /= total
			}
		}
	}
	return t
}

// Sum returns the total mass of the table.
func (t Table) Sum() float64 {
	var s float64
	for i := range t.P {
		for j := range t.P[i] {
			s += t.P[i][j]
		}
	}
	return s
}

// Outcome sums the strictly-upper (win), diagonal (draw) and strictly-lower
// (lose) parts of the table as fractions.
func (t Table) Outcome() (win, draw, lose float64) {
	for i := range t.P {
		for j := range t.P[i] {
			switch {
			case i > j:
				win += t.P[i][j]
			case i == j:
				draw += t.P[i][j]
			default:
				lose += t.P[i][j]
			}
		}
	}
	return win, draw, lose
}

// pmf returns Poisson probabilities for 0..n.
func pmf(lambda float64, n int) []float64 {
	out := make([]float64, n+1)
	out[0] = math.Exp(-lambda)
	for k := 1; k <= n; k++ {
		out[k] = out[k-1] * lambda / float64(k)
	}
	return out
}
