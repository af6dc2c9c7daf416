package learn

import "math"

// Default optimizer settings.
const (
	defaultEpochs       = 200
	defaultLearningRate = 0.5
	defaultL2           = 1e-4
)

// FitOption tunes FitLogistic.
type FitOption func(*fitConfig)

type fitConfig struct {
	epochs int
	lr     float64
	l2     float64
}

// WithEpochs sets the number of full-batch gradient steps.
func WithEpochs(n int) FitOption {
	return func(c *fitConfig) {
		if n > 0 {
			c.epochs = n
		}
	}
}

// WithLearningRate sets the gradient step size.
func WithLearningRate(lr float64) FitOption {
	return func(c *fitConfig) {
		if lr > 0 {
			c.lr = lr
		}
	}
}

// WithL2 sets the ridge penalty on the weights (not the bias).
func WithL2(l2 float64) FitOption {
	return func(c *fitConfig) {
		if l2 >= 0 {
			c.l2 = l2
		}
	}
}

// Logistic is a binary logistic-regression classifier over encoded vectors.
type Logistic struct {
	Bias    float64
	Weights []float64
	offset  int
}

// FitLogistic trains with deterministic full-batch gradient descent. The bias
// starts at the log-odds of the positive rate and the weights at zero, so two
// fits on the same data are bit-identical.
func FitLogistic(xs []Vector, ys []bool, catWidth int, opts ...FitOption) *Logistic {
	cfg := fitConfig{epochs: defaultEpochs, lr: defaultLearningRate, l2: defaultL2}
	for _, opt := range opts {
		opt(&cfg)
	}

	numWidth := 0
	if len(xs) > 0 {
		numWidth = len(xs[0].Numeric)
	}
	m := &Logistic{Weights: make([]float64, catWidth+numWidth), offset: catWidth}
	if len(xs) == 0 {
		return m
	}

	pos := 0
	for _, y := range ys {
		if y {
			pos++
		}
	}
	n := float64(len(xs))
	rate := clampProb((float64(pos) + 0.5) / (n + 1))
	m.Bias = math.Log(rate / (1 - rate))

	grad := make([]float64, len(m.Weights))
	for epoch := 0; epoch < cfg.epochs; epoch++ {
		for i := range grad {
			grad[i] = 0
		}
		var gb float64
		for i := range xs {
			r := m.Raw(xs[i])
			if ys[i] {
				r -= 1
			}
			gb += r
			for _, idx := range xs[i].Active {
				grad[idx] += r
			}
			for j, x := range xs[i].Numeric {
				grad[catWidth+j] += r * x
			}
		}
		m.Bias -= cfg.lr * gb / n
		for k := range m.Weights {
			m.Weights[k] -= cfg.lr * (grad[k]/n + cfg.l2*m.Weights[k])
		}
	}
	return m
}

// Logit returns the linear score of x.
func (m *Logistic) Logit(x Vector) float64 {
	z := m.Bias
	for _, idx := range x.Active {
		if idx < len(m.Weights) {
			z += m.Weights[idx]
		}
	}
	for j, v := range x.Numeric {
		if k := m.offset + j; k < len(m.Weights) {
			z += m.Weights[k] * v
		}
	}
	return z
}

// Raw returns the uncalibrated probability of the positive class.
func (m *Logistic) Raw(x Vector) float64 {
	return sigmoid(m.Logit(x))
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func clampProb(p float64) float64 {
	const eps = 1e-6
	return math.Min(1-eps, math.Max(eps, p))
}
