package learn

import (
	"math"
	"sort"
)

// Calibration methods.
const (
	MethodIsotonic = "isotonic"
	MethodSigmoid  = "sigmoid"
)

// Calibrator maps a classifier logit to a calibrated probability.
type Calibrator interface {
	Calibrate(logit float64) float64
	Method() string
}

// FitCalibrator picks isotonic regression when labels holds at least
// minPositives positives and a sigmoid (Platt) fit otherwise.
func FitCalibrator(logits []float64, labels []bool, minPositives int) Calibrator {
	pos := 0
	for _, y := range labels {
		if y {
			pos++
		}
	}
	if pos >= minPositives && pos > 0 {
		return FitIsotonic(logits, labels)
	}
	return FitPlatt(logits, labels)
}

// Isotonic is a monotone non-decreasing step function, linearly interpolated
// between fitted points and clipped outside them.
type Isotonic struct {
	X []float64
	Y []float64
}

// FitIsotonic runs pool-adjacent-violators over (logit, label) pairs.
func FitIsotonic(logits []float64, labels []bool) *Isotonic {
	type block struct {
		x      float64
		sum, w float64
	}
	idx := make([]int, len(logits))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return logits[idx[a]] < logits[idx[b]] })

	points := make([]block, 0, len(idx))
	for _, i := range idx {
		y := 0.0
		if labels[i] {
			y = 1
		}
		if n := len(points); n > 0 && points[n-1].x == logits[i] {
			points[n-1].sum += y
			points[n-1].w++
			continue
		}
		points = append(points, block{x: logits[i], sum: y, w: 1})
	}

	// Each stack entry covers points[start:end] with a pooled mean.
	type pool struct {
		start, end int
		sum, w     float64
	}
	stack := make([]pool, 0, len(points))
	for i, p := range points {
		stack = append(stack, pool{start: i, end: i + 1, sum: p.sum, w: p.w})
		for len(stack) > 1 {
			top, below := stack[len(stack)-1], stack[len(stack)-2]
			if below.sum/below.w <= top.sum/top.w {
				break
			}
			stack = stack[:len(stack)-2]
			stack = append(stack, pool{start: below.start, end: top.end, sum: below.sum + top.sum, w: below.w + top.w})
		}
	}

	iso := &Isotonic{X: make([]float64, 0, len(points)), Y: make([]float64, 0, len(points))}
	for _, s := range stack {
		v := s.sum / s.w
		for i := s.start; i < s.end; i++ {
			iso.X = append(iso.X, points[i].x)
			iso.Y = append(iso.Y, v)
		}
	}
	return iso
}

// Calibrate implements Calibrator.
func (c *Isotonic) Calibrate(logit float64) float64 {
	n := len(c.X)
	switch {
	case n == 0:
		return sigmoid(logit)
	case logit <= c.X[0]:
		return c.Y[0]
	case logit >= c.X[n-1]:
		return c.Y[n-1]
	}
	hi := sort.SearchFloat64s(c.X, logit)
	lo := hi - 1
	if c.X[hi] == logit {
		return c.Y[hi]
	}
	t := (logit - c.X[lo]) / (c.X[hi] - c.X[lo])
	return c.Y[lo] + t*(c.Y[hi]-c.Y[lo])
}

// Method implements Calibrator.
func (c *Isotonic) Method() string { return MethodIsotonic }

// Platt is a sigmoid over an affine map of the logit.
type Platt struct {
	A, B float64
}

const (
	plattMaxIter = 100
	plattMinStep = 1e-10
	plattSigma   = 1e-12
	plattEps     = 1e-5
)

// FitPlatt fits A, B by Newton's method with backtracking on the regularized
// targets of Platt (1999).
func FitPlatt(logits []float64, labels []bool) *Platt {
	var prior1, prior0 float64
	for _, y := range labels {
		if y {
			prior1++
		} else {
			prior0++
		}
	}
	hi := (prior1 + 1) / (prior1 + 2)
	lo := 1 / (prior0 + 2)
	t := make([]float64, len(labels))
	for i, y := range labels {
		if y {
			t[i] = hi
		} else {
			t[i] = lo
		}
	}

	// Work in Platt's parameterization p = 1/(1+exp(a*f+b)).
	a, b := 0.0, math.Log((prior0+1)/(prior1+1))
	loss := func(a, b float64) float64 {
		var f float64
		for i, x := range logits {
			fApB := x*a + b
			if fApB >= 0 {
				f += t[i]*fApB + math.Log1p(math.Exp(-fApB))
			} else {
				f += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
			}
		}
		return f
	}
	fval := loss(a, b)

	for iter := 0; iter < plattMaxIter; iter++ {
		h11, h22, h21 := plattSigma, plattSigma, 0.0
		g1, g2 := 0.0, 0.0
		for i, x := range logits {
			fApB := x*a + b
			var p, q float64
			if fApB >= 0 {
				e := math.Exp(-fApB)
				p, q = e/(1+e), 1/(1+e)
			} else {
				e := math.Exp(fApB)
				p, q = 1/(1+e), e/(1+e)
			}
			d2 := p * q
			h11 += x * x * d2
			h22 += d2
			h21 += x * d2
			d1 := t[i] - p
			g1 += x * d1
			g2 += d1
		}
		if math.Abs(g1) < plattEps && math.Abs(g2) < plattEps {
			break
		}
		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for step >= plattMinStep {
			na, nb := a+step*dA, b+step*dB
			if nf := loss(na, nb); nf < fval+1e-4*step*gd {
				a, b, fval = na, nb, nf
				break
			}
			step /= 2
		}
		if step < plattMinStep {
			break
		}
	}
	return &Platt{A: -a, B: -b}
}

// Calibrate implements Calibrator.
func (c *Platt) Calibrate(logit float64) float64 {
	return sigmoid(c.A*logit + c.B)
}

// Method implements Calibrator.
func (c *Platt) Method() string { return MethodSigmoid }
