package learn

import (
	"math"
	"sort"
)

// Evaluation summarizes calibrated predictions against labels.
type Evaluation struct {
	Accuracy         float64
	Brier            float64
	AUC              float64
	BaseRate         float64
	BaselineAccuracy float64
}

// Evaluate scores probabilities at a 0.5 threshold. AUC is 0 when labels hold
// a single class; all fields are 0 for empty input.
func Evaluate(probs []float64, labels []bool) Evaluation {
	n := len(probs)
	if n == 0 {
		return Evaluation{}
	}
	var correct, pos int
	var brier float64
	for i, p := range probs {
		y := 0.0
		if labels[i] {
			y = 1
			pos++
		}
		if (p >= 0.5) == labels[i] {
			correct++
		}
		brier += (p - y) * (p - y)
	}
	rate := float64(pos) / float64(n)
	return Evaluation{
		Accuracy:         float64(correct) / float64(n),
		Brier:            brier / float64(n),
		AUC:              AUC(probs, labels),
		BaseRate:         rate,
		BaselineAccuracy: math.Max(rate, 1-rate),
	}
}

// AUC is the Mann-Whitney estimate of ROC-AUC with tied scores sharing the
// average rank.
func AUC(scores []float64, labels []bool) float64 {
	n := len(scores)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	var pos, rankSum float64
	for i := 0; i < n; {
		j := i
		for j < n && scores[idx[j]] == scores[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if labels[idx[k]] {
				pos++
				rankSum += avg
			}
		}
		i = j
	}
	neg := float64(n) - pos
	if pos == 0 || neg == 0 {
		return 0
	}
	return (rankSum - pos*(pos+1)/2) / (pos * neg)
}
