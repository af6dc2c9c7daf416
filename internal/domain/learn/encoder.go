// Package learn holds the small numeric toolkit behind the action-value
// models: feature encoding, a regularized logistic classifier, probability
// calibration and evaluation metrics.
package learn

import (
	"math"
	"sort"

	"github.com/okian/matchday/internal/domain/features"
)

// Vector is one encoded row. Active lists the weight indices of the hot
// categorical levels; Numeric holds standardized numeric features, whose
// weights start at Encoder.CategoricalWidth().
type Vector struct {
	Active  []int
	Numeric []float64
}

// Encoder one-hot encodes categorical columns and standardizes numeric ones.
// Categories not seen during Fit are ignored at Transform time.
type Encoder struct {
	levels []map[string]int
	width  int
	mean   [features.NumNumeric]float64
	scale  [features.NumNumeric]float64
}

// FitEncoder learns category levels and numeric moments from rows.
func FitEncoder(rows []features.Row) *Encoder {
	e := &Encoder{levels: make([]map[string]int, features.NumCategorical)}

	for c := 0; c < features.NumCategorical; c++ {
		seen := make(map[string]struct{})
		for i := range rows {
			seen[rows[i].Categorical[c]] = struct{}{}
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		lv := make(map[string]int, len(values))
		for _, v := range values {
			lv[v] = e.width
			e.width++
		}
		e.levels[c] = lv
	}

	n := float64(len(rows))
	for j := 0; j < features.NumNumeric; j++ {
		e.scale[j] = 1
		if n == 0 {
			continue
		}
		var sum float64
		for i := range rows {
			sum += rows[i].Numeric[j]
		}
		mean := sum / n
		var ss float64
		for i := range rows {
			d := rows[i].Numeric[j] - mean
			ss += d * d
		}
		e.mean[j] = mean
		if sd := math.Sqrt(ss / n); sd > 1e-12 {
			e.scale[j] = sd
		}
	}
	return e
}

// CategoricalWidth is the number of one-hot columns.
func (e *Encoder) CategoricalWidth() int { return e.width }

// Width is the total encoded dimension.
func (e *Encoder) Width() int { return e.width + features.NumNumeric }

// Transform encodes one row.
func (e *Encoder) Transform(r *features.Row) Vector {
	v := Vector{
		Active:  make([]int, 0, features.NumCategorical),
		Numeric: make([]float64, features.NumNumeric),
	}
	for c, value := range r.Categorical {
		if idx, ok := e.levels[c][value]; ok {
			v.Active = append(v.Active, idx)
		}
	}
	for j, x := range r.Numeric {
		v.Numeric[j] = (x - e.mean[j]) / e.scale[j]
	}
	return v
}

// TransformAll encodes rows in order.
func (e *Encoder) TransformAll(rows []features.Row) []Vector {
	out := make([]Vector, len(rows))
	for i := range rows {
		out[i] = e.Transform(&rows[i])
	}
	return out
}
