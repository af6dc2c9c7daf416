package learn

// Classifier is a fitted logistic model with its calibration map.
type Classifier struct {
	Model      *Logistic
	Calibrator Calibrator
}

// Predict returns the calibrated positive-class probability of x.
func (c *Classifier) Predict(x Vector) float64 {
	if c == nil || c.Model == nil {
		return 0
	}
	if c.Calibrator == nil {
		return c.Model.Raw(x)
	}
	return clampUnit(c.Calibrator.Calibrate(c.Model.Logit(x)))
}

// PredictAll returns Predict for every vector.
func (c *Classifier) PredictAll(xs []Vector) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		out[i] = c.Predict(xs[i])
	}
	return out
}

// FitCalibrated fits a logistic model on the training split and calibrates it
// on the validation split.
func FitCalibrated(train []Vector, yTrain []bool, val []Vector, yVal []bool, catWidth, minPositives int, opts ...FitOption) *Classifier {
	m := FitLogistic(train, yTrain, catWidth, opts...)
	logits := make([]float64, len(val))
	for i := range val {
		logits[i] = m.Logit(val[i])
	}
	return &Classifier{Model: m, Calibrator: FitCalibrator(logits, yVal, minPositives)}
}

func clampUnit(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
