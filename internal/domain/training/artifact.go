package training

import (
	"time"

	"github.com/okian/matchday/internal/domain/features"
	"github.com/okian/matchday/internal/domain/learn"
)

// Metrics are validation-split metrics of both classifiers.
type Metrics struct {
	ScoreAccuracy           float64 `json:"score_accuracy"`
	ConcedeAccuracy         float64 `json:"concede_accuracy"`
	ScoreBrier              float64 `json:"score_brier"`
	ConcedeBrier            float64 `json:"concede_brier"`
	ScoreAUC                float64 `json:"score_auc"`
	ConcedeAUC              float64 `json:"concede_auc"`
	ScoreBaseRate           float64 `json:"score_base_rate"`
	ConcedeBaseRate         float64 `json:"concede_base_rate"`
	ScoreBaselineAccuracy   float64 `json:"score_baseline_accuracy"`
	ConcedeBaselineAccuracy float64 `json:"concede_baseline_accuracy"`
}

func newMetrics(score, concede learn.Evaluation) Metrics {
	return Metrics{
		ScoreAccuracy:           score.Accuracy,
		ConcedeAccuracy:         concede.Accuracy,
		ScoreBrier:              score.Brier,
		ConcedeBrier:            concede.Brier,
		ScoreAUC:                score.AUC,
		ConcedeAUC:              concede.AUC,
		ScoreBaseRate:           score.BaseRate,
		ConcedeBaseRate:         concede.BaseRate,
		ScoreBaselineAccuracy:   score.BaselineAccuracy,
		ConcedeBaselineAccuracy: concede.BaselineAccuracy,
	}
}

// Artifact is a trained pair of calibrated classifiers. It is immutable once
// returned by Train and safe for concurrent use.
type Artifact struct {
	ID        string
	Key       string
	Options   Options
	TrainedAt time.Time

	// CutoffRelaxed is set when the requested cutoff matched no games and
	// training fell back to all games outside the exclusions.
	CutoffRelaxed bool

	Columns   []string
	Metrics   Metrics
	Scoring   *learn.Classifier
	Conceding *learn.Classifier

	TrainGames      []int64
	ValidationGames []int64
	TrainRows       int
	ValidationRows  int

	encoder *learn.Encoder
	builder *features.Builder
}

// Builder returns the feature builder the artifact was trained with.
func (a *Artifact) Builder() *features.Builder { return a.builder }

// Predict returns calibrated (p_score, p_concede) per row.
func (a *Artifact) Predict(rows []features.Row) (pScore, pConcede []float64) {
	pScore = make([]float64, len(rows))
	pConcede = make([]float64, len(rows))
	for i := range rows {
		v := a.encoder.Transform(&rows[i])
		pScore[i] = a.Scoring.Predict(v)
		pConcede[i] = a.Conceding.Predict(v)
	}
	return pScore, pConcede
}

// Methods names the calibration used by each classifier.
func (a *Artifact) Methods() (scoring, conceding string) {
	return a.Scoring.Calibrator.Method(), a.Conceding.Calibrator.Method()
}
