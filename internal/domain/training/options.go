package training

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/matchday/internal/domain/features"
	"github.com/okian/matchday/internal/domain/learn"
	"github.com/okian/matchday/pkg/logger"
)

// Default trainer settings.
const (
	defaultTrainSplit           = 0.8
	defaultIsotonicMinPositives = 50
)

// Options bounds the data a model is trained on.
type Options struct {
	// Cutoff keeps only games dated at or before it. Zero means no cutoff.
	Cutoff time.Time
	// Exclude drops these games entirely.
	Exclude []int64
}

// Normalized returns a copy with sorted, de-duplicated exclusions and a UTC cutoff.
func (o Options) Normalized() Options {
	out := Options{}
	if !o.Cutoff.IsZero() {
		out.Cutoff = o.Cutoff.UTC()
	}
	if len(o.Exclude) == 0 {
		return out
	}
	ids := make([]int64, len(o.Exclude))
	copy(ids, o.Exclude)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	uniq := ids[:1]
	for _, id := range ids[1:] {
		if id != uniq[len(uniq)-1] {
			uniq = append(uniq, id)
		}
	}
	out.Exclude = uniq
	return out
}

// Key is the canonical cache key of the options.
func (o Options) Key() string {
	n := o.Normalized()
	var b strings.Builder
	if n.Cutoff.IsZero() {
		b.WriteString("none")
	} else {
		b.WriteString(n.Cutoff.Format(time.RFC3339))
	}
	b.WriteByte('|')
	for i, id := range n.Exclude {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithFeatureBuilder sets the feature/label builder shared by training and inference.
func WithFeatureBuilder(b *features.Builder) Option {
	return func(t *Trainer) {
		if b != nil {
			t.builder = b
		}
	}
}

// WithTrainSplit sets the fraction of games used for fitting.
func WithTrainSplit(split float64) Option {
	return func(t *Trainer) {
		if split > 0 && split < 1 {
			t.split = split
		}
	}
}

// WithIsotonicMinPositives sets the validation positives needed for isotonic calibration.
func WithIsotonicMinPositives(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.isotonicMin = n
		}
	}
}

// WithFitOptions passes optimizer settings to both classifiers.
func WithFitOptions(opts ...learn.FitOption) Option {
	return func(t *Trainer) {
		t.fitOpts = append(t.fitOpts, opts...)
	}
}

// WithLogger sets a custom logger for the trainer.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock overrides time.Now for artifact timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		if now != nil {
			t.now = now
		}
	}
}
