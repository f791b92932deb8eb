// Package gateway invokes the pretrained multi-label classifier.
//
// A Scorer accepts one encoded sequence and returns one probability per
// category. The ONNX implementation shares a single read-only session across
// goroutines; each call allocates its own tensors.
package gateway

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/crimson-sun/modguard/internal/engine/encoder"
	"github.com/crimson-sun/modguard/internal/model"
)

// Scorer produces per-category probabilities for an encoded sequence.
type Scorer interface {
	Score(ctx context.Context, seq encoder.Sequence) ([]float32, error)
	Close() error
}

// Func adapts a plain function to the Scorer interface.
type Func func(ctx context.Context, seq encoder.Sequence) ([]float32, error)

func (f Func) Score(ctx context.Context, seq encoder.Sequence) ([]float32, error) {
	return f(ctx, seq)
}

func (f Func) Close() error { return nil }

// bounded runs the inner scorer under a deadline.
type bounded struct {
	inner   Scorer
	timeout time.Duration
}

// WithTimeout wraps s so that no call blocks longer than d. A call that
// outlives d returns an *model.InferenceError wrapping
// context.DeadlineExceeded; the abandoned invocation finishes in the
// background. d <= 0 returns s unchanged.
func WithTimeout(s Scorer, d time.Duration) Scorer {
	if d <= 0 {
		return s
	}
	return &bounded{inner: s, timeout: d}
}

type scoreResult struct {
	scores []float32
	err    error
}

func (b *bounded) Score(ctx context.Context, seq encoder.Sequence) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	ch := make(chan scoreResult, 1)
	go func() {
		scores, err := b.inner.Score(ctx, seq)
		ch <- scoreResult{scores: scores, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &model.InferenceError{Err: ctx.Err()}
	case r := <-ch:
		return r.scores, r.err
	}
}

func (b *bounded) Close() error {
	return b.inner.Close()
}

// CheckProbabilities verifies every score is a finite value in [0,1]. Every
// Scorer's output must pass it before labels are extracted.
func CheckProbabilities(scores []float32) error {
	for i, v := range scores {
		f := float64(v)
		if math.IsNaN(f) || f < 0 || f > 1 {
			return fmt.Errorf("score %d = %v is not a probability", i, v)
		}
	}
	return nil
}
