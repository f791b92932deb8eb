package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crimson-sun/modguard/internal/engine/encoder"
	"github.com/crimson-sun/modguard/internal/engine/gateway"
	"github.com/crimson-sun/modguard/internal/engine/labels"
	"github.com/crimson-sun/modguard/internal/engine/normalize"
	"github.com/crimson-sun/modguard/internal/model"
)

// Engine orchestrates the normalize → encode → score → extract pipeline.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	encoder   *encoder.Encoder
	scorer    gateway.Scorer
	extractor *labels.Extractor
}

// New creates an Engine from the provided components.
func New(enc *encoder.Encoder, scorer gateway.Scorer, ext *labels.Extractor) *Engine {
	return &Engine{
		encoder:   enc,
		scorer:    scorer,
		extractor: ext,
	}
}

// Classify returns the labels for text. On any failure it returns a nil
// LabelSet and an error matching model.ErrModerationUnavailable; the typed
// cause remains reachable through errors.As.
func (e *Engine) Classify(ctx context.Context, text string) (model.LabelSet, error) {
	set, _, err := e.classify(ctx, text)
	return set, err
}

// Score is Classify plus the per-category scores keyed by category name.
func (e *Engine) Score(ctx context.Context, text string) (model.LabelSet, map[string]float32, error) {
	set, scores, err := e.classify(ctx, text)
	if err != nil {
		return nil, nil, err
	}
	named, err := e.extractor.Scores(scores)
	if err != nil {
		return nil, nil, e.unavailable(err, text)
	}
	return set, named, nil
}

func (e *Engine) classify(ctx context.Context, text string) (model.LabelSet, []float32, error) {
	seq, err := e.encoder.Encode(normalize.Normalize(text))
	if err != nil {
		return nil, nil, e.unavailable(err, text)
	}

	scores, err := e.scorer.Score(ctx, seq)
	if err != nil {
		return nil, nil, e.unavailable(err, text)
	}
	if err := gateway.CheckProbabilities(scores); err != nil {
		return nil, nil, e.unavailable(&model.InferenceError{Err: err}, text)
	}

	set, err := e.extractor.Extract(scores)
	if err != nil {
		return nil, nil, e.unavailable(err, text)
	}
	return set, scores, nil
}

// Categories returns the category names in score vector order.
func (e *Engine) Categories() []string {
	return e.extractor.Table.Names()
}

// Close releases the scorer.
func (e *Engine) Close() error {
	return e.scorer.Close()
}

func (e *Engine) unavailable(err error, text string) error {
	slog.Warn("classification unavailable", "error", err, "kind", errorKind(err), "text_len", len(text))
	return &unavailableError{cause: err}
}

// unavailableError matches model.ErrModerationUnavailable and unwraps to the
// component failure.
type unavailableError struct {
	cause error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s: %v", model.ErrModerationUnavailable, e.cause)
}

func (e *unavailableError) Unwrap() []error {
	return []error{model.ErrModerationUnavailable, e.cause}
}

func errorKind(err error) string {
	var (
		ie *model.InferenceError
		sm *model.ShapeMismatchError
		le *model.ModelLoadError
	)
	switch {
	case errors.As(err, &sm):
		return "shape_mismatch"
	case errors.As(err, &le):
		return "model_load"
	case errors.As(err, &ie):
		return "inference"
	case errors.Is(err, encoder.ErrSequenceTooLong):
		return "sequence_too_long"
	default:
		return "unknown"
	}
}
