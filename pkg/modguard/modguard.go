package modguard

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/modguard/internal/engine"
	"github.com/crimson-sun/modguard/internal/engine/encoder"
	"github.com/crimson-sun/modguard/internal/engine/gateway"
	"github.com/crimson-sun/modguard/internal/engine/labels"
	"github.com/crimson-sun/modguard/internal/engine/vocab"
	"github.com/crimson-sun/modguard/internal/model"
)

// LabelSet is the ordered list of category names whose score met the
// threshold. Empty (never nil) for benign text.
type LabelSet = model.LabelSet

// Result is one entry of a ClassifyBatch response.
type Result struct {
	Text   string
	Labels LabelSet // nil when Err is set
	Err    error    // matches ErrModerationUnavailable
}

// Moderator classifies text into toxicity categories.
// Safe for concurrent use.
type Moderator struct {
	engine  *engine.Engine
	workers int
}

// New creates a Moderator, loading the vocabulary and the classifier. This
// is an expensive operation; create once, reuse across requests.
//
// A missing or unreadable model or vocabulary is reported as a
// *ModelLoadError and no Moderator is returned.
func New(opts ...Option) (*Moderator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.categoryCount != len(o.categories) {
		return nil, fmt.Errorf("modguard: category count %d does not match %d configured categories", o.categoryCount, len(o.categories))
	}
	table, err := labels.TableFromNames(o.categories)
	if err != nil {
		return nil, fmt.Errorf("modguard: %w", err)
	}
	if err := labels.ValidateThreshold(o.threshold); err != nil {
		return nil, fmt.Errorf("modguard: %w", err)
	}

	modelPath, vocabPath := resolvePaths(o)

	voc, err := loadVocabulary(o, vocabPath)
	if err != nil {
		return nil, err
	}
	enc, err := encoder.New(voc, o.sequenceLength, o.overflow)
	if err != nil {
		return nil, fmt.Errorf("modguard: %w", err)
	}

	var scorer gateway.Scorer
	if o.scorer != nil {
		scorer = scoreFunc(o.scorer)
	} else {
		var gopts []gateway.Option
		if o.libraryPath != "" {
			gopts = append(gopts, gateway.WithLibraryPath(o.libraryPath))
		}
		loader := gateway.NewLoader(modelPath, o.sequenceLength, o.categoryCount, gopts...)
		if _, err := loader.Load(); err != nil {
			return nil, err
		}
		scorer = loader
	}

	eng := engine.New(enc, gateway.WithTimeout(scorer, o.timeout), labels.New(table, o.threshold))

	workers := o.workers
	if workers <= 0 {
		workers = 1
	}
	return &Moderator{engine: eng, workers: workers}, nil
}

func loadVocabulary(o options, path string) (*vocab.Vocabulary, error) {
	if o.vocabulary != nil {
		v, err := vocab.New(o.vocabulary)
		if err != nil {
			return nil, &ModelLoadError{Path: "<in-memory vocabulary>", Err: err}
		}
		return v, nil
	}
	v, err := vocab.Load(path)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}
	return v, nil
}

// scoreFunc adapts a caller-supplied backend. Untyped failures are reported
// as inference errors.
func scoreFunc(f ScoreFunc) gateway.Func {
	return func(ctx context.Context, seq encoder.Sequence) ([]float32, error) {
		scores, err := f(ctx, seq)
		if err == nil {
			return scores, nil
		}
		var (
			ie *model.InferenceError
			sm *model.ShapeMismatchError
		)
		if errors.As(err, &ie) || errors.As(err, &sm) {
			return nil, err
		}
		return nil, &model.InferenceError{Err: err}
	}
}

// Classify returns the categories text belongs to, in category order. On
// failure it returns nil and an error matching ErrModerationUnavailable.
func (m *Moderator) Classify(ctx context.Context, text string) (LabelSet, error) {
	return m.engine.Classify(ctx, text)
}

// Score is Classify plus the per-category probability keyed by category
// name.
func (m *Moderator) Score(ctx context.Context, text string) (LabelSet, map[string]float32, error) {
	return m.engine.Score(ctx, text)
}

// ClassifyBatch classifies texts concurrently and returns one Result per
// text in input order. Individual failures are reported on their Result;
// the returned error is non-nil only when ctx ends before every text was
// attempted.
func (m *Moderator) ClassifyBatch(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))

	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Text: text, Err: &unattemptedError{cause: err}}
				return err
			}
			set, err := m.engine.Classify(ctx, text)
			results[i] = Result{Text: text, Labels: set, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("modguard: batch interrupted: %w", err)
	}
	return results, nil
}

// Categories returns the category names in score vector order.
func (m *Moderator) Categories() []string {
	return m.engine.Categories()
}

// Close releases model resources. The Moderator must not be used afterward.
func (m *Moderator) Close() error {
	return m.engine.Close()
}

// unattemptedError marks batch entries skipped because the context ended.
type unattemptedError struct {
	cause error
}

func (e *unattemptedError) Error() string {
	return fmt.Sprintf("%s: %v", model.ErrModerationUnavailable, e.cause)
}

func (e *unattemptedError) Unwrap() []error {
	return []error{model.ErrModerationUnavailable, e.cause}
}
