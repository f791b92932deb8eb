package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/modguard/internal/connector"
	"github.com/crimson-sun/modguard/internal/model"
	"github.com/crimson-sun/modguard/internal/output"
)

// Scorer classifies a single text and reports per-category scores.
type Scorer interface {
	Score(ctx context.Context, text string) (model.LabelSet, map[string]float32, error)
}

// Stats counts what a pipeline run produced.
type Stats struct {
	Processed   int
	Flagged     int // verdicts with at least one label
	Unmoderated int // verdicts where classification was unavailable
}

// Pipeline connects a connector, a scorer, and an output.
type Pipeline struct {
	connector connector.Connector
	scorer    Scorer
	output    output.Output
	workers   int
	stats     Stats
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds concurrent classification in Batch. Default: 4.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New creates a Pipeline from the given components. conn may be nil when
// only Batch is used.
func New(conn connector.Connector, scorer Scorer, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		connector: conn,
		scorer:    scorer,
		output:    out,
		workers:   4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stream classifies submissions as the connector produces them and writes
// one verdict per submission, in arrival order. A failed classification
// yields an unmoderated verdict and the stream continues, except for shape
// mismatches, which mean the model and configuration disagree and stop the
// stream. Blocks until the source is exhausted or ctx is cancelled.
func (p *Pipeline) Stream(ctx context.Context, cfg connector.ConnectorConfig) error {
	if p.connector == nil {
		return errors.New("pipeline stream: no connector")
	}
	ch, err := p.connector.Stream(ctx, cfg)
	if err != nil {
		return fmt.Errorf("pipeline stream: %w", err)
	}
	defer p.logStats()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub, ok := <-ch:
			if !ok {
				return nil
			}
			v, err := p.process(ctx, sub)
			if err != nil {
				return fmt.Errorf("pipeline process: %w", err)
			}
			if err := p.output.Write(ctx, v); err != nil {
				return fmt.Errorf("pipeline output: %w", err)
			}
		}
	}
}

// Batch classifies texts concurrently and writes their verdicts in input
// order.
func (p *Pipeline) Batch(ctx context.Context, texts []string) error {
	now := time.Now()
	verdicts := make([]model.Verdict, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, text := range texts {
		g.Go(func() error {
			v, err := p.verdict(gctx, model.Submission{Text: text, Received: now})
			if err != nil {
				return err
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("pipeline batch: %w", err)
	}
	defer p.logStats()

	for _, v := range verdicts {
		p.count(v)
		if err := p.output.Write(ctx, v); err != nil {
			return fmt.Errorf("pipeline output: %w", err)
		}
	}
	return nil
}

// Stats returns the counters accumulated so far. Not safe to call while a
// run is in progress.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}

func (p *Pipeline) process(ctx context.Context, sub model.Submission) (model.Verdict, error) {
	v, err := p.verdict(ctx, sub)
	if err != nil {
		return model.Verdict{}, err
	}
	p.count(v)
	return v, nil
}

// verdict classifies one submission. Only shape mismatches are returned as
// errors; every other failure is recorded on an unmoderated verdict.
func (p *Pipeline) verdict(ctx context.Context, sub model.Submission) (model.Verdict, error) {
	id := sub.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := sub.Received
	if ts.IsZero() {
		ts = time.Now()
	}

	v := model.Verdict{
		ID:        id,
		Timestamp: ts,
		Text:      sub.Text,
		Labels:    model.LabelSet{},
	}

	set, scores, err := p.scorer.Score(ctx, sub.Text)
	if err != nil {
		var sm *model.ShapeMismatchError
		if errors.As(err, &sm) {
			return model.Verdict{}, err
		}
		v.Error = err.Error()
		return v, nil
	}

	v.Labels = set
	v.Moderated = true
	v.Scores = scores
	return v, nil
}

func (p *Pipeline) count(v model.Verdict) {
	p.stats.Processed++
	switch {
	case !v.Moderated:
		p.stats.Unmoderated++
	case len(v.Labels) > 0:
		p.stats.Flagged++
	}
}

func (p *Pipeline) logStats() {
	slog.Info("pipeline finished",
		"processed", p.stats.Processed,
		"flagged", p.stats.Flagged,
		"unmoderated", p.stats.Unmoderated,
	)
}
