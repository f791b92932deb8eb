package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/modguard/internal/model"
	"github.com/crimson-sun/modguard/internal/output"
)

// Multi fans out verdicts to multiple output.Output implementations.
// Each Write call delivers the verdict to every wrapped output sequentially.
// If one output fails, the remaining outputs still receive the verdict.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi that fans out to the given outputs.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// Write delivers the verdict to every wrapped output. Errors are collected
// but do not prevent delivery to subsequent outputs.
func (m *Multi) Write(ctx context.Context, v model.Verdict) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flagged forwards only verdicts that need a human look: those with at
// least one label and those that could not be moderated.
type Flagged struct {
	inner output.Output
}

// OnlyFlagged wraps inner so that clean verdicts are skipped.
func OnlyFlagged(inner output.Output) *Flagged {
	return &Flagged{inner: inner}
}

func (f *Flagged) Write(ctx context.Context, v model.Verdict) error {
	if v.Moderated && len(v.Labels) == 0 {
		return nil
	}
	return f.inner.Write(ctx, v)
}

func (f *Flagged) Close() error {
	return f.inner.Close()
}
