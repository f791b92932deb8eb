package model

import (
	"errors"
	"fmt"
)

// ErrModerationUnavailable marks every failed classification. Callers treat
// the text as unmoderated.
var ErrModerationUnavailable = errors.New("moderation unavailable")

// ModelLoadError reports that the classifier artifact could not be located
// or parsed. It is fatal: nothing can be classified without a model.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("model load %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// InferenceError reports a failed or timed-out model invocation. It is
// scoped to a single request.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// ShapeMismatchError reports that a tensor or score vector does not match the
// configured dimensions. It indicates misconfiguration.
type ShapeMismatchError struct {
	What string // "scores", "model input", "model output"
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s has %d values, want %d", e.What, e.Got, e.Want)
}
