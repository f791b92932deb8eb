package modguard

import (
	"github.com/crimson-sun/modguard/internal/engine/encoder"
	"github.com/crimson-sun/modguard/internal/model"
)

// ErrModerationUnavailable is matched by every classification failure.
// Callers treat the text as unmoderated.
var ErrModerationUnavailable = model.ErrModerationUnavailable

// ErrSequenceTooLong is returned, wrapped, when the reject overflow policy
// is configured and the text has more words than the sequence length.
var ErrSequenceTooLong = encoder.ErrSequenceTooLong

type (
	// ModelLoadError reports a missing or unreadable model or vocabulary.
	ModelLoadError = model.ModelLoadError
	// InferenceError reports a failed or timed-out model invocation.
	InferenceError = model.InferenceError
	// ShapeMismatchError reports scores or tensors of the wrong size.
	ShapeMismatchError = model.ShapeMismatchError
)
