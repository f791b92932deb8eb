package modguard

import (
	"context"
	"path/filepath"
	"time"

	"github.com/crimson-sun/modguard/internal/engine/encoder"
	"github.com/crimson-sun/modguard/internal/engine/labels"
)

// ScoreFunc is an inference backend: it maps an encoded sequence of word
// ids to one probability per category.
type ScoreFunc func(ctx context.Context, ids []int64) ([]float32, error)

type options struct {
	modelDir       string
	modelPath      string
	vocabPath      string
	libraryPath    string
	vocabulary     map[string]int64
	sequenceLength int
	categoryCount  int
	threshold      float64
	categories     []string
	timeout        time.Duration
	overflow       encoder.Overflow
	workers        int
	scorer         ScoreFunc
}

// Option configures a Moderator.
type Option func(*options)

// WithModelDir sets the directory containing model files.
// Expects: model.onnx, vocab.json.
func WithModelDir(dir string) Option {
	return func(o *options) {
		o.modelDir = dir
	}
}

// WithModelPaths sets explicit paths for the classifier and its vocabulary.
// Use this when model files aren't in the default directory layout.
func WithModelPaths(model, vocab string) Option {
	return func(o *options) {
		o.modelPath = model
		o.vocabPath = vocab
	}
}

// WithLibraryPath sets the ONNX Runtime shared library. Default:
// libonnxruntime.so next to the model.
func WithLibraryPath(path string) Option {
	return func(o *options) {
		o.libraryPath = path
	}
}

// WithVocabulary supplies the word→id mapping directly instead of reading
// the vocabulary file.
func WithVocabulary(m map[string]int64) Option {
	return func(o *options) {
		o.vocabulary = m
	}
}

// WithSequenceLength sets the model input length. Default: 150.
func WithSequenceLength(n int) Option {
	return func(o *options) {
		o.sequenceLength = n
	}
}

// WithCategoryCount sets the number of scores the model emits. It must
// match the category table. Default: 6.
func WithCategoryCount(n int) Option {
	return func(o *options) {
		o.categoryCount = n
	}
}

// WithThreshold sets the inclusive score cutoff for reporting a label.
// Default: 0.7.
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = t
	}
}

// WithCategoryTable sets the category names in score vector order.
func WithCategoryTable(names ...string) Option {
	return func(o *options) {
		o.categories = names
	}
}

// WithTimeout bounds each model invocation. Zero disables the bound.
// Default: 5s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithOverflow sets what happens to text longer than the sequence length:
// "truncate" (default) keeps the first words, "reject" fails the request
// with ErrSequenceTooLong.
func WithOverflow(policy string) Option {
	return func(o *options) {
		o.overflow = encoder.ParseOverflow(policy)
	}
}

// WithWorkers bounds concurrency in ClassifyBatch. Default: 4.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithScorer replaces the ONNX backend. No model file is read.
func WithScorer(f ScoreFunc) Option {
	return func(o *options) {
		o.scorer = f
	}
}

func defaultOptions() options {
	return options{
		sequenceLength: encoder.DefaultSequenceLength,
		categoryCount:  len(labels.DefaultNames),
		threshold:      labels.DefaultThreshold,
		categories:     labels.DefaultNames,
		timeout:        5 * time.Second,
		overflow:       encoder.Truncate,
		workers:        4,
	}
}

// resolvePaths determines the model and vocab file paths from the
// configured options. Explicit paths take precedence over modelDir.
func resolvePaths(o options) (model, vocab string) {
	if o.modelPath != "" {
		return o.modelPath, o.vocabPath
	}
	dir := o.modelDir
	if dir == "" {
		dir = "models"
	}
	return filepath.Join(dir, "model.onnx"), filepath.Join(dir, "vocab.json")
}
