package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/crimson-sun/modguard/internal/engine/encoder"
)

var errLoaderClosed = errors.New("gateway: loader closed")

// Loader opens an ONNX model exactly once, however many goroutines ask for
// it. It satisfies Scorer, so callers may load eagerly with Load or lazily
// on the first Score.
type Loader struct {
	path       string
	seqLen     int
	categories int
	opts       []Option

	once sync.Once
	onnx *ONNX
	err  error
}

// NewLoader prepares a Loader. Nothing is read until Load or Score.
func NewLoader(modelPath string, seqLen, categories int, opts ...Option) *Loader {
	return &Loader{
		path:       modelPath,
		seqLen:     seqLen,
		categories: categories,
		opts:       opts,
	}
}

// Load opens the model on the first call and returns the cached result on
// every later call. The error is a *model.ModelLoadError.
func (l *Loader) Load() (*ONNX, error) {
	l.once.Do(func() {
		l.onnx, l.err = Open(l.path, l.seqLen, l.categories, l.opts...)
	})
	return l.onnx, l.err
}

func (l *Loader) Score(ctx context.Context, seq encoder.Sequence) ([]float32, error) {
	s, err := l.Load()
	if err != nil {
		return nil, err
	}
	return s.Score(ctx, seq)
}

// Close releases the model if it was loaded. A Loader closed before its
// first Load never opens the model.
func (l *Loader) Close() error {
	l.once.Do(func() {
		l.err = errLoaderClosed
	})
	if l.onnx == nil {
		return nil
	}
	return l.onnx.Close()
}
