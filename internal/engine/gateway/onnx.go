package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/crimson-sun/modguard/internal/engine/encoder"
	"github.com/crimson-sun/modguard/internal/model"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// Option configures an ONNX scorer.
type Option func(*onnxOptions)

type onnxOptions struct {
	libPath string
	intraOp int
	interOp int
}

// WithLibraryPath sets the ONNX Runtime shared library. Defaults to
// libonnxruntime.so next to the model file.
func WithLibraryPath(path string) Option {
	return func(o *onnxOptions) { o.libPath = path }
}

// WithThreads sets intra- and inter-op thread counts. Default: 4 and 1.
func WithThreads(intra, inter int) Option {
	return func(o *onnxOptions) {
		o.intraOp = intra
		o.interOp = inter
	}
}

// ONNX scores sequences with an ONNX classifier of input shape [1, L] and
// output shape [1, C]. Safe for concurrent use.
type ONNX struct {
	mu         sync.RWMutex // Close waits for in-flight runs
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	inputType  ort.TensorElementDataType
	seqLen     int64
	categories int64
}

// Open loads the model at modelPath. Any failure is returned as a
// *model.ModelLoadError.
func Open(modelPath string, seqLen, categories int, opts ...Option) (*ONNX, error) {
	o := onnxOptions{intraOp: 4, interOp: 1}
	for _, opt := range opts {
		opt(&o)
	}

	s, err := openSession(modelPath, int64(seqLen), int64(categories), o)
	if err != nil {
		return nil, &model.ModelLoadError{Path: modelPath, Err: err}
	}
	return s, nil
}

func openSession(modelPath string, seqLen, categories int64, o onnxOptions) (*ONNX, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("onnx: %w", err)
	}

	libPath := o.libPath
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	in, out, err := validateIO(inputs, outputs, seqLen, categories)
	if err != nil {
		return nil, err
	}

	sessOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer sessOpts.Destroy()
	sessOpts.SetIntraOpNumThreads(o.intraOp)
	sessOpts.SetInterOpNumThreads(o.interOp)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{in.Name},
		[]string{out.Name},
		sessOpts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNX{
		session:    session,
		inputName:  in.Name,
		outputName: out.Name,
		inputType:  in.DataType,
		seqLen:     seqLen,
		categories: categories,
	}, nil
}

// validateIO checks the model has a single [batch, L] input of a supported
// numeric type and a single float [batch, C] output. Dynamic dimensions
// (<= 0) are accepted.
func validateIO(inputs, outputs []ort.InputOutputInfo, seqLen, categories int64) (in, out ort.InputOutputInfo, err error) {
	if len(inputs) != 1 {
		return in, out, fmt.Errorf("onnx: expected 1 model input, got %d", len(inputs))
	}
	if len(outputs) == 0 {
		return in, out, fmt.Errorf("onnx: model has no outputs")
	}
	in, out = inputs[0], outputs[0]

	switch in.DataType {
	case ort.TensorElementDataTypeFloat, ort.TensorElementDataTypeInt32, ort.TensorElementDataTypeInt64:
	default:
		return in, out, fmt.Errorf("onnx: unsupported input element type %v", in.DataType)
	}
	if out.DataType != ort.TensorElementDataTypeFloat {
		return in, out, fmt.Errorf("onnx: unsupported output element type %v", out.DataType)
	}

	if dims := in.Dimensions; len(dims) != 2 {
		return in, out, fmt.Errorf("onnx: expected 2D input tensor, got %v", dims)
	} else if dims[1] > 0 && dims[1] != seqLen {
		return in, out, &model.ShapeMismatchError{What: "model input", Want: int(seqLen), Got: int(dims[1])}
	}
	if dims := out.Dimensions; len(dims) != 2 {
		return in, out, fmt.Errorf("onnx: expected 2D output tensor, got %v", dims)
	} else if dims[1] > 0 && dims[1] != categories {
		return in, out, &model.ShapeMismatchError{What: "model output", Want: int(categories), Got: int(dims[1])}
	}
	return in, out, nil
}

// Score runs one forward pass. Failures are returned as
// *model.InferenceError; a sequence of the wrong length is a
// *model.ShapeMismatchError.
func (s *ONNX) Score(ctx context.Context, seq encoder.Sequence) ([]float32, error) {
	if int64(len(seq)) != s.seqLen {
		return nil, &model.ShapeMismatchError{What: "model input", Want: int(s.seqLen), Got: len(seq)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &model.InferenceError{Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, &model.InferenceError{Err: fmt.Errorf("onnx: session closed")}
	}

	scores, err := s.run(seq)
	if err != nil {
		return nil, &model.InferenceError{Err: err}
	}
	return scores, nil
}

func (s *ONNX) run(seq encoder.Sequence) ([]float32, error) {
	tIn, err := s.inputTensor(seq)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create %s tensor: %w", s.inputName, err)
	}
	defer tIn.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, s.categories))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := s.session.Run([]ort.Value{tIn}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	// Copy data out before tensor is destroyed.
	src := tOut.GetData()
	scores := make([]float32, len(src))
	copy(scores, src)
	return scores, nil
}

// inputTensor converts the id sequence to the element type the model expects.
func (s *ONNX) inputTensor(seq encoder.Sequence) (ort.Value, error) {
	shape := ort.NewShape(1, int64(len(seq)))

	switch s.inputType {
	case ort.TensorElementDataTypeInt64:
		data := make([]int64, len(seq))
		copy(data, seq)
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, err
		}
		return t, nil
	case ort.TensorElementDataTypeInt32:
		data := make([]int32, len(seq))
		for i, id := range seq {
			data[i] = int32(id)
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		data := make([]float32, len(seq))
		for i, id := range seq {
			data[i] = float32(id)
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

// Close releases the ONNX session. In-flight Score calls finish first.
func (s *ONNX) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
