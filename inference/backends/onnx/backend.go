// Package onnx - ONNX Runtime inference backend.
package onnx

import (
	"context"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/providers"
)

// Config contains the settings of an ONNX Runtime backend.
type Config struct {
	// Library is the path to the onnxruntime shared library. Empty uses the
	// platform default.
	Library string `json:"library" yaml:"library"`
	// Model is the path to the ONNX model.
	Model string `json:"model" yaml:"model"`
	// BatchSize replaces a dynamic leading input dimension.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	// DetectionOutput names the detection output when the model has several.
	DetectionOutput string `json:"detection_output" yaml:"detection_output"`
	// Provider selects the execution provider.
	Provider providers.Config `json:"provider" yaml:"provider"`
}

// Backend runs a model through an ONNX Runtime dynamic session.
type Backend struct {
	session *ort.DynamicAdvancedSession
	inputs  []inference.TensorDesc
	output  inference.TensorDesc
	logger  *zap.SugaredLogger
}

var _ inference.Backend = (*Backend)(nil)

// New initializes the ONNX Runtime environment and opens a session on the model.
// The caller owns the result and must Close it.
//
// Arguments:
//   - cfg: The backend configuration.
//   - logger: The logger.
//
// Returns:
//   - *Backend: The backend.
//   - error: A configuration error if the model declarations are unusable, or
//     the runtime error if the environment or session cannot be created.
func New(cfg Config, logger *zap.SugaredLogger) (*Backend, error) {
	if cfg.Model == "" {
		return nil, inference.Configurationf("onnx backend needs a model path")
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}

	library := cfg.Library
	if library == "" {
		var err error
		if library, err = providers.GetSharedLibPath(); err != nil {
			return nil, inference.Configurationf("%v", err)
		}
	}

	ort.SetSharedLibraryPath(library)
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, errors.Wrapf(err, "initialize onnxruntime from %s", library)
	}

	b, err := open(cfg, logger)
	if err != nil {
		return nil, multierr.Append(err, ort.DestroyEnvironment())
	}
	return b, nil
}

func open(cfg Config, logger *zap.SugaredLogger) (*Backend, error) {
	inInfo, outInfo, err := ort.GetInputOutputInfo(cfg.Model)
	if err != nil {
		return nil, errors.Wrapf(err, "read model declarations from %s", cfg.Model)
	}

	inputs, err := declareInputs(inInfo, cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	output, err := declareOutput(outInfo, cfg.DetectionOutput)
	if err != nil {
		return nil, err
	}

	options, err := cfg.Provider.SessionOptions()
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = in.Name
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.Model, names, []string{output.Name}, options)
	if err != nil {
		return nil, errors.Wrapf(err, "create session for %s", cfg.Model)
	}

	logger.Infow("onnx backend ready",
		"model", cfg.Model,
		"provider", cfg.Provider.Backend,
		"inputs", inputs,
		"output", output,
	)

	return &Backend{
		session: session,
		inputs:  inputs,
		output:  output,
		logger:  logger,
	}, nil
}

// DeclareInputs returns the model inputs.
func (b *Backend) DeclareInputs() []inference.TensorDesc {
	return append([]inference.TensorDesc(nil), b.inputs...)
}

// DeclareOutputs returns the detection output.
func (b *Backend) DeclareOutputs() []inference.TensorDesc {
	return []inference.TensorDesc{b.output}
}

// Infer runs the session once. Tensors are created for this call and destroyed
// before it returns; the result is a copy.
func (b *Backend) Infer(ctx context.Context, req inference.Request) (out inference.Blob[float32], err error) {
	if err := ctx.Err(); err != nil {
		return out, err
	}

	var values []ort.Value
	defer func() {
		for _, v := range values {
			if v != nil {
				err = multierr.Append(err, v.Destroy())
			}
		}
	}()

	inputs := make([]ort.Value, len(b.inputs))
	for i, in := range b.inputs {
		v, err := b.tensor(in, req)
		if err != nil {
			return out, err
		}
		values = append(values, v)
		inputs[i] = v
	}

	outputs := []ort.Value{nil}
	if resolved(b.output.Dims) {
		v, err := ort.NewEmptyTensor[float32](ort.NewShape(b.output.Dims...))
		if err != nil {
			return out, errors.Wrapf(err, "allocate output %s", b.output.Name)
		}
		outputs[0] = v
	}

	runErr := b.session.Run(inputs, outputs)
	if outputs[0] != nil {
		values = append(values, outputs[0])
	}
	if runErr != nil {
		return out, errors.Wrap(runErr, "run onnx session")
	}

	result, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return out, errors.Errorf("output %s is %T, want float32 tensor", b.output.Name, outputs[0])
	}

	shape := result.GetShape()
	data := result.GetData()
	out = inference.Blob[float32]{
		Name: b.output.Name,
		Dims: append([]int64(nil), shape...),
		Data: append([]float32(nil), data...),
	}
	return out, nil
}

func (b *Backend) tensor(in inference.TensorDesc, req inference.Request) (ort.Value, error) {
	shape := ort.NewShape(in.Dims...)
	switch in.Kind {
	case inference.KindImage:
		if int64(len(req.Image.Data)) != in.Elements() {
			return nil, inference.Configurationf("image blob holds %d values, input %s needs %d",
				len(req.Image.Data), in.Name, in.Elements())
		}
		switch in.Precision {
		case inference.PrecisionU8:
			return newTensor(shape, append([]uint8(nil), req.Image.Data...), in.Name)
		case inference.PrecisionFP32:
			data := make([]float32, len(req.Image.Data))
			for i, v := range req.Image.Data {
				data[i] = float32(v)
			}
			return newTensor(shape, data, in.Name)
		}
	case inference.KindImageInfo:
		if req.Info == nil {
			return nil, inference.Configurationf("input %s needs an image-info tensor", in.Name)
		}
		if in.Precision == inference.PrecisionFP32 {
			return newTensor(shape, append([]float32(nil), req.Info.Data...), in.Name)
		}
	}
	return nil, inference.Configurationf("input %s (%s, %s) is not supported", in.Name, in.Kind, in.Precision)
}

func newTensor[T ort.TensorData](shape ort.Shape, data []T, name string) (ort.Value, error) {
	t, err := ort.NewTensor(shape, data)
	if err != nil {
		return nil, errors.Wrapf(err, "create tensor %s", name)
	}
	return t, nil
}

// Close destroys the session and the ONNX Runtime environment.
func (b *Backend) Close() error {
	var err error
	if b.session != nil {
		err = multierr.Append(err, b.session.Destroy())
		b.session = nil
	}
	return multierr.Append(err, ort.DestroyEnvironment())
}
