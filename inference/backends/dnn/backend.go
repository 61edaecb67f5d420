// Package dnn - OpenCV DNN inference backend.
package dnn

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-detect/inference"
)

// Config contains the settings of an OpenCV DNN backend. OpenCV cannot
// introspect model inputs, so they are declared here.
type Config struct {
	// Model is the model file (.onnx, .xml, .pb, .caffemodel).
	Model string `json:"model" yaml:"model"`
	// Weights is the companion file (.bin, .pbtxt, .prototxt), if any.
	Weights string `json:"weights" yaml:"weights"`
	// PreferableBackend is one of default, opencv, openvino or cuda.
	PreferableBackend string `json:"preferable_backend" yaml:"preferable_backend"`
	// PreferableTarget is one of cpu, opencl, opencl_fp16, myriad or cuda.
	PreferableTarget string `json:"preferable_target" yaml:"preferable_target"`
	// Inputs are the declared model inputs.
	Inputs []inference.TensorDesc `json:"inputs" yaml:"inputs"`
	// Outputs are the declared model outputs.
	Outputs []inference.TensorDesc `json:"outputs" yaml:"outputs"`
}

// Backend runs a model through an OpenCV DNN network.
type Backend struct {
	net     gocv.Net
	inputs  []inference.TensorDesc
	outputs []inference.TensorDesc
	output  string
	logger  *zap.SugaredLogger
}

var _ inference.Backend = (*Backend)(nil)

// New reads the network and applies the preferable backend and target.
//
// Arguments:
//   - cfg: The backend configuration.
//   - logger: The logger.
//
// Returns:
//   - *Backend: The backend.
//   - error: A configuration error if the model or declarations are unusable.
func New(cfg Config, logger *zap.SugaredLogger) (*Backend, error) {
	if _, err := os.Stat(cfg.Model); err != nil {
		return nil, inference.Configurationf("dnn model %s: %v", cfg.Model, err)
	}
	backend, err := ParseBackend(cfg.PreferableBackend)
	if err != nil {
		return nil, err
	}
	target, err := ParseTarget(cfg.PreferableTarget)
	if err != nil {
		return nil, err
	}
	if len(cfg.Inputs) == 0 {
		return nil, inference.Configurationf("dnn backend needs declared inputs")
	}
	out, ok := inference.FindKind(cfg.Outputs, inference.KindDetection)
	if !ok {
		return nil, inference.Configurationf("dnn backend needs a declared detection output")
	}

	net := gocv.ReadNet(cfg.Model, cfg.Weights)
	if net.Empty() {
		return nil, errors.Errorf("failed to load %s (model may be incompatible with OpenCV DNN)", cfg.Model)
	}
	net.SetPreferableBackend(backend)
	net.SetPreferableTarget(target)

	logger.Infow("dnn backend ready",
		"model", cfg.Model,
		"backend", cfg.PreferableBackend,
		"target", cfg.PreferableTarget,
		"inputs", cfg.Inputs,
		"output", out,
	)

	return &Backend{
		net:     net,
		inputs:  append([]inference.TensorDesc(nil), cfg.Inputs...),
		outputs: append([]inference.TensorDesc(nil), cfg.Outputs...),
		output:  out.Name,
		logger:  logger,
	}, nil
}

// DeclareInputs returns the configured inputs.
func (b *Backend) DeclareInputs() []inference.TensorDesc {
	return append([]inference.TensorDesc(nil), b.inputs...)
}

// DeclareOutputs returns the configured outputs.
func (b *Backend) DeclareOutputs() []inference.TensorDesc {
	return append([]inference.TensorDesc(nil), b.outputs...)
}

// Infer sets the packed blobs as network inputs and runs a forward pass to the
// detection output.
func (b *Backend) Infer(ctx context.Context, req inference.Request) (inference.Blob[float32], error) {
	if err := ctx.Err(); err != nil {
		return inference.Blob[float32]{}, err
	}

	image, err := imageBlob(req.Image)
	if err != nil {
		return inference.Blob[float32]{}, err
	}
	defer image.Close()
	b.net.SetInput(image, req.Image.Name)

	if req.Info != nil {
		info, err := infoBlob(*req.Info)
		if err != nil {
			return inference.Blob[float32]{}, err
		}
		defer info.Close()
		b.net.SetInput(info, req.Info.Name)
	}

	result := b.net.Forward(b.output)
	defer result.Close()
	if result.Empty() {
		return inference.Blob[float32]{}, errors.Errorf("forward to %s returned an empty output", b.output)
	}

	data, err := result.DataPtrFloat32()
	if err != nil {
		return inference.Blob[float32]{}, errors.Wrapf(err, "read output %s", b.output)
	}

	sizes := result.Size()
	dims := make([]int64, len(sizes))
	for i, s := range sizes {
		dims[i] = int64(s)
	}

	return inference.Blob[float32]{
		Name: b.output,
		Dims: dims,
		Data: append([]float32(nil), data...),
	}, nil
}

// Close releases the network.
func (b *Backend) Close() error {
	return b.net.Close()
}

// imageBlob wraps the planar uint8 batch in an NCHW float Mat.
func imageBlob(blob inference.Blob[uint8]) (gocv.Mat, error) {
	sizes := make([]int, len(blob.Dims))
	for i, d := range blob.Dims {
		sizes[i] = int(d)
	}

	raw, err := gocv.NewMatWithSizesFromBytes(sizes, gocv.MatTypeCV8U, blob.Data)
	if err != nil {
		return gocv.Mat{}, errors.Wrapf(err, "wrap %s", blob.Name)
	}
	defer raw.Close()

	converted := gocv.NewMat()
	raw.ConvertTo(&converted, gocv.MatTypeCV32F)
	return converted, nil
}

// infoBlob wraps the image-info rows in a float Mat.
func infoBlob(blob inference.Blob[float32]) (gocv.Mat, error) {
	if len(blob.Dims) != 2 || int64(len(blob.Data)) < blob.Dims[0]*blob.Dims[1] {
		return gocv.Mat{}, errors.Errorf("info blob %s has dims %v and %d values", blob.Name, blob.Dims, len(blob.Data))
	}
	m := gocv.NewMatWithSize(int(blob.Dims[0]), int(blob.Dims[1]), gocv.MatTypeCV32F)
	for r := 0; r < int(blob.Dims[0]); r++ {
		for c := 0; c < int(blob.Dims[1]); c++ {
			m.SetFloatAt(r, c, blob.Data[r*int(blob.Dims[1])+c])
		}
	}
	return m, nil
}
