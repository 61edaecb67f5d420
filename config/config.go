// Package config - Run configuration loaded from YAML.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/logging"
	"github.com/nvr-ai/go-detect/postprocess"
	"github.com/nvr-ai/go-detect/render"
)

// maxFileSize bounds the configuration file size.
const maxFileSize = 1 << 20

// Backend selects and configures the inference runtime.
type Backend struct {
	// Kind is onnx or dnn.
	Kind inference.BackendKind `json:"kind" yaml:"kind"`
	// Model is the model file.
	Model string `json:"model" yaml:"model"`
	// Weights is the companion weights or graph file (dnn only).
	Weights string `json:"weights" yaml:"weights"`
	// Library is the onnxruntime shared library (onnx only).
	Library string `json:"library" yaml:"library"`
	// BatchSize replaces a dynamic batch dimension (onnx only).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	// DetectionOutput names the detection output when the model has several (onnx only).
	DetectionOutput string `json:"detection_output" yaml:"detection_output"`
	// Provider selects the execution provider (onnx only).
	Provider providers.Config `json:"provider" yaml:"provider"`
	// PreferableBackend is the OpenCV DNN backend (dnn only).
	PreferableBackend string `json:"preferable_backend" yaml:"preferable_backend"`
	// PreferableTarget is the OpenCV DNN target device (dnn only).
	PreferableTarget string `json:"preferable_target" yaml:"preferable_target"`
	// Inputs declares the model inputs (dnn only).
	Inputs []inference.TensorDesc `json:"inputs" yaml:"inputs"`
	// Outputs declares the model outputs (dnn only).
	Outputs []inference.TensorDesc `json:"outputs" yaml:"outputs"`
}

// Codec selects the image decoder.
type Codec struct {
	Kind         images.CodecKind    `json:"kind" yaml:"kind"`
	ChannelOrder images.ChannelOrder `json:"channel_order" yaml:"channel_order"`
}

// Renderer selects the box renderer and the output format.
type Renderer struct {
	Kind   render.Kind        `json:"kind" yaml:"kind"`
	Format images.ImageFormat `json:"format" yaml:"format"`
}

// Config is the complete run configuration.
type Config struct {
	Backend  Backend  `json:"backend" yaml:"backend"`
	Codec    Codec    `json:"codec" yaml:"codec"`
	Renderer Renderer `json:"renderer" yaml:"renderer"`
	// OutputDir receives the annotated images.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// Threshold is the confidence a detection must exceed.
	Threshold float32 `json:"threshold" yaml:"threshold"`
	// Labels is a class names file, one per line. Empty uses COCO.
	Labels string `json:"labels" yaml:"labels"`
	// DumpInputDir, when set, receives the packed images recovered from the tensor.
	DumpInputDir string `json:"dump_input_dir" yaml:"dump_input_dir"`
	// Log configures the logger.
	Log logging.Config `json:"log" yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: Backend{
			Kind:      inference.BackendONNX,
			BatchSize: 1,
			Provider:  providers.DefaultConfig(),
		},
		Codec: Codec{
			Kind:         images.CodecNative,
			ChannelOrder: images.ChannelOrderBGR,
		},
		Renderer: Renderer{
			Kind:   render.KindCanvas,
			Format: render.DefaultFormat,
		},
		OutputDir: ".",
		Threshold: postprocess.DefaultThreshold,
		Log:       logging.Config{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. Fields missing from the file keep
// their default values. The result is not validated.
//
// Arguments:
//   - path: The YAML file.
//
// Returns:
//   - Config: The merged configuration.
//   - error: A configuration error if the file cannot be read or parsed.
func Load(path string) (Config, error) {
	cfg := Default()

	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return cfg, inference.Configurationf("stat config %s: %v", clean, err)
	}
	if info.Size() > maxFileSize {
		return cfg, inference.Configurationf("config %s is too large: %d bytes (max %d)",
			clean, info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return cfg, inference.Configurationf("read config %s: %v", clean, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, inference.Configurationf("parse config %s: %v", clean, err)
	}
	return cfg, nil
}

// Validate checks every field. All failures are configuration errors.
func (c Config) Validate() error {
	kind, err := inference.ParseBackendKind(string(c.Backend.Kind))
	if err != nil {
		return err
	}
	if c.Backend.Model == "" {
		return inference.Configurationf("backend.model is required")
	}

	switch kind {
	case inference.BackendONNX:
		if c.Backend.BatchSize < 1 {
			return inference.Configurationf("backend.batch_size must be at least 1, got %d", c.Backend.BatchSize)
		}
		if err := c.Backend.Provider.Validate(); err != nil {
			return errors.Wrap(err, "backend.provider")
		}
	case inference.BackendDNN:
		if len(c.Backend.Inputs) == 0 {
			return inference.Configurationf("backend.inputs must be declared for the dnn backend")
		}
		if _, ok := inference.FindKind(c.Backend.Outputs, inference.KindDetection); !ok {
			return inference.Configurationf("backend.outputs must declare a detection output for the dnn backend")
		}
	}

	if _, err := images.ParseCodecKind(string(c.Codec.Kind)); err != nil {
		return inference.Configurationf("codec.kind: %v", err)
	}
	switch c.Codec.ChannelOrder {
	case "", images.ChannelOrderBGR, images.ChannelOrderRGB, images.ChannelOrderGray:
	default:
		return inference.Configurationf("codec.channel_order %q is not one of bgr, rgb or gray", c.Codec.ChannelOrder)
	}

	if _, err := render.ParseKind(string(c.Renderer.Kind)); err != nil {
		return inference.Configurationf("renderer.kind: %v", err)
	}
	switch c.Renderer.Format {
	case "", images.FormatBMP, images.FormatPNG, images.FormatJPEG, images.FormatWebP:
	default:
		return inference.Configurationf("renderer.format %q is not one of bmp, png, jpeg or webp", c.Renderer.Format)
	}

	if c.Threshold < 0 || c.Threshold >= 1 {
		return inference.Configurationf("threshold must be in [0, 1), got %v", c.Threshold)
	}
	if c.OutputDir == "" {
		return inference.Configurationf("output_dir is required")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return inference.Configurationf("log.level: %v", err)
	}
	return nil
}
