// Package providers - ONNX Runtime execution provider selection.
package providers

import (
	"strings"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-detect/inference"
)

// ProviderBackend represents different ONNX Runtime execution providers.
type ProviderBackend string

const (
	// CPUProviderBackend is the default ONNX Runtime CPU provider.
	CPUProviderBackend ProviderBackend = "cpu"
)

// Backends lists the supported execution providers.
var Backends = []ProviderBackend{
	CPUProviderBackend,
	CUDAProviderBackend,
	OpenVINOProviderBackend,
	CoreMLProviderBackend,
}

// Config selects the execution provider and session tuning for an ONNX session.
type Config struct {
	// Backend specifies the execution provider to use.
	Backend ProviderBackend `json:"backend" yaml:"backend"`
	// CUDA contains CUDA provider options.
	CUDA *CUDAOptions `json:"cuda,omitempty" yaml:"cuda,omitempty"`
	// OpenVINO contains OpenVINO provider options.
	OpenVINO *OpenVINOOptions `json:"openvino,omitempty" yaml:"openvino,omitempty"`
	// CoreML contains CoreML provider options.
	CoreML *CoreMLOptions `json:"coreml,omitempty" yaml:"coreml,omitempty"`
	// IntraOpNumThreads sets threads for parallelizing ops. Zero uses the runtime default.
	IntraOpNumThreads int `json:"intra_op_num_threads" yaml:"intra_op_num_threads"`
	// InterOpNumThreads sets threads for parallelizing independent ops. Zero uses the runtime default.
	InterOpNumThreads int `json:"inter_op_num_threads" yaml:"inter_op_num_threads"`
	// GraphOptimization is one of disable, basic, extended or all.
	GraphOptimization string `json:"graph_optimization" yaml:"graph_optimization"`
}

// DefaultConfig returns a CPU configuration with extended graph optimizations.
func DefaultConfig() Config {
	return Config{
		Backend:           CPUProviderBackend,
		GraphOptimization: "extended",
	}
}

// Validate checks the provider selection.
//
// Returns:
//   - error: A configuration error when the provider or optimization level is unknown.
func (c Config) Validate() error {
	known := false
	for _, b := range Backends {
		if c.Backend == b {
			known = true
			break
		}
	}
	if !known {
		return inference.Configurationf("unsupported execution provider %q (supported: %v)", c.Backend, Backends)
	}
	if _, err := c.graphOptimizationLevel(); err != nil {
		return err
	}
	if c.IntraOpNumThreads < 0 || c.InterOpNumThreads < 0 {
		return inference.Configurationf("thread counts must not be negative")
	}
	return nil
}

func (c Config) graphOptimizationLevel() (ort.GraphOptimizationLevel, error) {
	switch strings.ToLower(c.GraphOptimization) {
	case "disable", "none":
		return ort.GraphOptimizationLevelDisableAll, nil
	case "basic":
		return ort.GraphOptimizationLevelEnableBasic, nil
	case "", "extended":
		return ort.GraphOptimizationLevelEnableExtended, nil
	case "all":
		return ort.GraphOptimizationLevelEnableAll, nil
	default:
		return 0, inference.Configurationf("unknown graph optimization level %q", c.GraphOptimization)
	}
}

// SessionOptions creates ONNX Runtime session options with the selected
// execution provider appended. The caller must Destroy the result.
//
// Returns:
//   - *ort.SessionOptions: The session options.
//   - error: An error if the provider cannot be enabled.
func (c Config) SessionOptions() (*ort.SessionOptions, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	level, _ := c.graphOptimizationLevel()

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "create ORT session options")
	}

	if err := c.apply(options, level); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func (c Config) apply(options *ort.SessionOptions, level ort.GraphOptimizationLevel) error {
	if err := options.SetIntraOpNumThreads(c.IntraOpNumThreads); err != nil {
		return errors.Wrap(err, "set intra-op threads")
	}
	if err := options.SetInterOpNumThreads(c.InterOpNumThreads); err != nil {
		return errors.Wrap(err, "set inter-op threads")
	}
	if err := options.SetGraphOptimizationLevel(level); err != nil {
		return errors.Wrap(err, "set graph optimization level")
	}

	switch c.Backend {
	case CPUProviderBackend:
		return nil
	case CUDAProviderBackend:
		opts := CUDAOptions{}
		if c.CUDA != nil {
			opts = *c.CUDA
		}
		cuda, err := opts.ToNativeProviderOptions()
		if err != nil {
			return errors.Wrap(err, "convert CUDA options")
		}
		defer cuda.Destroy()
		return errors.Wrap(options.AppendExecutionProviderCUDA(cuda), "enable CUDA")
	case OpenVINOProviderBackend:
		opts := OpenVINOOptions{}
		if c.OpenVINO != nil {
			opts = *c.OpenVINO
		}
		return errors.Wrap(options.AppendExecutionProviderOpenVINO(opts.ToMap()), "enable OpenVINO")
	case CoreMLProviderBackend:
		opts := CoreMLOptions{}
		if c.CoreML != nil {
			opts = *c.CoreML
		}
		return errors.Wrap(options.AppendExecutionProviderCoreML(opts.Flags()), "enable CoreML")
	}
	return nil
}
