// Package providers - CUDA execution provider.
package providers

import (
	"strconv"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	// CUDAProviderBackend uses NVIDIA CUDA for inference optimization.
	CUDAProviderBackend ProviderBackend = "cuda"
)

// CUDAOptions contains arguments for the CUDA provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// The device ID.
	DeviceID int `json:"deviceID" yaml:"deviceID"`
	// Whether to do copies in the default stream or use separate streams. The recommended setting is
	// true. If false, there are race conditions and possibly better performance.
	DoCopyInDefaultStream bool `json:"doCopyInDefaultStream" yaml:"doCopyInDefaultStream"`
	// The size limit of the device memory arena in bytes. Zero keeps the runtime default.
	GPUMemLimit int64 `json:"gpuMemLimit" yaml:"gpuMemLimit"`
	// The strategy for extending the device memory arena: kNextPowerOfTwo or kSameAsRequested.
	ArenaExtendStrategy string `json:"arenaExtendStrategy" yaml:"arenaExtendStrategy"`
	// The type of search done for cuDNN convolution algorithms: EXHAUSTIVE, HEURISTIC or DEFAULT.
	CudnnConvAlgoSearch string `json:"cudnnConvAlgoSearch" yaml:"cudnnConvAlgoSearch"`
	// Check tuning performance for convolution heavy models for details on what this flag does.
	CudnnConvUseMaxWorkspace bool `json:"cudnnConvUseMaxWorkspace" yaml:"cudnnConvUseMaxWorkspace"`
	// Check using CUDA Graphs in the CUDA EP for details on what this flag does.
	EnableCudaGraph bool `json:"enableCudaGraph" yaml:"enableCudaGraph"`
	// TF32 is a math mode available on NVIDIA GPUs since Ampere.
	UseTF32 bool `json:"useTF32" yaml:"useTF32"`
	// If this option is enabled, the execution provider prefers NHWC operators over NCHW.
	PreferNHWC bool `json:"preferNHWC" yaml:"preferNHWC"`
}

// ToMap renders the options as ONNX Runtime provider keys. Unset optional
// values are left out so the runtime defaults apply.
func (o CUDAOptions) ToMap() map[string]string {
	m := map[string]string{
		"device_id":                    strconv.Itoa(o.DeviceID),
		"do_copy_in_default_stream":    boolFlag(o.DoCopyInDefaultStream),
		"cudnn_conv_use_max_workspace": boolFlag(o.CudnnConvUseMaxWorkspace),
		"enable_cuda_graph":            boolFlag(o.EnableCudaGraph),
		"use_tf32":                     boolFlag(o.UseTF32),
		"prefer_nhwc":                  boolFlag(o.PreferNHWC),
	}
	if o.GPUMemLimit > 0 {
		m["gpu_mem_limit"] = strconv.FormatInt(o.GPUMemLimit, 10)
	}
	if o.ArenaExtendStrategy != "" {
		m["arena_extend_strategy"] = o.ArenaExtendStrategy
	}
	if o.CudnnConvAlgoSearch != "" {
		m["cudnn_conv_algo_search"] = o.CudnnConvAlgoSearch
	}
	return m
}

// ToNativeProviderOptions converts the CUDA options to native CUDA provider
// options. The caller must Destroy the result.
func (o CUDAOptions) ToNativeProviderOptions() (*ort.CUDAProviderOptions, error) {
	opts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return nil, err
	}
	if err := opts.Update(o.ToMap()); err != nil {
		opts.Destroy()
		return nil, err
	}
	return opts, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
