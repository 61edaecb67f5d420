package dnn

import (
	"strings"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-detect/inference"
)

// ParseBackend maps a preferable backend name to the OpenCV constant.
func ParseBackend(s string) (gocv.NetBackendType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return gocv.NetBackendDefault, nil
	case "opencv":
		return gocv.NetBackendOpenCV, nil
	case "openvino":
		return gocv.NetBackendOpenVINO, nil
	case "cuda":
		return gocv.NetBackendCUDA, nil
	default:
		return 0, inference.Configurationf("unknown dnn backend %q", s)
	}
}

// ParseTarget maps a preferable target (device) name to the OpenCV constant.
func ParseTarget(s string) (gocv.NetTargetType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cpu":
		return gocv.NetTargetCPU, nil
	case "opencl", "gpu":
		return gocv.NetTargetFP32, nil
	case "opencl_fp16":
		return gocv.NetTargetFP16, nil
	case "myriad", "vpu":
		return gocv.NetTargetVPU, nil
	case "cuda":
		return gocv.NetTargetCUDA, nil
	default:
		return 0, inference.Configurationf("unknown dnn target %q", s)
	}
}
