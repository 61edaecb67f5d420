// Package inference - Inference backend kinds.
package inference

import "strings"

// BackendKind is the kind of runtime that executes the model.
type BackendKind string

const (
	// BackendONNX is the ONNX Runtime backend that uses the onnxruntime library.
	BackendONNX BackendKind = "onnx"
	// BackendDNN is the OpenCV DNN backend (optionally dispatching to OpenVINO).
	BackendDNN BackendKind = "dnn"
)

// Backends is a list of all supported backend kinds.
var Backends = []BackendKind{BackendONNX, BackendDNN}

// ParseBackendKind resolves a backend kind by name.
//
// Arguments:
//   - s: The backend name, case insensitive.
//
// Returns:
//   - BackendKind: The backend kind.
//   - error: A configuration error when the backend is unknown.
func ParseBackendKind(s string) (BackendKind, error) {
	kind := BackendKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range Backends {
		if k == kind {
			return k, nil
		}
	}
	return "", Configurationf("unsupported backend %q (supported: %v)", s, Backends)
}
