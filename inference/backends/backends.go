// Package backends - Constructs the inference backend selected by configuration.
package backends

import (
	"go.uber.org/zap"

	"github.com/nvr-ai/go-detect/config"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/backends/dnn"
	"github.com/nvr-ai/go-detect/inference/backends/onnx"
)

// New constructs the backend named by cfg.Kind. The caller owns the result and
// must Close it.
//
// Arguments:
//   - cfg: The backend configuration.
//   - logger: The logger.
//
// Returns:
//   - inference.Backend: The backend.
//   - error: A configuration error for an unknown kind, or the backend error.
func New(cfg config.Backend, logger *zap.SugaredLogger) (inference.Backend, error) {
	kind, err := inference.ParseBackendKind(string(cfg.Kind))
	if err != nil {
		return nil, err
	}

	switch kind {
	case inference.BackendONNX:
		b, err := onnx.New(onnx.Config{
			Library:         cfg.Library,
			Model:           cfg.Model,
			BatchSize:       cfg.BatchSize,
			DetectionOutput: cfg.DetectionOutput,
			Provider:        cfg.Provider,
		}, logger.Named("onnx"))
		if err != nil {
			return nil, err
		}
		return b, nil
	case inference.BackendDNN:
		b, err := dnn.New(dnn.Config{
			Model:             cfg.Model,
			Weights:           cfg.Weights,
			PreferableBackend: cfg.PreferableBackend,
			PreferableTarget:  cfg.PreferableTarget,
			Inputs:            cfg.Inputs,
			Outputs:           cfg.Outputs,
		}, logger.Named("dnn"))
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, inference.Configurationf("unsupported backend %q", cfg.Kind)
}
