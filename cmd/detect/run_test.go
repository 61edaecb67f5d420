package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/config"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/pipeline"
	"github.com/nvr-ai/go-detect/preprocess"
	"github.com/nvr-ai/go-detect/render"
)

func TestOverridesApply(t *testing.T) {
	threshold := 0.7
	cfg := config.Default()
	overrides{
		Model:     "ssd.onnx",
		Device:    "cuda",
		OutputDir: "out",
		Format:    "png",
		Threshold: &threshold,
		Labels:    "voc.txt",
		DumpInput: "dump",
		Debug:     true,
	}.apply(&cfg)

	assert.Equal(t, "ssd.onnx", cfg.Backend.Model)
	assert.Equal(t, providers.CUDAProviderBackend, cfg.Backend.Provider.Backend)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, images.FormatPNG, cfg.Renderer.Format)
	assert.Equal(t, float32(0.7), cfg.Threshold)
	assert.Equal(t, "voc.txt", cfg.Labels)
	assert.Equal(t, "dump", cfg.DumpInputDir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestOverridesDeviceIsTargetForDNN(t *testing.T) {
	cfg := config.Default()
	overrides{Backend: "dnn", Device: "myriad", Weights: "ssd.bin"}.apply(&cfg)

	assert.Equal(t, inference.BackendDNN, cfg.Backend.Kind)
	assert.Equal(t, "myriad", cfg.Backend.PreferableTarget)
	assert.Equal(t, "ssd.bin", cfg.Backend.Weights)
	assert.Equal(t, providers.CPUProviderBackend, cfg.Backend.Provider.Backend)
}

func TestOverridesKeepConfigValues(t *testing.T) {
	cfg := config.Default()
	cfg.Threshold = 0.3
	cfg.OutputDir = "results"
	overrides{}.apply(&cfg)

	assert.Equal(t, float32(0.3), cfg.Threshold)
	assert.Equal(t, "results", cfg.OutputDir)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detect.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  model: from-file.onnx\nthreshold: 0.4\n"), 0o600))

	cfg, err := loadConfig(path, overrides{OutputDir: "cli-out"})
	require.NoError(t, err)
	assert.Equal(t, "from-file.onnx", cfg.Backend.Model)
	assert.Equal(t, float32(0.4), cfg.Threshold)
	assert.Equal(t, "cli-out", cfg.OutputDir)

	_, err = loadConfig("", overrides{})
	assert.True(t, inference.IsConfiguration(err), "model is required")

	_, err = loadConfig("", overrides{Model: "m.onnx", Device: "tpu"})
	assert.True(t, inference.IsConfiguration(err))
}

func TestFactories(t *testing.T) {
	codec, err := newCodec(config.Codec{Kind: images.CodecNative})
	require.NoError(t, err)
	assert.IsType(t, &images.NativeCodec{}, codec)

	_, err = newCodec(config.Codec{Kind: "magick"})
	assert.True(t, inference.IsConfiguration(err))

	cfg := config.Default()
	renderer, err := newRenderer(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &render.CanvasRenderer{}, renderer)

	labels, err := loadLabels("")
	require.NoError(t, err)
	assert.Equal(t, "person", labels.Name(1))

	_, err = loadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, inference.IsConfiguration(err))
}

// TestLinkedPackagesInitialize runs code from every package the binary links,
// including the tensor transpose used by the input dump, so a dependency that
// fails during init fails here rather than at startup.
func TestLinkedPackagesInitialize(t *testing.T) {
	codec, err := newCodec(config.Default().Codec)
	require.NoError(t, err)
	renderer, err := newRenderer(config.Default(), nil)
	require.NoError(t, err)

	b := pipeline.NewBuilder().WithCodec(codec).WithRenderer(renderer)
	assert.False(t, b.HasError())

	blob := inference.Blob[uint8]{
		Name: "image_tensor",
		Dims: []int64{1, 2, 1, 2},
		Data: []uint8{1, 2, 3, 4},
	}
	got, err := preprocess.Interleave(blob, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 3, 2, 4}, got)
}
