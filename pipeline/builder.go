// Package pipeline - Runs one batched detection pass from image files to
// annotated output images.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/postprocess"
	"github.com/nvr-ai/go-detect/render"
)

// Options tunes a pipeline run.
type Options struct {
	// OutputDir receives the annotated images.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// Format is the annotated image format.
	Format images.ImageFormat `json:"format" yaml:"format"`
	// Threshold is the confidence a detection must exceed.
	Threshold float32 `json:"threshold" yaml:"threshold"`
	// DumpInputDir, when set, receives every packed image recovered from the tensor.
	DumpInputDir string `json:"dump_input_dir" yaml:"dump_input_dir"`
	// ChannelOrder is the order the codec produces, used for the input dump.
	ChannelOrder images.ChannelOrder `json:"channel_order" yaml:"channel_order"`
}

// DefaultOptions returns options writing bmp files to the working directory.
func DefaultOptions() Options {
	return Options{
		OutputDir:    ".",
		Format:       render.DefaultFormat,
		Threshold:    postprocess.DefaultThreshold,
		ChannelOrder: images.ChannelOrderBGR,
	}
}

// Builder assembles a Pipeline with a fluent API.
type Builder struct {
	backend  inference.Backend
	codec    images.Codec
	renderer render.Renderer
	observer postprocess.Observer
	logger   *zap.SugaredLogger
	opts     Options
	err      error
}

// NewBuilder creates a builder with default options.
//
// Returns:
//   - *Builder: The pipeline builder.
func NewBuilder() *Builder {
	return &Builder{
		opts:   DefaultOptions(),
		logger: zap.NewNop().Sugar(),
	}
}

// WithBackend sets the inference backend. The pipeline does not close it.
//
// Arguments:
//   - backend: The backend.
//
// Returns:
//   - *Builder: The pipeline builder.
func (b *Builder) WithBackend(backend inference.Backend) *Builder {
	if b.HasError() {
		return b
	}
	if backend == nil {
		b.err = inference.Configurationf("backend is nil")
		return b
	}
	b.backend = backend
	return b
}

// WithCodec sets the image codec.
func (b *Builder) WithCodec(codec images.Codec) *Builder {
	if b.HasError() {
		return b
	}
	if codec == nil {
		b.err = inference.Configurationf("codec is nil")
		return b
	}
	b.codec = codec
	return b
}

// WithRenderer sets the box renderer.
func (b *Builder) WithRenderer(renderer render.Renderer) *Builder {
	if b.HasError() {
		return b
	}
	if renderer == nil {
		b.err = inference.Configurationf("renderer is nil")
		return b
	}
	b.renderer = renderer
	return b
}

// WithOptions replaces the run options. Empty fields take their defaults.
func (b *Builder) WithOptions(opts Options) *Builder {
	if b.HasError() {
		return b
	}
	def := DefaultOptions()
	if opts.OutputDir == "" {
		opts.OutputDir = def.OutputDir
	}
	if opts.Format == "" {
		opts.Format = def.Format
	}
	if opts.ChannelOrder == "" {
		opts.ChannelOrder = def.ChannelOrder
	}
	if opts.Threshold < 0 || opts.Threshold >= 1 {
		b.err = inference.Configurationf("threshold must be in [0, 1), got %v", opts.Threshold)
		return b
	}
	b.opts = opts
	return b
}

// WithObserver registers a callback for every decoded candidate.
func (b *Builder) WithObserver(observer postprocess.Observer) *Builder {
	b.observer = observer
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(logger *zap.SugaredLogger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// HasError checks if the builder has errors.
//
// Returns:
//   - bool: True if there are errors, false otherwise.
func (b *Builder) HasError() bool {
	return b.err != nil
}

// Build returns the pipeline or the first error recorded while building.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: A configuration error if a component is missing.
func (b *Builder) Build() (*Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}
	switch {
	case b.backend == nil:
		return nil, inference.Configurationf("pipeline needs a backend")
	case b.codec == nil:
		return nil, inference.Configurationf("pipeline needs a codec")
	case b.renderer == nil:
		return nil, inference.Configurationf("pipeline needs a renderer")
	}

	return &Pipeline{
		backend:  b.backend,
		codec:    b.codec,
		renderer: b.renderer,
		observer: b.observer,
		logger:   b.logger,
		opts:     b.opts,
	}, nil
}

// MustBuild is Build for callers that treat a build error as a bug.
func (b *Builder) MustBuild() *Pipeline {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
