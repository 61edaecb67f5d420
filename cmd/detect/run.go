package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-detect/config"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/images/opencv"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/backends"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/logging"
	"github.com/nvr-ai/go-detect/pipeline"
	"github.com/nvr-ai/go-detect/postprocess"
	"github.com/nvr-ai/go-detect/render"
)

// overrides are the command line values that replace configuration fields.
// Nil and empty values leave the configuration untouched.
type overrides struct {
	Model     string
	Weights   string
	Backend   string
	Device    string
	OutputDir string
	Format    string
	Threshold *float64
	Labels    string
	DumpInput string
	Debug     bool
}

func overridesFromContext(c *cli.Context) overrides {
	o := overrides{
		Model:     c.String(flagModel),
		Weights:   c.String(flagWeights),
		Backend:   c.String(flagBackend),
		Device:    c.String(flagDevice),
		OutputDir: c.String(flagOutputDir),
		Format:    c.String(flagFormat),
		Labels:    c.String(flagLabels),
		DumpInput: c.String(flagDumpInput),
		Debug:     c.Bool(flagDebug),
	}
	if c.IsSet(flagThreshold) {
		t := c.Float64(flagThreshold)
		o.Threshold = &t
	}
	return o
}

// apply writes the overrides into cfg. The device is an execution provider for
// the onnx backend and a target for the dnn backend.
func (o overrides) apply(cfg *config.Config) {
	if o.Backend != "" {
		cfg.Backend.Kind = inference.BackendKind(o.Backend)
	}
	if o.Model != "" {
		cfg.Backend.Model = o.Model
	}
	if o.Weights != "" {
		cfg.Backend.Weights = o.Weights
	}
	if o.Device != "" {
		if cfg.Backend.Kind == inference.BackendDNN {
			cfg.Backend.PreferableTarget = o.Device
		} else {
			cfg.Backend.Provider.Backend = providers.ProviderBackend(o.Device)
		}
	}
	if o.OutputDir != "" {
		cfg.OutputDir = o.OutputDir
	}
	if o.Format != "" {
		cfg.Renderer.Format = images.ImageFormat(o.Format)
	}
	if o.Threshold != nil {
		cfg.Threshold = float32(*o.Threshold)
	}
	if o.Labels != "" {
		cfg.Labels = o.Labels
	}
	if o.DumpInput != "" {
		cfg.DumpInputDir = o.DumpInput
	}
	if o.Debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
}

func loadConfig(path string, o overrides) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	o.apply(&cfg)
	return cfg, cfg.Validate()
}

func newCodec(cfg config.Codec) (images.Codec, error) {
	kind, err := images.ParseCodecKind(string(cfg.Kind))
	if err != nil {
		return nil, inference.Configurationf("%v", err)
	}
	if kind == images.CodecOpenCV {
		return opencv.NewCodec(cfg.ChannelOrder), nil
	}
	return images.NewNativeCodec(cfg.ChannelOrder), nil
}

func newRenderer(cfg config.Config, labels postprocess.Labels) (render.Renderer, error) {
	kind, err := render.ParseKind(string(cfg.Renderer.Kind))
	if err != nil {
		return nil, inference.Configurationf("%v", err)
	}
	if kind == render.KindOpenCV {
		return opencv.NewRenderer(cfg.Codec.ChannelOrder, labels), nil
	}
	return render.NewCanvasRenderer(cfg.Codec.ChannelOrder, labels), nil
}

func loadLabels(path string) (postprocess.Labels, error) {
	if path == "" {
		return postprocess.COCOLabels, nil
	}
	labels, err := postprocess.LoadLabels(path)
	if err != nil {
		return nil, inference.Configurationf("%v", err)
	}
	return labels, nil
}

func run(c *cli.Context) (err error) {
	cfg, err := loadConfig(c.String(flagConfig), overridesFromContext(c))
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	labels, err := loadLabels(cfg.Labels)
	if err != nil {
		return err
	}
	codec, err := newCodec(cfg.Codec)
	if err != nil {
		return err
	}
	renderer, err := newRenderer(cfg, labels)
	if err != nil {
		return err
	}

	backend, err := backends.New(cfg.Backend, logger)
	if err != nil {
		return errors.Wrap(err, "create backend")
	}
	defer func() {
		err = multierr.Append(err, backend.Close())
	}()

	p, err := pipeline.NewBuilder().
		WithBackend(backend).
		WithCodec(codec).
		WithRenderer(renderer).
		WithLogger(logger).
		WithOptions(pipeline.Options{
			OutputDir:    cfg.OutputDir,
			Format:       cfg.Renderer.Format,
			Threshold:    cfg.Threshold,
			DumpInputDir: cfg.DumpInputDir,
			ChannelOrder: cfg.Codec.ChannelOrder,
		}).
		Build()
	if err != nil {
		return err
	}

	result, err := p.Run(c.Context, c.StringSlice(flagImage))
	if err != nil {
		return err
	}

	report(logger, result, labels)
	return nil
}

func report(logger *zap.SugaredLogger, result *pipeline.Result, labels postprocess.Labels) {
	for i, dets := range result.Detections {
		for _, d := range dets {
			logger.Infow("detection",
				"image", result.Inputs[i],
				"label", labels.Name(d.Label),
				"confidence", d.Confidence,
				"box", d.Rect(),
			)
		}
	}
	m := result.Metrics
	logger.Infow("execution successful",
		"images", m.ImageCount,
		"detections", m.DetectionCount,
		"load", m.LoadDuration,
		"pack", m.PackDuration,
		"inference", m.InferenceDuration,
		"decode", m.DecodeDuration,
		"render", m.RenderDuration,
		"total", m.TotalDuration,
		"outputs", result.Outputs,
	)
}
