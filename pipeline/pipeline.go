package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-detect/batch"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/postprocess"
	"github.com/nvr-ai/go-detect/preprocess"
	"github.com/nvr-ai/go-detect/render"
)

// Pipeline runs the detection stages in order on a single goroutine.
type Pipeline struct {
	backend  inference.Backend
	codec    images.Codec
	renderer render.Renderer
	observer postprocess.Observer
	logger   *zap.SugaredLogger
	opts     Options
}

// Result is the outcome of one run.
type Result struct {
	// Detections holds one list per batch image.
	Detections postprocess.DetectionSet `json:"detections"`
	// Inputs are the source files of the batch images, in batch order.
	Inputs []string `json:"inputs"`
	// Outputs are the annotated image files, in batch order.
	Outputs []string `json:"outputs"`
	// Metrics holds the stage timings.
	Metrics Metrics `json:"metrics"`
}

// Run detects objects in the images named by paths and writes one annotated
// image per batch entry.
//
// Backend declarations are validated before any file is decoded. Files that
// fail to decode are skipped. Inference is a single call and is not retried.
//
// Arguments:
//   - ctx: The context for the run.
//   - paths: Image files or directories.
//
// Returns:
//   - *Result: The detections, output files and timings.
//   - error: A configuration, data or render error, or the backend error.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Result, error) {
	watch := newStopwatch()
	metrics := Metrics{Timestamp: time.Now()}

	packer, err := preprocess.NewPacker(p.backend.DeclareInputs())
	if err != nil {
		return nil, err
	}
	decoder, err := postprocess.NewDecoder(p.backend.DeclareOutputs(),
		postprocess.WithThreshold(p.opts.Threshold),
		postprocess.WithLogger(p.logger),
		postprocess.WithObserver(p.observer),
	)
	if err != nil {
		return nil, err
	}
	p.logger.Infow("backend layout",
		"batch_capacity", packer.BatchCapacity,
		"channels", packer.Channels,
		"height", packer.Height,
		"width", packer.Width,
		"meta_dim", packer.MetaDim,
		"max_proposals", decoder.MaxProposalCount,
	)

	files, err := images.ListImageFiles(paths)
	if err != nil {
		return nil, inference.Dataf("list inputs: %v", err)
	}
	frames, err := batch.Load(ctx, p.codec, files, packer.InputSize(), p.logger)
	if err != nil {
		return nil, err
	}
	b, err := batch.Assemble(frames, packer.BatchCapacity)
	if err != nil {
		return nil, err
	}
	if len(frames) > b.Len() {
		p.logger.Warnw("batch capacity reached, ignoring remaining images",
			"capacity", packer.BatchCapacity, "decoded", len(frames))
	}
	p.logger.Infow("batch assembled", "size", b.Len(), "paths", b.Paths())
	metrics.LoadDuration = watch.lap()
	metrics.ImageCount = b.Len()

	req, err := packer.Pack(b)
	if err != nil {
		return nil, err
	}
	if p.opts.DumpInputDir != "" {
		if err := p.dumpInput(req.Image, b.Len()); err != nil {
			return nil, err
		}
	}
	metrics.PackDuration = watch.lap()

	out, err := p.backend.Infer(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "inference")
	}
	metrics.InferenceDuration = watch.lap()
	p.logger.Infow("inference complete", "duration", metrics.InferenceDuration)

	set, err := decoder.Decode(out, b.OriginalSizes())
	if err != nil {
		return nil, err
	}
	metrics.DecodeDuration = watch.lap()
	metrics.DetectionCount = set.Count()

	outputs, err := p.render(b, set)
	if err != nil {
		return nil, err
	}
	metrics.RenderDuration = watch.lap()
	metrics.TotalDuration = watch.total()
	metrics.MemoryStats = readMemory()

	return &Result{
		Detections: set,
		Inputs:     b.Paths(),
		Outputs:    outputs,
		Metrics:    metrics,
	}, nil
}

func (p *Pipeline) render(b *batch.Batch, set postprocess.DetectionSet) ([]string, error) {
	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return nil, inference.Renderf("create output dir %s: %v", p.opts.OutputDir, err)
	}

	outputs := make([]string, b.Len())
	for i := 0; i < b.Len(); i++ {
		boxes, labels := set.Boxes(i)
		path := render.OutputPath(p.opts.OutputDir, i, p.opts.Format)
		if err := p.renderer.Render(b.Original(i), boxes, labels, path); err != nil {
			if !inference.IsRender(err) {
				err = inference.Renderf("image %d: %v", i, err)
			}
			return nil, err
		}
		p.logger.Infow("image created", "path", path, "detections", len(set[i]))
		outputs[i] = path
	}
	return outputs, nil
}

// dumpInput writes every packed image back out as png for inspection.
func (p *Pipeline) dumpInput(blob inference.Blob[uint8], n int) error {
	if err := os.MkdirAll(p.opts.DumpInputDir, 0o755); err != nil {
		return errors.Wrapf(err, "create dump dir %s", p.opts.DumpInputDir)
	}

	for i := 0; i < n; i++ {
		data, err := preprocess.Interleave(blob, i)
		if err != nil {
			return errors.Wrapf(err, "unpack image %d", i)
		}
		img, err := images.ToImage(images.Image{
			Data:     data,
			Width:    int(blob.Dims[3]),
			Height:   int(blob.Dims[2]),
			Channels: int(blob.Dims[1]),
		}, p.opts.ChannelOrder)
		if err != nil {
			return errors.Wrapf(err, "convert packed image %d", i)
		}

		path := filepath.Join(p.opts.DumpInputDir, fmt.Sprintf("input_%d.png", i))
		if err := images.Save(path, img); err != nil {
			return err
		}
		p.logger.Debugw("dumped packed input", "path", path)
	}
	return nil
}
