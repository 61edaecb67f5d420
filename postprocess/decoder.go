package postprocess

import (
	"image"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-detect/inference"
)

const (
	// ObjectSize is the number of fields in one detection row:
	// [image_id, label, confidence, xmin, ymin, xmax, ymax].
	ObjectSize = 7
	// DefaultThreshold is the confidence a detection must exceed to be kept.
	DefaultThreshold float32 = 0.5
)

// Candidate is one valid proposal row, reported whether or not it passes the
// confidence threshold.
type Candidate struct {
	Proposal   int
	ImageID    int
	Label      int
	Confidence float32
	XMin       float32
	YMin       float32
	XMax       float32
	YMax       float32
	Kept       bool
}

// Observer receives every valid candidate row in output order.
type Observer func(Candidate)

// Option configures a Decoder.
type Option func(*Decoder)

// WithThreshold overrides the confidence threshold (strictly greater keeps).
func WithThreshold(threshold float32) Option {
	return func(d *Decoder) {
		d.threshold = threshold
	}
}

// WithObserver registers an observer called for every valid candidate.
func WithObserver(observer Observer) Option {
	return func(d *Decoder) {
		d.observer = observer
	}
}

// WithLogger sets the logger candidates and skipped rows are reported to.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// Decoder parses a flat SSD detection output into a DetectionSet.
type Decoder struct {
	output    inference.TensorDesc
	threshold float32
	observer  Observer
	logger    *zap.SugaredLogger

	// MaxProposalCount is the number of rows in the output tensor.
	MaxProposalCount int
	// ObjectSize is the width of one row.
	ObjectSize int
}

// NewDecoder validates the detection output declaration. No row is read here;
// a declaration that cannot be decoded fails before any inference call.
//
// Arguments:
//   - outputs: The outputs declared by the backend.
//   - opts: Decoder options.
//
// Returns:
//   - *Decoder: The decoder.
//   - error: A configuration error when the detection output is missing, its
//     row width is not 7, or its rank is not 4.
func NewDecoder(outputs []inference.TensorDesc, opts ...Option) (*Decoder, error) {
	out, ok := inference.FindKind(outputs, inference.KindDetection)
	if !ok {
		return nil, inference.Configurationf("backend declares no detection output among %d outputs", len(outputs))
	}
	if out.Rank() == 0 {
		return nil, inference.Configurationf("detection output %s has no dimensions", out.Name)
	}
	if objectSize := out.Dims[out.Rank()-1]; objectSize != ObjectSize {
		return nil, inference.Configurationf("detection output %s has row width %d, want %d",
			out.Name, objectSize, ObjectSize)
	}
	if out.Rank() != 4 {
		return nil, inference.Configurationf("detection output %s has rank %d, want 4", out.Name, out.Rank())
	}
	if out.Dims[2] <= 0 {
		return nil, inference.Configurationf("detection output %s has unresolved proposal count %d",
			out.Name, out.Dims[2])
	}

	d := &Decoder{
		output:           out,
		threshold:        DefaultThreshold,
		logger:           zap.NewNop().Sugar(),
		MaxProposalCount: int(out.Dims[2]),
		ObjectSize:       ObjectSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Output returns the detection output descriptor.
func (d *Decoder) Output() inference.TensorDesc {
	return d.output
}

// Threshold returns the confidence threshold.
func (d *Decoder) Threshold() float32 {
	return d.threshold
}

// Decode reads every proposal row of out.
//
// Rows with image_id < 0 or confidence == 0 are end-of-results markers used by
// different runtimes; they are skipped and the scan continues. Coordinates are
// scaled by the original size of the image they refer to.
//
// Arguments:
//   - out: The detection output returned by the backend; it is not modified.
//   - sizes: The original (width, height) of every batch image, in batch order.
//
// Returns:
//   - DetectionSet: One list per batch image.
//   - error: A configuration error if out is shorter than the declared shape.
func (d *Decoder) Decode(out inference.Blob[float32], sizes []image.Point) (DetectionSet, error) {
	if need := d.MaxProposalCount * d.ObjectSize; len(out.Data) < need {
		return nil, inference.Configurationf("detection output holds %d values, declared shape needs %d",
			len(out.Data), need)
	}

	set := NewDetectionSet(len(sizes))
	for k := 0; k < d.MaxProposalCount; k++ {
		row := out.Data[k*d.ObjectSize : (k+1)*d.ObjectSize]
		imageID, label, confidence := row[0], row[1], row[2]

		if imageID < 0 || confidence == 0 {
			continue
		}
		if math32.IsNaN(imageID) || math32.IsInf(imageID, 0) || imageID >= float32(len(sizes)) {
			d.logger.Warnw("skipping proposal for unknown image",
				"proposal", k, "image_id", imageID, "batch", len(sizes))
			continue
		}

		id := int(imageID)
		w, h := float32(sizes[id].X), float32(sizes[id].Y)
		c := Candidate{
			Proposal:   k,
			ImageID:    id,
			Label:      int(label),
			Confidence: confidence,
			XMin:       row[3] * w,
			YMin:       row[4] * h,
			XMax:       row[5] * w,
			YMax:       row[6] * h,
			Kept:       confidence > d.threshold,
		}
		d.report(c)

		if c.Kept {
			set[id] = append(set[id], Detection{
				ImageID:    id,
				Label:      c.Label,
				Confidence: confidence,
				X:          int(c.XMin),
				Y:          int(c.YMin),
				Width:      int(c.XMax - c.XMin),
				Height:     int(c.YMax - c.YMin),
			})
		}
	}

	return set, nil
}

func (d *Decoder) report(c Candidate) {
	d.logger.Debugw("proposal",
		"proposal", c.Proposal,
		"label", c.Label,
		"confidence", c.Confidence,
		"xmin", c.XMin,
		"ymin", c.YMin,
		"xmax", c.XMax,
		"ymax", c.YMax,
		"image_id", c.ImageID,
		"kept", c.Kept,
	)
	if d.observer != nil {
		d.observer(c)
	}
}
