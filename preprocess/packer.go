// Package preprocess - Packs interleaved image buffers into the planar batch
// tensor (and optional image-info tensor) a backend consumes.
package preprocess

import (
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-detect/batch"
	"github.com/nvr-ai/go-detect/inference"
)

// MetaDims lists the image-info widths a backend may declare.
var MetaDims = []int{3, 6}

// Packer converts a Batch into the tensors declared by a backend.
type Packer struct {
	image inference.TensorDesc
	info  *inference.TensorDesc

	// BatchCapacity is the number of images one inference call accepts.
	BatchCapacity int
	// Channels is the channel count of the image input.
	Channels int
	// Height is the image input height.
	Height int
	// Width is the image input width.
	Width int
	// MetaDim is the width of the image-info input, zero when absent.
	MetaDim int
}

// NewPacker validates the backend input declarations and derives the layout.
//
// Arguments:
//   - inputs: The inputs declared by the backend.
//
// Returns:
//   - *Packer: The packer.
//   - error: A configuration error when the inputs violate a hard constraint.
func NewPacker(inputs []inference.TensorDesc) (*Packer, error) {
	if len(inputs) != 1 && len(inputs) != 2 {
		return nil, inference.Configurationf("backend declares %d inputs, want 1 or 2", len(inputs))
	}

	p := &Packer{}
	found := false
	for i := range inputs {
		in := inputs[i]
		for _, dim := range in.Dims {
			if dim <= 0 {
				return nil, inference.Configurationf("input %s has unresolved dimension in %v", in.Name, in.Dims)
			}
		}

		switch in.Rank() {
		case 4:
			if found {
				return nil, inference.Configurationf("backend declares more than one image input")
			}
			found = true
			p.image = in
			p.BatchCapacity = int(in.Dims[0])
			p.Channels = int(in.Dims[1])
			p.Height = int(in.Dims[2])
			p.Width = int(in.Dims[3])
		case 2:
			if p.info != nil {
				return nil, inference.Configurationf("backend declares more than one image-info input")
			}
			metaDim := int(in.Dims[1])
			if metaDim != MetaDims[0] && metaDim != MetaDims[1] {
				return nil, inference.Configurationf("image-info input %s has width %d, want one of %v",
					in.Name, metaDim, MetaDims)
			}
			p.info = &inputs[i]
			p.MetaDim = metaDim
		default:
			return nil, inference.Configurationf("input %s has unsupported rank %d", in.Name, in.Rank())
		}
	}

	if !found {
		return nil, inference.Configurationf("backend declares no rank-4 image input")
	}
	if p.info != nil && int(p.info.Dims[0]) != p.BatchCapacity {
		return nil, inference.Configurationf("image-info input %s batch %d does not match image batch %d",
			p.info.Name, p.info.Dims[0], p.BatchCapacity)
	}

	return p, nil
}

// InputSize returns the image input dimensions (X is the width).
func (p *Packer) InputSize() image.Point {
	return image.Point{X: p.Width, Y: p.Height}
}

// HasInfo reports whether the backend declares an image-info input.
func (p *Packer) HasInfo() bool {
	return p.info != nil
}

// Pack builds the inference request for b. The image tensor is sized for the
// declared batch capacity; slots past b.Len() stay zero.
//
// Arguments:
//   - b: The assembled batch.
//
// Returns:
//   - inference.Request: The packed tensors.
//   - error: A configuration error when an image does not match the declared input.
func (p *Packer) Pack(b *batch.Batch) (inference.Request, error) {
	if b.Len() > p.BatchCapacity {
		return inference.Request{}, inference.Configurationf("batch of %d exceeds capacity %d",
			b.Len(), p.BatchCapacity)
	}

	data := make([]uint8, p.BatchCapacity*p.Channels*p.Height*p.Width)
	if err := p.PackImages(b, data); err != nil {
		return inference.Request{}, err
	}

	req := inference.Request{
		Image: inference.Blob[uint8]{
			Name: p.image.Name,
			Dims: append([]int64(nil), p.image.Dims...),
			Data: data,
		},
	}

	if p.info != nil {
		info := make([]float32, p.BatchCapacity*p.MetaDim)
		if err := p.PackInfo(b, info); err != nil {
			return inference.Request{}, err
		}
		req.Info = &inference.Blob[float32]{
			Name: p.info.Name,
			Dims: append([]int64(nil), p.info.Dims...),
			Data: info,
		}
	}

	return req, nil
}

// PackImages writes every image of b into dst in planar layout.
//
// For image i, channel c and pixel p the destination offset is
// i*(C*S) + c*S + p, read from source offset p*C + c, where S = H*W.
//
// Arguments:
//   - b: The assembled batch.
//   - dst: The destination buffer, at least b.Len()*C*H*W long.
//
// Returns:
//   - error: A configuration error on channel or size mismatch.
func (p *Packer) PackImages(b *batch.Batch, dst []uint8) error {
	c := p.Channels
	s := p.Height * p.Width
	if need := b.Len() * c * s; len(dst) < need {
		return errors.Errorf("destination holds %d bytes, needs %d", len(dst), need)
	}

	for i := 0; i < b.Len(); i++ {
		img := b.Input(i)
		if img.Channels != c {
			return inference.Configurationf("image %d has %d channels, backend declares %d",
				i, img.Channels, c)
		}
		if img.Width != p.Width || img.Height != p.Height {
			return inference.Configurationf("image %d is %dx%d, backend expects %dx%d",
				i, img.Width, img.Height, p.Width, p.Height)
		}
		if err := img.Validate(); err != nil {
			return errors.Wrapf(err, "image %d", i)
		}

		src := img.Data
		plane := dst[i*c*s : (i+1)*c*s]
		for px := 0; px < s; px++ {
			for ch := 0; ch < c; ch++ {
				plane[ch*s+px] = src[px*c+ch]
			}
		}
	}
	return nil
}

// PackInfo writes the image-info rows for b into dst: height, width, then 1.0
// for every remaining scale factor.
//
// Arguments:
//   - b: The assembled batch.
//   - dst: The destination buffer, at least b.Len()*MetaDim long.
//
// Returns:
//   - error: An error if no image-info input is declared or dst is short.
func (p *Packer) PackInfo(b *batch.Batch, dst []float32) error {
	if p.info == nil {
		return inference.Configurationf("backend declares no image-info input")
	}
	m := p.MetaDim
	if need := b.Len() * m; len(dst) < need {
		return errors.Errorf("destination holds %d floats, needs %d", len(dst), need)
	}

	for i := 0; i < b.Len(); i++ {
		img := b.Input(i)
		row := dst[i*m : (i+1)*m]
		row[0] = float32(img.Height)
		row[1] = float32(img.Width)
		for k := 2; k < m; k++ {
			row[k] = 1.0
		}
	}
	return nil
}
