// Package batch - Assembles decoded images into the batch fed to one inference call.
package batch

import (
	"image"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
)

// Batch is an ordered, non-empty set of frames. It owns the image data for the
// lifetime of one pipeline run; the packer, decoder and renderer only read it.
type Batch struct {
	frames []images.Frame
}

// Assemble selects the first min(capacity, len(frames)) frames in order.
//
// Arguments:
//   - frames: The successfully decoded frames, in input order.
//   - capacity: The batch capacity declared by the backend.
//
// Returns:
//   - *Batch: The assembled batch.
//   - error: A data error when frames is empty, a configuration error when
//     capacity is not positive.
func Assemble(frames []images.Frame, capacity int) (*Batch, error) {
	if capacity < 1 {
		return nil, inference.Configurationf("batch capacity must be positive, got %d", capacity)
	}
	if len(frames) == 0 {
		return nil, inference.Dataf("no images were decoded")
	}

	n := min(capacity, len(frames))
	selected := make([]images.Frame, n)
	copy(selected, frames[:n])

	return &Batch{frames: selected}, nil
}

// Len returns the number of images in the batch.
func (b *Batch) Len() int {
	return len(b.frames)
}

// Frame returns the i-th frame.
func (b *Batch) Frame(i int) images.Frame {
	return b.frames[i]
}

// Input returns the resized image packed for image i.
func (b *Batch) Input(i int) images.Image {
	return b.frames[i].Input
}

// Original returns the unscaled image i.
func (b *Batch) Original(i int) images.Image {
	return b.frames[i].Original
}

// OriginalSizes returns the unscaled dimensions of every image, in batch order.
func (b *Batch) OriginalSizes() []image.Point {
	sizes := make([]image.Point, len(b.frames))
	for i, f := range b.frames {
		sizes[i] = f.Original.Size()
	}
	return sizes
}

// Paths returns the source file of every image, in batch order.
func (b *Batch) Paths() []string {
	paths := make([]string, len(b.frames))
	for i, f := range b.frames {
		paths[i] = f.Path
	}
	return paths
}
