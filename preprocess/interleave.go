package preprocess

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-detect/inference"
)

// Interleave recovers the channel-last buffer of image i from a planar blob.
//
// Arguments:
//   - blob: A packed [batch, channels, height, width] image tensor.
//   - i: The batch index.
//
// Returns:
//   - []uint8: The interleaved pixels of image i.
//   - error: An error if the blob is not rank 4 or i is out of range.
func Interleave(blob inference.Blob[uint8], i int) ([]uint8, error) {
	if len(blob.Dims) != 4 {
		return nil, errors.Errorf("blob %s has rank %d, want 4", blob.Name, len(blob.Dims))
	}
	c, h, w := int(blob.Dims[1]), int(blob.Dims[2]), int(blob.Dims[3])
	size := c * h * w
	if i < 0 || (i+1)*size > len(blob.Data) {
		return nil, errors.Errorf("image %d out of range for blob of %d bytes", i, len(blob.Data))
	}

	planar := make([]uint8, size)
	copy(planar, blob.Data[i*size:(i+1)*size])

	t := tensor.New(tensor.WithShape(c, h, w), tensor.WithBacking(planar))
	if err := t.T(1, 2, 0); err != nil {
		return nil, errors.Wrap(err, "transpose CHW to HWC")
	}
	if err := t.Transpose(); err != nil {
		return nil, errors.Wrap(err, "materialize HWC")
	}

	return t.Data().([]uint8), nil
}
