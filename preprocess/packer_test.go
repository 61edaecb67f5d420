package preprocess

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-detect/batch"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
)

func imageInput(b, c, h, w int64) inference.TensorDesc {
	return inference.TensorDesc{
		Name:      "image_tensor",
		Dims:      []int64{b, c, h, w},
		Precision: inference.PrecisionU8,
		Kind:      inference.KindImage,
	}
}

func infoInput(b, m int64) inference.TensorDesc {
	return inference.TensorDesc{
		Name:      "image_info",
		Dims:      []int64{b, m},
		Precision: inference.PrecisionFP32,
		Kind:      inference.KindImageInfo,
	}
}

// patterned returns an image whose bytes encode batch index, pixel and channel.
func patterned(i, w, h, c int) images.Image {
	data := make([]byte, w*h*c)
	for k := range data {
		data[k] = byte(i*31 + k*7)
	}
	return images.Image{Data: data, Width: w, Height: h, Channels: c}
}

func newBatch(t *testing.T, n, w, h, c, capacity int) *batch.Batch {
	t.Helper()
	frames := make([]images.Frame, n)
	for i := range frames {
		img := patterned(i, w, h, c)
		frames[i] = images.Frame{Path: fmt.Sprintf("%d.png", i), Original: img, Input: img}
	}
	b, err := batch.Assemble(frames, capacity)
	require.NoError(t, err)
	return b
}

func TestNewPacker(t *testing.T) {
	p, err := NewPacker([]inference.TensorDesc{imageInput(2, 3, 300, 400)})
	require.NoError(t, err)
	assert.Equal(t, 2, p.BatchCapacity)
	assert.Equal(t, 3, p.Channels)
	assert.Equal(t, 300, p.Height)
	assert.Equal(t, 400, p.Width)
	assert.Equal(t, 0, p.MetaDim)
	assert.False(t, p.HasInfo())
	assert.Equal(t, 400, p.InputSize().X)
	assert.Equal(t, 300, p.InputSize().Y)

	// order of declarations does not matter
	p, err = NewPacker([]inference.TensorDesc{infoInput(1, 6), imageInput(1, 3, 8, 8)})
	require.NoError(t, err)
	assert.True(t, p.HasInfo())
	assert.Equal(t, 6, p.MetaDim)
}

func TestNewPackerRejects(t *testing.T) {
	tests := []struct {
		name   string
		inputs []inference.TensorDesc
	}{
		{"no inputs", nil},
		{"three inputs", []inference.TensorDesc{imageInput(1, 3, 8, 8), infoInput(1, 3), infoInput(1, 3)}},
		{"meta dim 4", []inference.TensorDesc{imageInput(1, 3, 8, 8), infoInput(1, 4)}},
		{"rank 3 input", []inference.TensorDesc{{Name: "x", Dims: []int64{3, 8, 8}}}},
		{"two image inputs", []inference.TensorDesc{imageInput(1, 3, 8, 8), imageInput(1, 3, 8, 8)}},
		{"only info", []inference.TensorDesc{infoInput(1, 3)}},
		{"dynamic dim", []inference.TensorDesc{imageInput(-1, 3, 8, 8)}},
		{"zero dim", []inference.TensorDesc{imageInput(1, 3, 0, 8)}},
		{"info batch mismatch", []inference.TensorDesc{imageInput(2, 3, 8, 8), infoInput(1, 3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPacker(tt.inputs)
			require.Error(t, err)
			assert.True(t, inference.IsConfiguration(err), err.Error())
		})
	}
}

func TestPackImagesOffsetLaw(t *testing.T) {
	const n, c, h, w = 3, 3, 4, 5
	p, err := NewPacker([]inference.TensorDesc{imageInput(n, c, h, w)})
	require.NoError(t, err)
	b := newBatch(t, n, w, h, c, n)

	req, err := p.Pack(b)
	require.NoError(t, err)
	require.Len(t, req.Image.Data, n*c*h*w)
	assert.Equal(t, []int64{n, c, h, w}, req.Image.Dims)
	assert.Equal(t, "image_tensor", req.Image.Name)
	assert.Nil(t, req.Info)

	s := h * w
	for i := 0; i < n; i++ {
		src := b.Input(i).Data
		for ch := 0; ch < c; ch++ {
			for px := 0; px < s; px++ {
				require.Equal(t, src[px*c+ch], req.Image.Data[i*c*s+ch*s+px],
					"image %d channel %d pixel %d", i, ch, px)
			}
		}
	}
}

func TestPackImagesMatchesTransposeOracle(t *testing.T) {
	const n, c, h, w = 2, 3, 6, 7
	p, err := NewPacker([]inference.TensorDesc{imageInput(n, c, h, w)})
	require.NoError(t, err)
	b := newBatch(t, n, w, h, c, n)

	req, err := p.Pack(b)
	require.NoError(t, err)

	size := c * h * w
	for i := 0; i < n; i++ {
		hwc := append([]uint8(nil), b.Input(i).Data...)
		oracle := tensor.New(tensor.WithShape(h, w, c), tensor.WithBacking(hwc))
		require.NoError(t, oracle.T(2, 0, 1))
		require.NoError(t, oracle.Transpose())

		assert.Equal(t, oracle.Data().([]uint8), req.Image.Data[i*size:(i+1)*size], "image %d", i)
	}
}

func TestPackInterleaveRoundTrip(t *testing.T) {
	const capacity, h, w = 3, 5, 4
	tests := []struct {
		name     string
		channels int
		images   int
	}{
		{"gray single", 1, 1},
		{"gray full", 1, capacity},
		{"bgr single", 3, 1},
		{"bgr full", 3, capacity},
		{"bgra single", 4, 1},
		{"bgra full", 4, capacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPacker([]inference.TensorDesc{imageInput(capacity, int64(tt.channels), h, w)})
			require.NoError(t, err)
			b := newBatch(t, tt.images, w, h, tt.channels, capacity)

			req, err := p.Pack(b)
			require.NoError(t, err)

			for i := 0; i < tt.images; i++ {
				got, err := Interleave(req.Image, i)
				require.NoError(t, err)
				assert.Equal(t, b.Input(i).Data, got)
			}

			_, err = Interleave(req.Image, capacity)
			assert.Error(t, err)
		})
	}
}

func TestPackPadsToCapacity(t *testing.T) {
	const c, h, w = 3, 2, 2
	p, err := NewPacker([]inference.TensorDesc{imageInput(4, c, h, w)})
	require.NoError(t, err)
	b := newBatch(t, 1, w, h, c, 4)

	req, err := p.Pack(b)
	require.NoError(t, err)
	require.Len(t, req.Image.Data, 4*c*h*w)
	for _, v := range req.Image.Data[c*h*w:] {
		require.Zero(t, v)
	}
}

func TestPackRejectsOversizedBatch(t *testing.T) {
	p, err := NewPacker([]inference.TensorDesc{imageInput(2, 3, 2, 2)})
	require.NoError(t, err)
	b := newBatch(t, 3, 2, 2, 3, 3)

	_, err = p.Pack(b)
	require.Error(t, err)
	assert.True(t, inference.IsConfiguration(err))
}

func TestPackImagesChannelMismatch(t *testing.T) {
	p, err := NewPacker([]inference.TensorDesc{imageInput(1, 3, 4, 4)})
	require.NoError(t, err)
	b := newBatch(t, 1, 4, 4, 1, 1)

	err = p.PackImages(b, make([]uint8, 3*4*4))
	require.Error(t, err)
	assert.True(t, inference.IsConfiguration(err))
}

func TestPackImagesSizeMismatch(t *testing.T) {
	p, err := NewPacker([]inference.TensorDesc{imageInput(1, 3, 4, 4)})
	require.NoError(t, err)
	b := newBatch(t, 1, 5, 4, 3, 1)

	_, err = p.Pack(b)
	require.Error(t, err)
	assert.True(t, inference.IsConfiguration(err))
}

func TestPackInfo(t *testing.T) {
	p, err := NewPacker([]inference.TensorDesc{imageInput(1, 3, 480, 640), infoInput(1, 3)})
	require.NoError(t, err)
	b := newBatch(t, 1, 640, 480, 3, 1)

	req, err := p.Pack(b)
	require.NoError(t, err)
	require.NotNil(t, req.Info)
	assert.Equal(t, []int64{1, 3}, req.Info.Dims)
	assert.Equal(t, "image_info", req.Info.Name)
	assert.Equal(t, []float32{480, 640, 1}, req.Info.Data)
}

func TestPackInfoSixWide(t *testing.T) {
	p, err := NewPacker([]inference.TensorDesc{imageInput(2, 3, 3, 5), infoInput(2, 6)})
	require.NoError(t, err)
	b := newBatch(t, 2, 5, 3, 3, 2)

	dst := make([]float32, 2*6)
	require.NoError(t, p.PackInfo(b, dst))
	assert.Equal(t, []float32{3, 5, 1, 1, 1, 1, 3, 5, 1, 1, 1, 1}, dst)
}

func TestPackInfoWithoutDeclaration(t *testing.T) {
	p, err := NewPacker([]inference.TensorDesc{imageInput(1, 3, 2, 2)})
	require.NoError(t, err)
	b := newBatch(t, 1, 2, 2, 3, 1)

	err = p.PackInfo(b, make([]float32, 3))
	assert.True(t, inference.IsConfiguration(err))
}
