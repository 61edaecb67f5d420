package images

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebp "golang.org/x/image/webp"
)

// writeTestImage writes a w x h image whose left half is red and right half blue.
func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.RGBA{B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	require.NoError(t, Save(path, img))
}

func TestNativeCodecDecodeBGR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "split.png")
	writeTestImage(t, path, 8, 4)

	frame, err := NewNativeCodec("").Decode(path, image.Point{})
	require.NoError(t, err)
	assert.Equal(t, path, frame.Path)
	assert.Equal(t, FormatPNG, frame.Original.Format)
	assert.Equal(t, image.Pt(8, 4), frame.Original.Size())
	assert.Equal(t, 3, frame.Original.Channels)
	require.NoError(t, frame.Original.Validate())

	// first pixel is red, stored as B, G, R
	assert.Equal(t, []byte{0, 0, 255}, frame.Original.Data[:3])
	// last pixel is blue
	assert.Equal(t, []byte{255, 0, 0}, frame.Original.Data[len(frame.Original.Data)-3:])
	assert.Equal(t, frame.Original, frame.Input)
}

func TestNativeCodecDecodeRGBResized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "split.bmp")
	writeTestImage(t, path, 16, 8)

	frame, err := NewNativeCodec(ChannelOrderRGB).Decode(path, image.Pt(4, 2))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(16, 8), frame.Original.Size())
	assert.Equal(t, image.Pt(4, 2), frame.Input.Size())
	require.NoError(t, frame.Input.Validate())
	assert.Equal(t, FormatBMP, frame.Input.Format)
	assert.Equal(t, byte(255), frame.Original.Data[0])
}

func TestNativeCodecDecodeGray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "split.jpg")
	writeTestImage(t, path, 8, 8)

	frame, err := NewNativeCodec(ChannelOrderGray).Decode(path, image.Pt(8, 8))
	require.NoError(t, err)
	assert.Equal(t, 1, frame.Input.Channels)
	assert.Len(t, frame.Input.Data, 64)
}

func TestNativeCodecDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := NewNativeCodec("").Decode(filepath.Join(dir, "missing.png"), image.Point{})
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o600))
	_, err = NewNativeCodec("").Decode(garbage, image.Point{})
	assert.Error(t, err)
}

func TestToImageRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = byte(i * 9)
	}
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}

	for _, order := range []ChannelOrder{ChannelOrderBGR, ChannelOrderRGB} {
		buf := FromImage(src, order)
		back, err := ToImage(buf, order)
		require.NoError(t, err)
		assert.Equal(t, src.Pix, back.Pix, string(order))
	}

	_, err := ToImage(Image{Data: []byte{1}, Width: 2, Height: 2, Channels: 3}, ChannelOrderBGR)
	assert.Error(t, err)
}

func TestNativeCodecDecodeWebP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "split.webp")
	writeTestImage(t, path, 8, 4)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := xwebp.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
	assert.Equal(t, 4, cfg.Height)

	frame, err := NewNativeCodec(ChannelOrderBGR).Decode(path, image.Point{})
	require.NoError(t, err)
	assert.Equal(t, FormatWebP, frame.Original.Format)
	assert.Equal(t, image.Pt(8, 4), frame.Original.Size())
	// lossless output keeps the exact colors
	assert.Equal(t, []byte{0, 0, 255}, frame.Original.Data[:3])
	assert.Equal(t, []byte{255, 0, 0}, frame.Original.Data[len(frame.Original.Data)-3:])
}

func TestEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for _, format := range []ImageFormat{FormatPNG, FormatJPEG, FormatBMP, FormatWebP} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, format))
		_, name, err := image.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, string(format), name)
	}

	assert.Error(t, Encode(&bytes.Buffer{}, img, "tiff"))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "out.tiff"), img))
}

func TestImageValidate(t *testing.T) {
	assert.NoError(t, Image{Data: make([]byte, 12), Width: 2, Height: 2, Channels: 3}.Validate())
	assert.Error(t, Image{Data: make([]byte, 11), Width: 2, Height: 2, Channels: 3}.Validate())
	assert.Error(t, Image{Width: 0, Height: 2, Channels: 3}.Validate())
}

func TestFormatFromPath(t *testing.T) {
	f, ok := FormatFromPath("a/b/C.JPG")
	assert.True(t, ok)
	assert.Equal(t, FormatJPEG, f)

	_, ok = FormatFromPath("notes.txt")
	assert.False(t, ok)
}

func TestParseCodecKind(t *testing.T) {
	kind, err := ParseCodecKind("")
	require.NoError(t, err)
	assert.Equal(t, CodecNative, kind)

	kind, err = ParseCodecKind("OpenCV")
	require.NoError(t, err)
	assert.Equal(t, CodecOpenCV, kind)

	_, err = ParseCodecKind("magick")
	assert.Error(t, err)
}
