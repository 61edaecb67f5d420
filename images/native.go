package images

import (
	"image"
	"image/color"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// NativeCodec decodes images with the Go image packages.
type NativeCodec struct {
	// Order is the channel order of the produced buffers.
	Order ChannelOrder
	// Interpolation is the resampling filter used when resizing.
	Interpolation resize.InterpolationFunction
}

// NewNativeCodec creates a codec producing buffers in the given channel order.
//
// Arguments:
//   - order: The channel order of decoded buffers. Empty defaults to BGR.
//
// Returns:
//   - *NativeCodec: The codec.
func NewNativeCodec(order ChannelOrder) *NativeCodec {
	if order == "" {
		order = ChannelOrderBGR
	}
	return &NativeCodec{
		Order:         order,
		Interpolation: resize.Bilinear,
	}
}

// Decode reads the file at path and returns the original and resized buffers.
//
// Arguments:
//   - path: The image file.
//   - size: The target input size; zero keeps the original dimensions.
//
// Returns:
//   - Frame: The decoded frame.
//   - error: An error if the file cannot be read or decoded.
func (c *NativeCodec) Decode(path string, size image.Point) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return Frame{}, errors.Wrapf(err, "decode %s", path)
	}
	format, _ := FormatFromPath(path)

	original := FromImage(src, c.Order)
	original.Format = format

	input := original
	b := src.Bounds()
	if size != (image.Point{}) && (b.Dx() != size.X || b.Dy() != size.Y) {
		resized := resize.Resize(uint(size.X), uint(size.Y), src, c.Interpolation)
		input = FromImage(resized, c.Order)
		input.Format = format
	}

	return Frame{Path: path, Original: original, Input: input}, nil
}

// FromImage converts an image.Image into an interleaved buffer.
//
// Arguments:
//   - src: The source image.
//   - order: The channel order of the result.
//
// Returns:
//   - Image: The interleaved image.
func FromImage(src image.Image, order ChannelOrder) Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	channels := order.Channels()
	data := make([]byte, w*h*channels)

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			switch order {
			case ChannelOrderGray:
				g := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
				data[i] = g.Y
			case ChannelOrderRGB:
				r, g, bl, _ := src.At(x, y).RGBA()
				data[i], data[i+1], data[i+2] = byte(r>>8), byte(g>>8), byte(bl>>8)
			default:
				r, g, bl, _ := src.At(x, y).RGBA()
				data[i], data[i+1], data[i+2] = byte(bl>>8), byte(g>>8), byte(r>>8)
			}
			i += channels
		}
	}

	return Image{Data: data, Width: w, Height: h, Channels: channels}
}

// ToImage converts an interleaved buffer back into an image.Image.
//
// Arguments:
//   - img: The interleaved image.
//   - order: The channel order of img.Data.
//
// Returns:
//   - *image.RGBA: The converted image.
//   - error: An error if the buffer does not match its dimensions.
func ToImage(img Image, order ChannelOrder) (*image.RGBA, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	c := img.Channels
	for p := 0; p < img.Pixels(); p++ {
		px := img.Data[p*c : p*c+c]
		var r, g, b byte
		switch {
		case c < 3:
			r, g, b = px[0], px[0], px[0]
		case order == ChannelOrderRGB:
			r, g, b = px[0], px[1], px[2]
		default:
			r, g, b = px[2], px[1], px[0]
		}
		dst.Pix[p*4], dst.Pix[p*4+1], dst.Pix[p*4+2], dst.Pix[p*4+3] = r, g, b, 0xff
	}
	return dst, nil
}
