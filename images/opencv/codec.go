// Package opencv - OpenCV image codec and box renderer.
package opencv

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-detect/images"
)

// Codec decodes and resizes images with OpenCV.
type Codec struct {
	// Order is the channel order of the produced buffers.
	Order images.ChannelOrder
	// Interpolation is the resize interpolation.
	Interpolation gocv.InterpolationFlags
}

var _ images.Codec = (*Codec)(nil)

// NewCodec creates an OpenCV codec. An empty order defaults to BGR.
func NewCodec(order images.ChannelOrder) *Codec {
	if order == "" {
		order = images.ChannelOrderBGR
	}
	return &Codec{Order: order, Interpolation: gocv.InterpolationLinear}
}

// Decode reads path with IMRead and resizes a copy to size.
func (c *Codec) Decode(path string, size image.Point) (images.Frame, error) {
	flags := gocv.IMReadColor
	if c.Order == images.ChannelOrderGray {
		flags = gocv.IMReadGrayScale
	}

	m := gocv.IMRead(path, flags)
	if m.Empty() {
		return images.Frame{}, errors.Errorf("failed to read image %s", path)
	}
	defer m.Close()

	if c.Order == images.ChannelOrderRGB {
		gocv.CvtColor(m, &m, gocv.ColorBGRToRGB)
	}

	format, _ := images.FormatFromPath(path)
	original := fromMat(m, format)
	input := original

	if size != (image.Point{}) && (m.Cols() != size.X || m.Rows() != size.Y) {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(m, &resized, size, 0, 0, c.Interpolation)
		input = fromMat(resized, format)
	}

	return images.Frame{Path: path, Original: original, Input: input}, nil
}

func fromMat(m gocv.Mat, format images.ImageFormat) images.Image {
	return images.Image{
		Format:   format,
		Data:     m.ToBytes(),
		Width:    m.Cols(),
		Height:   m.Rows(),
		Channels: m.Channels(),
	}
}

// toMat copies img into a BGR Mat ready for drawing.
func toMat(img images.Image, order images.ChannelOrder) (gocv.Mat, error) {
	if err := img.Validate(); err != nil {
		return gocv.Mat{}, err
	}

	mt := gocv.MatTypeCV8UC3
	if img.Channels == 1 {
		mt = gocv.MatTypeCV8UC1
	}
	wrapped, err := gocv.NewMatFromBytes(img.Height, img.Width, mt, img.Data)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "wrap image")
	}
	defer wrapped.Close()

	// Drawing must not write through to the batch buffer.
	m := wrapped.Clone()

	switch {
	case img.Channels == 1:
		gocv.CvtColor(m, &m, gocv.ColorGrayToBGR)
	case order == images.ChannelOrderRGB:
		gocv.CvtColor(m, &m, gocv.ColorRGBToBGR)
	}
	return m, nil
}
