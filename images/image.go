// Package images - Image definition for processing utilities.
package images

import (
	"image"

	"github.com/pkg/errors"
)

// Image represents a decoded image as an interleaved (channel-last) byte buffer.
type Image struct {
	// The format the image was decoded from.
	Format ImageFormat `json:"format" yaml:"format"`
	// The pixel data, row-major, channels interleaved.
	Data []byte `json:"data" yaml:"data"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
	// The number of interleaved channels per pixel.
	Channels int `json:"channels" yaml:"channels"`
}

// Size returns the image dimensions as a point (X is the width).
func (img Image) Size() image.Point {
	return image.Point{X: img.Width, Y: img.Height}
}

// Pixels returns the number of pixels in the image.
func (img Image) Pixels() int {
	return img.Width * img.Height
}

// Validate checks that the buffer length matches the declared dimensions.
//
// Returns:
//   - error: An error if the dimensions are not positive or the buffer is short.
func (img Image) Validate() error {
	if img.Width <= 0 || img.Height <= 0 || img.Channels <= 0 {
		return errors.Errorf("invalid image dimensions %dx%dx%d", img.Width, img.Height, img.Channels)
	}
	if want := img.Width * img.Height * img.Channels; len(img.Data) != want {
		return errors.Errorf("image buffer holds %d bytes, %dx%dx%d needs %d",
			len(img.Data), img.Width, img.Height, img.Channels, want)
	}
	return nil
}

// Frame is one decoded input file: the original pixels and the copy resized to
// the dimensions the backend expects.
type Frame struct {
	// Path is the file the frame was decoded from.
	Path string
	// Original is the unscaled image, used for rendering and denormalization.
	Original Image
	// Input is the image resized to the backend input dimensions.
	Input Image
}
