package images

import (
	"path/filepath"
	"strings"
)

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatBMP  ImageFormat = "bmp"
	FormatWebP ImageFormat = "webp"
)

// SupportedExtensions lists the file extensions the codecs accept.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

// FormatFromPath returns the image format implied by the file extension.
func FormatFromPath(path string) (ImageFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, true
	case ".png":
		return FormatPNG, true
	case ".bmp":
		return FormatBMP, true
	case ".webp":
		return FormatWebP, true
	default:
		return "", false
	}
}

// ChannelOrder is the interleaving order of color channels in an Image buffer.
type ChannelOrder string

const (
	// ChannelOrderBGR is the OpenCV ordering, expected by most SSD models.
	ChannelOrderBGR ChannelOrder = "bgr"
	// ChannelOrderRGB is standard RGB ordering.
	ChannelOrderRGB ChannelOrder = "rgb"
	// ChannelOrderGray is a single luminance channel.
	ChannelOrderGray ChannelOrder = "gray"
)

// Channels returns the number of channels the order produces.
func (o ChannelOrder) Channels() int {
	if o == ChannelOrderGray {
		return 1
	}
	return 3
}
