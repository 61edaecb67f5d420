// Package images - Image codec contract.
package images

import (
	"image"
	"strings"

	"github.com/pkg/errors"
)

// Codec decodes an image file into a Frame.
type Codec interface {
	// Decode reads the file at path and returns its original pixels together with
	// a copy resized to size. A zero size keeps the original dimensions.
	Decode(path string, size image.Point) (Frame, error)
}

// CodecKind selects a Codec implementation.
type CodecKind string

const (
	// CodecNative decodes with the Go image packages and resizes with nfnt/resize.
	CodecNative CodecKind = "native"
	// CodecOpenCV decodes and resizes with OpenCV.
	CodecOpenCV CodecKind = "opencv"
)

// ParseCodecKind resolves a codec kind by name.
func ParseCodecKind(s string) (CodecKind, error) {
	switch kind := CodecKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case "", CodecNative:
		return CodecNative, nil
	case CodecOpenCV:
		return CodecOpenCV, nil
	default:
		return "", errors.Errorf("unsupported codec %q", s)
	}
}
