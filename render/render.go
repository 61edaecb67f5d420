// Package render - Draws decoded detections onto images and writes them to disk.
package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-detect/images"
)

// Renderer draws labeled boxes on an image and persists the result.
type Renderer interface {
	// Render draws boxes, four ints (x, y, width, height) per entry of labels,
	// on img and writes the result to path.
	Render(img images.Image, boxes []int, labels []int, path string) error
}

// Kind selects a Renderer implementation.
type Kind string

const (
	// KindCanvas draws with fogleman/gg and encodes with the Go image packages.
	KindCanvas Kind = "canvas"
	// KindOpenCV draws and writes with OpenCV.
	KindOpenCV Kind = "opencv"
)

// DefaultFormat is the output format used when none is configured.
const DefaultFormat = images.FormatBMP

// ParseKind resolves a renderer kind by name.
func ParseKind(s string) (Kind, error) {
	switch kind := Kind(strings.ToLower(strings.TrimSpace(s))); kind {
	case "", KindCanvas:
		return KindCanvas, nil
	case KindOpenCV:
		return KindOpenCV, nil
	default:
		return "", errors.Errorf("unsupported renderer %q", s)
	}
}

// OutputPath returns the file an annotated image is written to:
// <dir>/out_<i>.<format>.
//
// Arguments:
//   - dir: The output directory.
//   - i: The batch index of the image.
//   - format: The output format; empty uses DefaultFormat.
//
// Returns:
//   - string: The output path.
func OutputPath(dir string, i int, format images.ImageFormat) string {
	if format == "" {
		format = DefaultFormat
	}
	ext := string(format)
	if format == images.FormatJPEG {
		ext = "jpg"
	}
	return filepath.Join(dir, fmt.Sprintf("out_%d.%s", i, ext))
}

// CheckBoxes verifies that boxes holds four values per label.
func CheckBoxes(boxes []int, labels []int) error {
	if len(boxes) != 4*len(labels) {
		return errors.Errorf("%d box values for %d labels", len(boxes), len(labels))
	}
	return nil
}
