package images

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

// Encode writes img to w in the given format.
//
// Arguments:
//   - w: The destination writer.
//   - img: The image to encode.
//   - format: The output format.
//
// Returns:
//   - error: An error if the format is unsupported or encoding fails.
func Encode(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: true})
	default:
		return errors.Errorf("unsupported output format %q", format)
	}
}

// Save encodes img to path, picking the format from the file extension.
//
// Arguments:
//   - path: The output file.
//   - img: The image to write.
//
// Returns:
//   - error: An error if the extension is unsupported or the write fails.
func Save(path string, img image.Image) (err error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return errors.Errorf("unsupported output extension: %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	return errors.Wrapf(Encode(f, img, format), "encode %s", path)
}
