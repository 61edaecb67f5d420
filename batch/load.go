package batch

import (
	"context"
	"image"

	"go.uber.org/zap"

	"github.com/nvr-ai/go-detect/images"
)

// Load decodes every path with codec. Files that fail to decode are logged and
// skipped; an empty result is left for Assemble to reject.
//
// Arguments:
//   - ctx: Cancels decoding between files.
//   - codec: The image codec.
//   - paths: The files to decode, in order.
//   - size: The backend input size (width, height).
//   - logger: The logger for skipped files.
//
// Returns:
//   - []images.Frame: The decoded frames, in input order.
//   - error: The context error if ctx is cancelled.
func Load(
	ctx context.Context,
	codec images.Codec,
	paths []string,
	size image.Point,
	logger *zap.SugaredLogger,
) ([]images.Frame, error) {
	frames := make([]images.Frame, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := codec.Decode(path, size)
		if err == nil {
			err = frame.Input.Validate()
		}
		if err != nil {
			logger.Warnw("skipping image", "path", path, "error", err)
			continue
		}

		logger.Debugw("decoded image",
			"path", path,
			"width", frame.Original.Width,
			"height", frame.Original.Height,
			"channels", frame.Original.Channels,
		)
		frames = append(frames, frame)
	}
	return frames, nil
}
