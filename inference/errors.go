// Package inference - Error taxonomy shared by every pipeline stage.
package inference

import "github.com/pkg/errors"

var (
	// ErrConfiguration marks a backend declaration or setting that violates a hard
	// constraint. It is always fatal and raised before any inference call.
	ErrConfiguration = errors.New("configuration error")

	// ErrData marks a run that has no usable input images.
	ErrData = errors.New("data error")

	// ErrRender marks a failure to draw or persist an output image.
	ErrRender = errors.New("render error")
)

// Configurationf returns an ErrConfiguration annotated with a formatted message.
func Configurationf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

// Dataf returns an ErrData annotated with a formatted message.
func Dataf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrData, format, args...)
}

// Renderf returns an ErrRender annotated with a formatted message.
func Renderf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrRender, format, args...)
}

// IsConfiguration reports whether err is (or wraps) ErrConfiguration.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsData reports whether err is (or wraps) ErrData.
func IsData(err error) bool {
	return errors.Is(err, ErrData)
}

// IsRender reports whether err is (or wraps) ErrRender.
func IsRender(err error) bool {
	return errors.Is(err, ErrRender)
}
