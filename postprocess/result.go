// Package postprocess - Decodes detection output tensors into per-image results.
package postprocess

import (
	"fmt"
	"image"
)

// Detection is a decoded, denormalized detection in original image pixels.
type Detection struct {
	// The batch index of the image the detection belongs to.
	ImageID int `json:"image_id"`
	// The predicted class index.
	Label int `json:"label"`
	// The confidence score.
	Confidence float32 `json:"confidence"`
	// The top-left corner and size of the bounding box.
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the bounding box as an image.Rectangle.
func (d Detection) Rect() image.Rectangle {
	return image.Rect(d.X, d.Y, d.X+d.Width, d.Y+d.Height)
}

func (d Detection) String() string {
	return fmt.Sprintf("image %d label %d (%.3f): (%d,%d) %dx%d",
		d.ImageID, d.Label, d.Confidence, d.X, d.Y, d.Width, d.Height)
}

// DetectionSet holds one ordered detection list per batch image, indexed by
// batch position. Lists keep the output tensor's row order and may be empty.
type DetectionSet [][]Detection

// NewDetectionSet creates a set with n empty lists.
func NewDetectionSet(n int) DetectionSet {
	set := make(DetectionSet, n)
	for i := range set {
		set[i] = []Detection{}
	}
	return set
}

// Count returns the total number of detections across all images.
func (s DetectionSet) Count() int {
	n := 0
	for _, dets := range s {
		n += len(dets)
	}
	return n
}

// Boxes flattens the detections of image i into [x, y, width, height, ...]
// with a parallel slice of labels.
//
// Arguments:
//   - i: The batch index.
//
// Returns:
//   - []int: The flattened boxes, four values per detection.
//   - []int: The label of every box.
func (s DetectionSet) Boxes(i int) ([]int, []int) {
	dets := s[i]
	boxes := make([]int, 0, len(dets)*4)
	labels := make([]int, 0, len(dets))
	for _, d := range dets {
		boxes = append(boxes, d.X, d.Y, d.Width, d.Height)
		labels = append(labels, d.Label)
	}
	return boxes, labels
}
