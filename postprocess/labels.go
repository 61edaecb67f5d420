package postprocess

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Labels maps class indices to names.
type Labels []string

// COCOLabels is the COCO class list with a leading background class, the
// numbering used by SSD DetectionOutput layers.
var COCOLabels = Labels{
	"__background__", "person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse", "sheep",
	"cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie", "suitcase",
	"frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich",
	"orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch", "potted plant",
	"bed", "dining table", "toilet", "tv", "laptop", "mouse", "remote", "keyboard", "cell phone", "microwave",
	"oven", "toaster", "sink", "refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// Name returns the class name for id, or "#<id>" when unknown.
func (l Labels) Name(id int) string {
	if id >= 0 && id < len(l) {
		return l[id]
	}
	return "#" + strconv.Itoa(id)
}

// LoadLabels reads one class name per line. Blank lines keep their index.
//
// Arguments:
//   - path: The labels file.
//
// Returns:
//   - Labels: The class names.
//   - error: An error if the file cannot be read.
func LoadLabels(path string) (Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open labels %s", path)
	}
	defer f.Close()

	var labels Labels
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read labels %s", path)
	}
	return labels, nil
}
