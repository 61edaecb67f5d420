package opencv

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/postprocess"
	"github.com/nvr-ai/go-detect/render"
)

// Renderer draws boxes with OpenCV and writes the result with IMWrite.
type Renderer struct {
	// Order is the channel order of the images passed to Render.
	Order images.ChannelOrder
	// Labels names the classes drawn above each box.
	Labels postprocess.Labels
	// Thickness is the box stroke width.
	Thickness int
	// FontScale is the label text scale; zero disables text.
	FontScale float64
}

var _ render.Renderer = (*Renderer)(nil)

// NewRenderer creates an OpenCV renderer. Nil labels use COCOLabels.
func NewRenderer(order images.ChannelOrder, labels postprocess.Labels) *Renderer {
	if labels == nil {
		labels = postprocess.COCOLabels
	}
	return &Renderer{Order: order, Labels: labels, Thickness: 2, FontScale: 0.5}
}

// Render draws every box on img and writes the result to path.
func (r *Renderer) Render(img images.Image, boxes []int, labels []int, path string) error {
	if err := render.CheckBoxes(boxes, labels); err != nil {
		return inference.Renderf("%v", err)
	}
	if _, ok := images.FormatFromPath(path); !ok {
		return inference.Renderf("unsupported output extension: %s", path)
	}

	m, err := toMat(img, r.Order)
	if err != nil {
		return inference.Renderf("convert %s: %v", path, err)
	}
	defer m.Close()

	for k, label := range labels {
		rect := image.Rect(boxes[4*k], boxes[4*k+1], boxes[4*k]+boxes[4*k+2], boxes[4*k+1]+boxes[4*k+3])
		c := render.Color(label)
		gocv.Rectangle(&m, rect, c, r.Thickness)
		if r.FontScale > 0 {
			r.putLabel(&m, r.Labels.Name(label), rect.Min, c)
		}
	}

	if !gocv.IMWrite(path, m) {
		return inference.Renderf("failed to write %s", path)
	}
	return nil
}

func (r *Renderer) putLabel(m *gocv.Mat, text string, at image.Point, c color.RGBA) {
	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, r.FontScale, 1)
	origin := image.Pt(at.X, at.Y-4)
	if origin.Y-size.Y < 0 {
		origin.Y = at.Y + size.Y + 4
	}

	bg := image.Rect(origin.X, origin.Y-size.Y-2, origin.X+size.X+4, origin.Y+2)
	gocv.Rectangle(m, bg, c, -1)
	gocv.PutText(m, text, image.Pt(origin.X+2, origin.Y), gocv.FontHersheySimplex, r.FontScale,
		color.RGBA{R: 255, G: 255, B: 255, A: 0}, 1)
}
