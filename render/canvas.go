package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/postprocess"
)

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// CanvasRenderer draws boxes with a gg context and saves the image with the
// Go encoders.
type CanvasRenderer struct {
	// Order is the channel order of the images passed to Render.
	Order images.ChannelOrder
	// Labels names the classes drawn above each box.
	Labels postprocess.Labels
	// LineWidth is the box stroke width in pixels.
	LineWidth float64
	// FontSize is the label text size in points; zero disables text.
	FontSize float64
}

// NewCanvasRenderer creates a renderer for images in the given channel order.
//
// Arguments:
//   - order: The channel order of rendered images.
//   - labels: The class names; nil uses COCOLabels.
//
// Returns:
//   - *CanvasRenderer: The renderer.
func NewCanvasRenderer(order images.ChannelOrder, labels postprocess.Labels) *CanvasRenderer {
	if labels == nil {
		labels = postprocess.COCOLabels
	}
	return &CanvasRenderer{
		Order:     order,
		Labels:    labels,
		LineWidth: 2,
		FontSize:  12,
	}
}

// Render draws every box on img and writes the result to path.
func (r *CanvasRenderer) Render(img images.Image, boxes []int, labels []int, path string) error {
	if err := CheckBoxes(boxes, labels); err != nil {
		return inference.Renderf("%v", err)
	}

	src, err := images.ToImage(img, r.Order)
	if err != nil {
		return inference.Renderf("convert %s: %v", path, err)
	}

	dc := gg.NewContextForRGBA(src)
	if r.FontSize > 0 {
		dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: r.FontSize}))
	}

	for k, label := range labels {
		rect := image.Rect(boxes[4*k], boxes[4*k+1], boxes[4*k]+boxes[4*k+2], boxes[4*k+1]+boxes[4*k+3])
		c := Color(label)
		r.drawBox(dc, rect, c)
		if r.FontSize > 0 {
			r.drawLabel(dc, r.Labels.Name(label), rect.Min, c)
		}
	}

	if err := images.Save(path, dc.Image()); err != nil {
		return inference.Renderf("write %s: %v", path, err)
	}
	return nil
}

func (r *CanvasRenderer) drawBox(dc *gg.Context, rect image.Rectangle, c color.Color) {
	dc.SetColor(c)
	dc.SetLineWidth(r.LineWidth)
	dc.DrawRectangle(float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()))
	dc.Stroke()
}

func (r *CanvasRenderer) drawLabel(dc *gg.Context, text string, at image.Point, c color.Color) {
	w, h := dc.MeasureString(text)
	x, y := float64(at.X), float64(at.Y)-h-2
	if y < 0 {
		y = float64(at.Y)
	}

	dc.SetColor(c)
	dc.DrawRectangle(x, y, w+4, h+2)
	dc.Fill()
	dc.SetColor(color.White)
	dc.DrawStringAnchored(text, x+2, y+h/2+1, 0, 0.5)
}
