package plan

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CategoryColors maps each sublot category to its fill color
func CategoryColors() map[SublotCategory]color.RGBA {
	return map[SublotCategory]color.RGBA{
		CategoryTriangular:    {144, 238, 144, 255}, // light green
		CategoryCuadrilateral: {100, 149, 237, 255}, // cornflower blue
		CategoryRegular:       {255, 215, 0, 255},   // gold
		CategoryComplejo:      {255, 99, 71, 255},   // tomato
		CategoryIrregular:     {216, 191, 216, 255}, // thistle
	}
}

// PlanRenderer renders a plan's polylines and detected sublots as
// vector graphics: borders as heavy strokes, sublot dividers as light
// strokes, accepted sublots as translucent category-colored fills.
type PlanRenderer struct {
	Polylines  []Polyline
	Result     *DetectionResult
	Scale      float64           // canvas units per image unit
	Padding    float64           // padding in image units
	Resolution canvas.Resolution // for PNG output
	Labels     bool              // draw lot labels on PNG output
}

// NewPlanRenderer creates a renderer with default settings
func NewPlanRenderer(polylines []Polyline, result *DetectionResult) *PlanRenderer {
	return &PlanRenderer{
		Polylines:  polylines,
		Result:     result,
		Scale:      1.0,
		Padding:    40.0,
		Resolution: canvas.DPI(150),
		Labels:     true,
	}
}

// canvasRenderer is the subset both the svg and rasterizer backends
// implement.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderSVG writes the plan preview as an SVG to the writer
func (r *PlanRenderer) RenderSVG(w io.Writer) error {
	bounds, ok := r.worldBounds()
	if !ok {
		return fmt.Errorf("nothing to render")
	}

	width := bounds.Width() + 2*r.Padding
	height := bounds.Height() + 2*r.Padding

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, bounds, width, height)
	if err := svgRenderer.Close(); err != nil {
		return fmt.Errorf("closing SVG: %w", err)
	}
	return nil
}

// RenderPNG writes the plan preview as a PNG to the writer
func (r *PlanRenderer) RenderPNG(w io.Writer) error {
	bounds, ok := r.worldBounds()
	if !ok {
		return fmt.Errorf("nothing to render")
	}

	width := bounds.Width() + 2*r.Padding
	height := bounds.Height() + 2*r.Padding

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, bounds, width, height)

	if r.Labels && r.Result != nil {
		scaleX := float64(rast.Bounds().Dx()) / width
		scaleY := float64(rast.Bounds().Dy()) / height
		for i, s := range r.Result.Sublots {
			c := s.Centroid()
			// Canvas Y axis points up; the raster image's points down.
			px := int((c.X - bounds.MinX + r.Padding) * scaleX)
			py := rast.Bounds().Dy() - int((c.Y-bounds.MinY+r.Padding)*scaleY)
			drawLabel(rast, px, py, fmt.Sprintf("Lote-%03d", i+1), color.RGBA{0, 0, 0, 255})
		}
	}

	return png.Encode(w, rast)
}

// worldBounds returns the bounding box over every polyline point
func (r *PlanRenderer) worldBounds() (Bounds, bool) {
	var pts []Point
	for _, pl := range r.Polylines {
		pts = append(pts, pl.Points...)
	}
	if len(pts) == 0 {
		return Bounds{}, false
	}
	return BoundingBox(pts), true
}

func (r *PlanRenderer) renderToCanvas(renderer canvasRenderer, bounds Bounds, width, height float64) {
	// White background.
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	toCanvas := func(p Point) (float64, float64) {
		return (p.X - bounds.MinX) + r.Padding, (p.Y - bounds.MinY) + r.Padding
	}

	// Accepted sublots first, so the line work stays visible on top.
	if r.Result != nil {
		colors := CategoryColors()
		for _, s := range r.Result.Sublots {
			fill := colors[s.Category]
			fill.A = 120
			style := canvas.DefaultStyle
			style.Fill = canvas.Paint{Color: premultiply(fill)}
			style.Stroke = canvas.Paint{Color: canvas.Transparent}

			cp := &canvas.Path{}
			for i, pt := range s.Vertices {
				cx, cy := toCanvas(pt)
				if i == 0 {
					cp.MoveTo(cx, cy)
				} else {
					cp.LineTo(cx, cy)
				}
			}
			cp.Close()
			renderer.RenderPath(cp, style, canvas.Identity)
		}
	}

	borderStyle := canvas.DefaultStyle
	borderStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	borderStyle.Stroke = canvas.Paint{Color: canvas.Darkblue}
	borderStyle.StrokeWidth = 3.0

	dividerStyle := borderStyle
	dividerStyle.Stroke = canvas.Paint{Color: canvas.Dimgray}
	dividerStyle.StrokeWidth = 1.5

	for _, pl := range r.Polylines {
		if len(pl.Points) < 2 {
			continue
		}
		style := dividerStyle
		if pl.Role == RoleBorder {
			style = borderStyle
		}

		cp := &canvas.Path{}
		for i, pt := range pl.Points {
			cx, cy := toCanvas(pt)
			if i == 0 {
				cp.MoveTo(cx, cy)
			} else {
				cp.LineTo(cx, cy)
			}
		}
		renderer.RenderPath(cp, style, canvas.Identity)
	}
}

// premultiply converts straight-alpha RGBA to the premultiplied form
// the canvas library expects.
func premultiply(c color.RGBA) color.RGBA {
	if c.A == 255 {
		return c
	}
	a := uint32(c.A)
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: c.A,
	}
}

// drawLabel renders small text onto the rasterized image
func drawLabel(img draw.Image, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
