// Package overlay draws court regions and their labels onto frames.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/MeKo-Tech/courtvis/internal/keypoints"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// LabelOffset is the distance in pixels between the first corner and
	// the label baseline.
	LabelOffset = 10
	// baseFontScale is the FontScale at which the bitmap face is drawn 1:1.
	baseFontScale = 0.5
)

// Renderer draws keypoint sets with a fixed style. Labels are rasterised
// once per class name and reused.
type Renderer struct {
	style  Style
	face   font.Face
	mu     sync.Mutex
	labels map[string]*label
}

type label struct {
	mask   *image.NRGBA
	ascent int
}

// New returns a renderer for style.
func New(style Style) (*Renderer, error) {
	if err := style.Validate(); err != nil {
		return nil, err
	}
	if style.Colors == nil {
		style.Colors = map[string]color.RGBA{}
	}
	return &Renderer{
		style:  style,
		face:   basicfont.Face7x13,
		labels: make(map[string]*label),
	}, nil
}

// Style returns the renderer's style.
func (r *Renderer) Style() Style { return r.style }

// Render returns an annotated copy of frame. The input is never modified.
// Regions are drawn in the set's insertion order, so later labels cover
// earlier ones. An empty set yields a plain copy.
func (r *Renderer) Render(frame image.Image, set keypoints.Set) *image.RGBA {
	dst := cloneRGBA(frame)
	set.Each(func(name string, q keypoints.Quad) {
		if !q.Finite() {
			return
		}
		col := r.style.ColorFor(name)
		for i := range q {
			a, b := q[i], q[(i+1)%len(q)]
			drawLine(dst, [2]float64{a.X, a.Y}, [2]float64{b.X, b.Y}, col, r.style.LineThickness)
		}
		if r.style.CornerRadius > 0 {
			for _, p := range q {
				fillCircle(dst, clampCoord(p.X), clampCoord(p.Y), r.style.CornerRadius, col)
			}
		}
		r.drawLabel(dst, name, clampCoord(q[0].X), clampCoord(q[0].Y)-LabelOffset, col)
	})
	return dst
}

// drawLabel paints text with its baseline-left corner at (x, y).
func (r *Renderer) drawLabel(dst *image.RGBA, text string, x, y int, col color.RGBA) {
	l := r.label(text)
	if l == nil {
		return
	}
	b := l.mask.Bounds()
	rect := image.Rect(x, y-l.ascent, x+b.Dx(), y-l.ascent+b.Dy())
	draw.DrawMask(dst, rect, image.NewUniform(col), image.Point{}, l.mask, b.Min, draw.Over)
}

func (r *Renderer) label(text string) *label {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.labels[text]; ok {
		return l
	}
	l := rasterizeLabel(r.face, text, r.style.FontScale/baseFontScale, r.style.LineThickness)
	r.labels[text] = l
	return l
}

// rasterizeLabel draws text in opaque white on a transparent canvas and
// scales it. Strokes are widened by drawing the text at horizontal offsets.
func rasterizeLabel(face font.Face, text string, scale float64, thickness int) *label {
	if text == "" {
		return nil
	}
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	height := ascent + metrics.Descent.Ceil()
	bold := max(1, thickness/2)
	width := font.MeasureString(face, text).Ceil() + bold - 1
	if width <= 0 || height <= 0 {
		return nil
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	for dx := 0; dx < bold; dx++ {
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.White,
			Face: face,
			Dot:  fixed.P(dx, ascent),
		}
		d.DrawString(text)
	}

	if math.Abs(scale-1) < 1e-9 {
		return &label{mask: canvas, ascent: ascent}
	}
	w := max(1, int(math.Round(float64(width)*scale)))
	h := max(1, int(math.Round(float64(height)*scale)))
	return &label{
		mask:   imaging.Resize(canvas, w, h, imaging.NearestNeighbor),
		ascent: int(math.Round(float64(ascent) * scale)),
	}
}

// cloneRGBA copies img into a new RGBA anchored at the origin.
func cloneRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.RGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+4*b.Dx()], src.Pix[si:si+4*b.Dx()])
		}
		return dst
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
