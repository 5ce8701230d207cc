package overlay

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/courtvis/internal/keypoints"
)

func grayFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img
}

func square(x0, y0, x1, y1 float64) keypoints.Quad {
	return keypoints.Quad{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(DefaultStyle())
	require.NoError(t, err)
	return r
}

func TestNew_InvalidStyle(t *testing.T) {
	s := DefaultStyle()
	s.LineThickness = 0
	_, err := New(s)
	assert.Error(t, err)
}

func TestRender_EmptySetReturnsCopy(t *testing.T) {
	r := newRenderer(t)
	frame := grayFrame(32, 24)

	out := r.Render(frame, keypoints.NewSet())

	assert.Equal(t, frame.Pix, out.Pix)
	out.Pix[0] = 0
	assert.Equal(t, uint8(128), frame.Pix[0])
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	r := newRenderer(t)
	frame := grayFrame(100, 80)
	before := bytes.Clone(frame.Pix)

	set := keypoints.NewSet()
	require.NoError(t, set.Add("tin", square(10, 30, 90, 70)))
	out := r.Render(frame, set)

	assert.Equal(t, before, frame.Pix)
	assert.NotEqual(t, frame.Pix, out.Pix)
	assert.Equal(t, frame.Bounds(), out.Bounds())
}

func TestRender_DrawsOutlineCornersAndLabel(t *testing.T) {
	r := newRenderer(t)
	frame := grayFrame(120, 100)
	set := keypoints.NewSet()
	require.NoError(t, set.Add("tin", square(20, 40, 100, 90)))

	out := r.Render(frame, set)
	yellow := color.RGBA{R: 255, G: 255, A: 255}

	// Edge midpoints.
	assert.Equal(t, yellow, out.RGBAAt(60, 40))
	assert.Equal(t, yellow, out.RGBAAt(100, 65))
	assert.Equal(t, yellow, out.RGBAAt(60, 90))
	assert.Equal(t, yellow, out.RGBAAt(20, 65))
	// Corner disc extends past the outline.
	assert.Equal(t, yellow, out.RGBAAt(20, 44))
	assert.Equal(t, yellow, out.RGBAAt(16, 40))
	// Interior untouched.
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 128}, out.RGBAAt(60, 65))

	// Label pixels sit above the first corner, left aligned to it.
	labelBand := image.Rect(20, 40-LabelOffset-20, 100, 40-LabelOffset+5)
	assert.True(t, hasColor(out, labelBand, yellow), "label not drawn")
	assert.False(t, hasColor(out, image.Rect(0, 0, 15, 25), yellow))
}

func TestRender_UsesClassColors(t *testing.T) {
	r := newRenderer(t)
	frame := grayFrame(200, 100)
	set := keypoints.NewSet()
	require.NoError(t, set.Add("left-square", square(10, 50, 90, 90)))
	require.NoError(t, set.Add("mystery", square(110, 50, 190, 90)))

	out := r.Render(frame, set)

	assert.Equal(t, color.RGBA{B: 255, A: 255}, out.RGBAAt(50, 50))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(150, 50))
}

func TestRender_LaterClassesDrawOnTop(t *testing.T) {
	r := newRenderer(t)
	frame := grayFrame(100, 100)
	set := keypoints.NewSet()
	require.NoError(t, set.Add("tin", square(20, 50, 80, 90)))
	require.NoError(t, set.Add("front-wall-down", square(20, 50, 80, 90)))

	out := r.Render(frame, set)

	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(50, 50))
}

func TestRender_OutOfRangePoints(t *testing.T) {
	r := newRenderer(t)
	frame := grayFrame(64, 48)
	set := keypoints.NewSet()
	require.NoError(t, set.Add("tin", square(-500, -500, 5000, 5000)))
	require.NoError(t, set.Add("left-square", square(1e15, -1e15, 2e15, 3e15)))
	require.NoError(t, set.Add("right-square", keypoints.Quad{{X: math.NaN()}, {}, {}, {}}))

	var out *image.RGBA
	require.NotPanics(t, func() { out = r.Render(frame, set) })
	assert.Equal(t, frame.Bounds(), out.Bounds())
}

func TestRender_NonRGBAInput(t *testing.T) {
	r := newRenderer(t)
	src := image.NewGray(image.Rect(5, 5, 25, 25))
	set := keypoints.NewSet()
	require.NoError(t, set.Add("tin", square(2, 12, 18, 18)))

	out := r.Render(src, set)

	assert.Equal(t, image.Rect(0, 0, 20, 20), out.Bounds())
}

func TestRender_LabelCache(t *testing.T) {
	r := newRenderer(t)
	set := keypoints.NewSet()
	require.NoError(t, set.Add("tin", square(10, 30, 50, 50)))

	first := r.Render(grayFrame(60, 60), set)
	second := r.Render(grayFrame(60, 60), set)

	assert.Equal(t, first.Pix, second.Pix)
	assert.Len(t, r.labels, 1)
}

// TestRender_NeverMutatesProperty checks arbitrary quads leave the input
// frame untouched and the output the same size.
func TestRender_NeverMutatesProperty(t *testing.T) {
	r := newRenderer(t)
	properties := gopter.NewProperties(nil)

	coord := gen.Float64Range(-200, 300)
	properties.Property("render leaves input intact", prop.ForAll(
		func(xs []float64) bool {
			frame := grayFrame(40, 30)
			before := bytes.Clone(frame.Pix)
			var q keypoints.Quad
			for i := range q {
				q[i] = keypoints.Point{X: xs[2*i], Y: xs[2*i+1]}
			}
			set := keypoints.NewSet()
			if err := set.Add("tin", q); err != nil {
				return false
			}
			out := r.Render(frame, set)
			return bytes.Equal(before, frame.Pix) && out.Bounds() == frame.Bounds()
		},
		gen.SliceOfN(8, coord),
	))

	properties.TestingRun(t)
}

func hasColor(img *image.RGBA, r image.Rectangle, c color.RGBA) bool {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				return true
			}
		}
	}
	return false
}
