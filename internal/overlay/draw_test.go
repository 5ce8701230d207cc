package overlay

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var red = color.RGBA{R: 255, A: 255}

func TestClipSegment(t *testing.T) {
	r := image.Rect(0, 0, 10, 10)

	ax, ay, bx, by, ok := clipSegment(-5, 5, 15, 5, r)
	assert.True(t, ok)
	assert.InDelta(t, 0, ax, 1e-9)
	assert.InDelta(t, 5, ay, 1e-9)
	assert.InDelta(t, 9, bx, 1e-9)
	assert.InDelta(t, 5, by, 1e-9)

	_, _, _, _, ok = clipSegment(-5, -5, -1, -1, r)
	assert.False(t, ok)

	_, _, _, _, ok = clipSegment(20, 0, 20, 9, r)
	assert.False(t, ok)
}

func TestDrawLineHorizontal(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	drawLine(dst, [2]float64{1, 4}, [2]float64{8, 4}, red, 1)
	for x := 1; x <= 8; x++ {
		assert.Equal(t, red, dst.RGBAAt(x, 4), "x=%d", x)
	}
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(0, 4))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(4, 3))
}

func TestDrawLineThick(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	drawLine(dst, [2]float64{2, 5}, [2]float64{7, 5}, red, 2)
	assert.Equal(t, red, dst.RGBAAt(4, 4))
	assert.Equal(t, red, dst.RGBAAt(4, 6))
}

func TestDrawLineOutOfRange(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.NotPanics(t, func() {
		drawLine(dst, [2]float64{-1e12, -1e12}, [2]float64{1e12, 1e12}, red, 3)
		drawLine(dst, [2]float64{math.NaN(), 0}, [2]float64{5, 5}, red, 1)
		drawLine(dst, [2]float64{math.Inf(1), 0}, [2]float64{5, 5}, red, 1)
	})
	assert.Equal(t, red, dst.RGBAAt(5, 5))
}

func TestFillCircleClipped(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.NotPanics(t, func() { fillCircle(dst, 0, 0, 3, red) })
	assert.Equal(t, red, dst.RGBAAt(0, 0))
	assert.Equal(t, red, dst.RGBAAt(3, 0))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(3, 3))
}
