package overlay

import (
	"image"
	"image/color"
	"math"
)

// coordLimit bounds coordinates before integer conversion.
const coordLimit = 1 << 24

func clampCoord(v float64) int {
	if v > coordLimit {
		return coordLimit
	}
	if v < -coordLimit {
		return -coordLimit
	}
	return int(math.Round(v))
}

// clipSegment clips the segment a-b to r using Liang-Barsky. It reports
// false when nothing of the segment lies inside r.
func clipSegment(ax, ay, bx, by float64, r image.Rectangle) (float64, float64, float64, float64, bool) {
	minX, minY := float64(r.Min.X), float64(r.Min.Y)
	maxX, maxY := float64(r.Max.X-1), float64(r.Max.Y-1)
	dx, dy := bx-ax, by-ay
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, ax - minX},
		{dx, maxX - ax},
		{-dy, ay - minY},
		{dy, maxY - ay},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return ax + t0*dx, ay + t0*dy, ax + t1*dx, ay + t1*dy, true
}

// fillCircle paints a filled disc clipped to dst.
func fillCircle(dst *image.RGBA, cx, cy, radius int, col color.RGBA) {
	if radius < 0 {
		return
	}
	box := image.Rect(cx-radius, cy-radius, cx+radius+1, cy+radius+1).Intersect(dst.Bounds())
	r2 := radius*radius + radius
	for y := box.Min.Y; y < box.Max.Y; y++ {
		dy := y - cy
		for x := box.Min.X; x < box.Max.X; x++ {
			dx := x - cx
			if dx*dx+dy*dy <= r2 {
				dst.SetRGBA(x, y, col)
			}
		}
	}
}

// drawLine draws a segment of the given thickness clipped to dst.
func drawLine(dst *image.RGBA, a, b [2]float64, col color.RGBA, thickness int) {
	if !finite(a[0], a[1], b[0], b[1]) {
		return
	}
	pad := thickness
	clip := dst.Bounds().Inset(-pad)
	ax, ay, bx, by, ok := clipSegment(a[0], a[1], b[0], b[1], clip)
	if !ok {
		return
	}
	x0, y0 := clampCoord(ax), clampCoord(ay)
	x1, y1 := clampCoord(bx), clampCoord(by)
	half := thickness / 2

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if half == 0 {
			if (image.Point{X: x0, Y: y0}).In(dst.Bounds()) {
				dst.SetRGBA(x0, y0, col)
			}
		} else {
			fillCircle(dst, x0, y0, half, col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
