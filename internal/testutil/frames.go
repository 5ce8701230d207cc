package testutil

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/courtvis/internal/video"
)

// Frame returns a w×h frame whose pixels encode seed, so consecutive frames
// differ.
func Frame(w, h, seed int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(seed * 17),
				G: uint8(x * 255 / max(1, w-1)),
				B: uint8(y * 255 / max(1, h-1)),
				A: 255,
			})
		}
	}
	return img
}

// Frames returns n frames from Frame with seeds 0..n-1.
func Frames(n, w, h int) []*image.RGBA {
	out := make([]*image.RGBA, n)
	for i := range out {
		out[i] = Frame(w, h, i)
	}
	return out
}

// WriteSequence creates dir and writes n lossless frames named
// frame_000000.png... into it.
func WriteSequence(t *testing.T, dir string, n, w, h int) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o750))
	for i, f := range Frames(n, w, h) {
		path := filepath.Join(dir, video.FrameName(i, "png"))
		require.NoError(t, imaging.Save(f, path), "Failed to save %s", path)
	}
	return dir
}

// SamePixels reports whether a and b have equal size and identical pixels.
func SamePixels(a, b image.Image) bool {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return false
	}
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			r1, g1, b1, a1 := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			r2, g2, b2, a2 := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}
