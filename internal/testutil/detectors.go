package testutil

import (
	"errors"
	"image"
	"sync"

	"github.com/MeKo-Tech/courtvis/internal/keypoints"
)

// ErrStub is returned by stub detectors on failing calls.
var ErrStub = errors.New("stub detection failure")

// Quad returns an axis-aligned rectangle as a keypoint quad.
func Quad(x0, y0, x1, y1 float64) keypoints.Quad {
	return keypoints.Quad{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

// Single returns a set holding one region.
func Single(name string, q keypoints.Quad) keypoints.Set {
	s := keypoints.NewSet()
	if err := s.Add(name, q); err != nil {
		panic(err)
	}
	return s
}

// ScriptedDetector answers by call number. Respond receives the zero-based
// call index and returns the detection for that call.
type ScriptedDetector struct {
	Respond func(call int) (keypoints.Set, error)

	mu    sync.Mutex
	calls int
}

func (d *ScriptedDetector) Detect(image.Image) (keypoints.Set, error) {
	d.mu.Lock()
	call := d.calls
	d.calls++
	d.mu.Unlock()
	return d.Respond(call)
}

// Calls returns the number of Detect calls so far.
func (d *ScriptedDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// FailingDetector always returns ErrStub.
func FailingDetector() *ScriptedDetector {
	return &ScriptedDetector{Respond: func(int) (keypoints.Set, error) {
		return keypoints.Set{}, ErrStub
	}}
}

// ConstantDetector always returns set.
func ConstantDetector(set keypoints.Set) *ScriptedDetector {
	return &ScriptedDetector{Respond: func(int) (keypoints.Set, error) {
		return set.Clone(), nil
	}}
}
