// Package detector defines the keypoint detection capability and its
// implementations.
package detector

import (
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/courtvis/internal/keypoints"
)

// ErrNoDetection is returned when a detector finds no region in a frame.
var ErrNoDetection = errors.New("no court regions detected")

// Detector finds court regions in a frame. Implementations may fail on
// any frame; callers decide how to recover.
type Detector interface {
	Detect(frame image.Image) (keypoints.Set, error)
}

// Func adapts an ordinary function to the Detector interface.
type Func func(frame image.Image) (keypoints.Set, error)

// Detect calls f(frame).
func (f Func) Detect(frame image.Image) (keypoints.Set, error) { return f(frame) }

// Outcome is the result of one detector call: either a keypoint set or
// the reason the call failed.
type Outcome struct {
	Keypoints keypoints.Set
	Err       error
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Run invokes d on frame and captures errors and panics in the outcome.
func Run(d Detector, frame image.Image) (out Outcome) {
	if d == nil {
		return Outcome{Err: errors.New("nil detector")}
	}
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("detector panic: %v", r)}
		}
	}()
	set, err := d.Detect(frame)
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Keypoints: set}
}
