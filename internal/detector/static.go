package detector

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/courtvis/internal/keypoints"
)

// Static returns the same calibration for every frame. It suits fixed
// cameras whose court lines were annotated once.
type Static struct {
	set keypoints.Set
}

// NewStatic returns a detector that always reports set.
func NewStatic(set keypoints.Set) *Static {
	return &Static{set: set.Clone()}
}

// LoadStatic reads a calibration file. An empty file is rejected.
func LoadStatic(path string) (*Static, error) {
	set, err := keypoints.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load calibration: %w", err)
	}
	if set.Empty() {
		return nil, fmt.Errorf("load calibration %s: %w", path, ErrNoDetection)
	}
	return NewStatic(set), nil
}

// Detect returns a copy of the calibration.
func (s *Static) Detect(frame image.Image) (keypoints.Set, error) {
	if frame == nil {
		return keypoints.Set{}, fmt.Errorf("static detector: nil frame")
	}
	if s.set.Empty() {
		return keypoints.Set{}, ErrNoDetection
	}
	return s.set.Clone(), nil
}
