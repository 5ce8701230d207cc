// Package keypoints models named court regions detected in a single frame.
package keypoints

import (
	"errors"
	"fmt"
	"math"
)

// Point represents a 2D coordinate in frame pixel space. Values may fall
// outside the frame bounds.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Quad holds the four corners of a region, in detector order.
type Quad [4]Point

// Scale returns a copy of q with every corner scaled by sx, sy.
func (q Quad) Scale(sx, sy float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// Finite reports whether every coordinate is a finite number.
func (q Quad) Finite() bool {
	for _, p := range q {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// ErrEmptyName is returned when a region is added without a class name.
var ErrEmptyName = errors.New("keypoints: empty class name")

// Set maps class names to quads and remembers insertion order. The zero
// value is an empty set ready to use.
type Set struct {
	names []string
	quads map[string]Quad
}

// NewSet returns an empty set.
func NewSet() Set { return Set{} }

// FromQuads builds a set from parallel name and quad slices.
func FromQuads(names []string, quads []Quad) (Set, error) {
	if len(names) != len(quads) {
		return Set{}, fmt.Errorf("keypoints: %d names for %d quads", len(names), len(quads))
	}
	var s Set
	for i, name := range names {
		if err := s.Add(name, quads[i]); err != nil {
			return Set{}, err
		}
	}
	return s, nil
}

// Add inserts or replaces the quad for name. Replacing keeps the original
// position in the iteration order.
func (s *Set) Add(name string, q Quad) error {
	if name == "" {
		return ErrEmptyName
	}
	if s.quads == nil {
		s.quads = make(map[string]Quad)
	}
	if _, ok := s.quads[name]; !ok {
		s.names = append(s.names, name)
	}
	s.quads[name] = q
	return nil
}

// Get returns the quad for name.
func (s Set) Get(name string) (Quad, bool) {
	q, ok := s.quads[name]
	return q, ok
}

// Len returns the number of regions.
func (s Set) Len() int { return len(s.names) }

// Empty reports whether the set has no regions.
func (s Set) Empty() bool { return len(s.names) == 0 }

// Names returns the class names in insertion order.
func (s Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Each calls fn for every region in insertion order.
func (s Set) Each(fn func(name string, q Quad)) {
	for _, name := range s.names {
		fn(name, s.quads[name])
	}
}

// Clone returns a deep copy that shares no storage with s.
func (s Set) Clone() Set {
	if s.Empty() {
		return Set{}
	}
	out := Set{
		names: append([]string(nil), s.names...),
		quads: make(map[string]Quad, len(s.quads)),
	}
	for k, v := range s.quads {
		out.quads[k] = v
	}
	return out
}

// Equal reports whether both sets hold the same regions in the same order.
func (s Set) Equal(other Set) bool {
	if len(s.names) != len(other.names) {
		return false
	}
	for i, name := range s.names {
		if other.names[i] != name || other.quads[name] != s.quads[name] {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	return fmt.Sprintf("keypoints.Set%v", s.names)
}
