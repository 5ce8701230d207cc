// Package video defines sequential frame sources and sinks and the
// backends that open them.
package video

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// DefaultFPS is used when a source carries no frame rate information.
const DefaultFPS = 30.0

// Metadata describes a video stream. It is read once from a Source and
// handed to a Sink so the output matches the input.
type Metadata struct {
	Width      int     `yaml:"width" json:"width"`
	Height     int     `yaml:"height" json:"height"`
	FPS        float64 `yaml:"fps" json:"fps"`
	FrameCount int     `yaml:"frame_count" json:"frame_count"`
}

// Bounds returns the frame rectangle anchored at the origin.
func (m Metadata) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Validate checks that the metadata can configure an encoder.
func (m Metadata) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", m.Width, m.Height)
	}
	if m.FPS <= 0 {
		return fmt.Errorf("invalid frame rate %.3f", m.FPS)
	}
	return nil
}

// Source yields frames in order. ReadFrame returns io.EOF once the stream
// is exhausted. Close may be called more than once.
type Source interface {
	Metadata() Metadata
	ReadFrame() (*image.RGBA, error)
	Close() error
}

// Sink appends frames in order. Every frame must match the configured
// size. Close flushes the output and may be called more than once.
type Sink interface {
	Metadata() Metadata
	WriteFrame(frame *image.RGBA) error
	Close() error
}

// Opener opens sources.
type Opener interface {
	Open(path string) (Source, error)
}

// Creator creates sinks, including missing parent directories.
type Creator interface {
	Create(path string, meta Metadata) (Sink, error)
}

// Backend opens sources and creates sinks.
type Backend interface {
	Opener
	Creator
}

// CheckFrame verifies that frame matches the sink's configured size.
func CheckFrame(meta Metadata, frame *image.RGBA) error {
	if frame == nil {
		return errors.New("nil frame")
	}
	b := frame.Bounds()
	if b.Dx() != meta.Width || b.Dy() != meta.Height {
		return fmt.Errorf("frame size %dx%d does not match sink %dx%d", b.Dx(), b.Dy(), meta.Width, meta.Height)
	}
	return nil
}

// ToRGBA returns img as an *image.RGBA anchored at the origin, copying
// only when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
