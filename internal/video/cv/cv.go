// Package cv reads and writes video containers through OpenCV.
package cv

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/courtvis/internal/video"
	"gocv.io/x/gocv"
)

// DefaultFourCC is a widely supported MPEG-4 codec.
const DefaultFourCC = "mp4v"

// Backend opens container files with gocv.
type Backend struct {
	// FourCC selects the output codec. Empty means DefaultFourCC.
	FourCC string
}

// Open opens a video file for sequential reads.
func (b Backend) Open(path string) (video.Source, error) {
	if err := video.CheckExists(path); err != nil {
		return nil, err
	}
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, video.OpenError("open", path, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, video.OpenError("open", path, errors.New("decoder did not initialise"))
	}
	meta := video.Metadata{
		Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
		FPS:        capture.Get(gocv.VideoCaptureFPS),
		FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
	}
	if meta.FPS <= 0 {
		meta.FPS = video.DefaultFPS
	}
	return &source{path: path, capture: capture, mat: gocv.NewMat(), meta: meta}, nil
}

// Create opens an encoder at path, creating parent directories.
func (b Backend) Create(path string, meta video.Metadata) (video.Sink, error) {
	if err := meta.Validate(); err != nil {
		return nil, video.OpenError("create", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, video.OpenError("create", path, err)
		}
	}
	codec := b.FourCC
	if codec == "" {
		codec = DefaultFourCC
	}
	writer, err := gocv.VideoWriterFile(path, codec, meta.FPS, meta.Width, meta.Height, true)
	if err != nil {
		return nil, video.OpenError("create", path, err)
	}
	if !writer.IsOpened() {
		_ = writer.Close()
		return nil, video.OpenError("create", path,
			fmt.Errorf("encoder %s did not initialise for %dx%d@%.2f", codec, meta.Width, meta.Height, meta.FPS))
	}
	return &sink{path: path, writer: writer, meta: meta}, nil
}

type source struct {
	path    string
	capture *gocv.VideoCapture
	mat     gocv.Mat
	meta    video.Metadata
	closed  bool
}

func (s *source) Metadata() video.Metadata { return s.meta }

func (s *source) ReadFrame() (*image.RGBA, error) {
	if s.closed {
		return nil, video.ReadError(s.path, errors.New("source closed"))
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, io.EOF
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, video.ReadError(s.path, err)
	}
	return video.ToRGBA(img), nil
}

func (s *source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.mat.Close(), s.capture.Close())
}

type sink struct {
	path   string
	writer *gocv.VideoWriter
	meta   video.Metadata
	closed bool
}

func (s *sink) Metadata() video.Metadata { return s.meta }

func (s *sink) WriteFrame(frame *image.RGBA) error {
	if s.closed {
		return video.WriteError(s.path, errors.New("sink closed"))
	}
	if err := video.CheckFrame(s.meta, frame); err != nil {
		return video.WriteError(s.path, err)
	}
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return video.WriteError(s.path, err)
	}
	defer func() { _ = mat.Close() }()
	if err := s.writer.Write(mat); err != nil {
		return video.WriteError(s.path, err)
	}
	return nil
}

func (s *sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.writer.Close()
}
