package video

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp" // register BMP decoding for sequences
	"gopkg.in/yaml.v3"
)

// ManifestName is the file written next to sequence frames to record
// stream metadata.
const ManifestName = "sequence.yaml"

// FrameName returns the file name used for frame index i.
func FrameName(i int, format string) string {
	return fmt.Sprintf("frame_%06d.%s", i, format)
}

var sequenceExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

func isSequenceFrame(name string) bool {
	return slices.Contains(sequenceExtensions, strings.ToLower(filepath.Ext(name)))
}

// SequenceOptions controls how a sequence sink writes frames.
type SequenceOptions struct {
	// Format is the still-image extension: jpg or png.
	Format string
	// JPEGQuality applies to jpg output (1-100).
	JPEGQuality int
	// Manifest enables writing ManifestName on Close.
	Manifest bool
}

// DefaultSequenceOptions returns lossless output with a manifest.
func DefaultSequenceOptions() SequenceOptions {
	return SequenceOptions{Format: "png", JPEGQuality: 95, Manifest: true}
}

// NormalizeFormat maps user input to a supported still-image extension.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "jpg", "jpeg":
		return "jpg", nil
	case "png":
		return "png", nil
	default:
		return "", fmt.Errorf("unsupported image format %q (must be jpg or png)", format)
	}
}

type manifest struct {
	Metadata `yaml:",inline"`
	Format   string `yaml:"format"`
}

// sequenceSource reads a directory of numbered still images.
type sequenceSource struct {
	dir    string
	files  []string
	meta   Metadata
	next   int
	mu     sync.Mutex
	closed bool
}

// OpenSequence opens a directory of still images as a source. With a
// manifest, the frames are exactly those it lists. Without one, every image
// in the directory is a frame, read in lexical file-name order.
func OpenSequence(dir string) (Source, error) {
	if err := CheckExists(dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newError(ErrOpen, "open", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isSequenceFrame(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}

	m, ok, err := readManifest(dir)
	if err != nil {
		return nil, newError(ErrOpen, "open", filepath.Join(dir, ManifestName), err)
	}
	if ok {
		return openManifestSequence(dir, m, files)
	}

	if len(files) == 0 {
		return nil, newError(ErrOpen, "open", dir, errors.New("no frames in sequence"))
	}
	slices.Sort(files)

	first, err := imaging.Open(files[0])
	if err != nil {
		return nil, newError(ErrOpen, "open", files[0], err)
	}
	meta := Metadata{
		Width:      first.Bounds().Dx(),
		Height:     first.Bounds().Dy(),
		FPS:        DefaultFPS,
		FrameCount: len(files),
	}
	return &sequenceSource{dir: dir, files: files, meta: meta}, nil
}

// openManifestSequence builds a source from the manifest's frame list; each
// listed frame must be present.
func openManifestSequence(dir string, m manifest, present []string) (Source, error) {
	path := filepath.Join(dir, ManifestName)
	format, err := NormalizeFormat(m.Format)
	if err != nil {
		return nil, newError(ErrOpen, "open", path, err)
	}
	if m.FrameCount < 0 || m.Width <= 0 || m.Height <= 0 {
		return nil, newError(ErrOpen, "open", path,
			fmt.Errorf("invalid manifest: %d frames of %dx%d", m.FrameCount, m.Width, m.Height))
	}
	files := make([]string, m.FrameCount)
	for i := range files {
		files[i] = filepath.Join(dir, FrameName(i, format))
		if !slices.Contains(present, files[i]) {
			return nil, newError(ErrOpen, "open", files[i], errors.New("frame listed in manifest is missing"))
		}
	}
	meta := m.Metadata
	if meta.FPS <= 0 {
		meta.FPS = DefaultFPS
	}
	return &sequenceSource{dir: dir, files: files, meta: meta}, nil
}

func readManifest(dir string) (manifest, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName)) //nolint:gosec // G304: path inside the sequence dir
	if errors.Is(err, os.ErrNotExist) {
		return manifest{}, false, nil
	}
	if err != nil {
		return manifest{}, false, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return manifest{}, false, err
	}
	return m, true, nil
}

func (s *sequenceSource) Metadata() Metadata { return s.meta }

func (s *sequenceSource) ReadFrame() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, newError(ErrRead, "read", s.dir, errors.New("source closed"))
	}
	if s.next >= len(s.files) {
		return nil, io.EOF
	}
	path := s.files[s.next]
	img, err := imaging.Open(path)
	if err != nil {
		return nil, newError(ErrRead, "read", path, err)
	}
	if b := img.Bounds(); b.Dx() != s.meta.Width || b.Dy() != s.meta.Height {
		return nil, newError(ErrRead, "read", path,
			fmt.Errorf("frame size %dx%d differs from sequence %dx%d", b.Dx(), b.Dy(), s.meta.Width, s.meta.Height))
	}
	s.next++
	return ToRGBA(img), nil
}

func (s *sequenceSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// sequenceSink writes frames as numbered still images.
type sequenceSink struct {
	dir     string
	meta    Metadata
	opts    SequenceOptions
	written int
	mu      sync.Mutex
	closed  bool
}

// CreateSequence creates dir (and parents) and returns a sink writing
// FrameName-numbered stills into it. Frames and the manifest left by an
// earlier sequence in dir are removed first.
func CreateSequence(dir string, meta Metadata, opts SequenceOptions) (Sink, error) {
	format, err := NormalizeFormat(opts.Format)
	if err != nil {
		return nil, newError(ErrOpen, "create", dir, err)
	}
	opts.Format = format
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = DefaultSequenceOptions().JPEGQuality
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, newError(ErrOpen, "create", dir, fmt.Errorf("invalid frame size %dx%d", meta.Width, meta.Height))
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, newError(ErrOpen, "create", dir, err)
	}
	if err := clearSequence(dir); err != nil {
		return nil, newError(ErrOpen, "create", dir, err)
	}
	return &sequenceSink{dir: dir, meta: meta, opts: opts}, nil
}

// clearSequence removes frame_* stills and the manifest from dir. Other
// files are left alone.
func clearSequence(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if name != ManifestName && !(strings.HasPrefix(name, "frame_") && isSequenceFrame(name)) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *sequenceSink) Metadata() Metadata { return s.meta }

func (s *sequenceSink) WriteFrame(frame *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return newError(ErrWrite, "write", s.dir, errors.New("sink closed"))
	}
	if err := CheckFrame(s.meta, frame); err != nil {
		return newError(ErrWrite, "write", s.dir, err)
	}
	path := filepath.Join(s.dir, FrameName(s.written, s.opts.Format))
	if err := imaging.Save(frame, path, imaging.JPEGQuality(s.opts.JPEGQuality)); err != nil {
		return newError(ErrWrite, "write", path, err)
	}
	s.written++
	return nil
}

func (s *sequenceSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.opts.Manifest {
		return nil
	}
	meta := s.meta
	meta.FrameCount = s.written
	if meta.FPS <= 0 {
		meta.FPS = DefaultFPS
	}
	data, err := yaml.Marshal(manifest{Metadata: meta, Format: s.opts.Format})
	if err != nil {
		return newError(ErrWrite, "close", s.dir, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, ManifestName), data, 0o600); err != nil {
		return newError(ErrWrite, "close", s.dir, err)
	}
	return nil
}
