package video

import (
	"errors"
	"image"
	"io"
	"sync"
)

// MemorySource replays frames held in memory.
type MemorySource struct {
	meta   Metadata
	frames []*image.RGBA
	next   int
	closed int
}

// NewMemorySource returns a source over frames. All frames must share the
// size of the first one.
func NewMemorySource(frames []*image.RGBA, fps float64) *MemorySource {
	meta := Metadata{FPS: fps, FrameCount: len(frames)}
	if len(frames) > 0 {
		meta.Width = frames[0].Bounds().Dx()
		meta.Height = frames[0].Bounds().Dy()
	}
	return &MemorySource{meta: meta, frames: frames}
}

func (s *MemorySource) Metadata() Metadata { return s.meta }

func (s *MemorySource) ReadFrame() (*image.RGBA, error) {
	if s.closed > 0 {
		return nil, newError(ErrRead, "read", "memory", errors.New("source closed"))
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *MemorySource) Close() error {
	s.closed++
	return nil
}

// Closes reports how many times Close was called.
func (s *MemorySource) Closes() int { return s.closed }

// MemorySink collects written frames.
type MemorySink struct {
	meta   Metadata
	frames []*image.RGBA
	closed int
	// FailAt makes the n-th write (0-based) fail when non-negative.
	FailAt int
}

// NewMemorySink returns a sink configured for meta.
func NewMemorySink(meta Metadata) *MemorySink {
	return &MemorySink{meta: meta, FailAt: -1}
}

func (s *MemorySink) Metadata() Metadata { return s.meta }

func (s *MemorySink) WriteFrame(frame *image.RGBA) error {
	if s.closed > 0 {
		return newError(ErrWrite, "write", "memory", errors.New("sink closed"))
	}
	if s.FailAt >= 0 && len(s.frames) == s.FailAt {
		return newError(ErrWrite, "write", "memory", errors.New("injected failure"))
	}
	if err := CheckFrame(s.meta, frame); err != nil {
		return newError(ErrWrite, "write", "memory", err)
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *MemorySink) Close() error {
	s.closed++
	return nil
}

// Frames returns the frames written so far.
func (s *MemorySink) Frames() []*image.RGBA { return s.frames }

// Closes reports how many times Close was called.
func (s *MemorySink) Closes() int { return s.closed }

// MemoryBackend is a Backend over named in-memory streams. It is used to
// drive pipelines without touching the file system.
type MemoryBackend struct {
	mu      sync.Mutex
	sources map[string]*MemorySource
	sinks   map[string]*MemorySink
	// CreateErr, when set, is returned by Create.
	CreateErr error
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		sources: make(map[string]*MemorySource),
		sinks:   make(map[string]*MemorySink),
	}
}

// AddSource registers src under path.
func (b *MemoryBackend) AddSource(path string, src *MemorySource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources[path] = src
}

// Open returns the source registered under path.
func (b *MemoryBackend) Open(path string) (Source, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, ok := b.sources[path]
	if !ok {
		return nil, newError(ErrNotFound, "open", path, nil)
	}
	if src.meta.Width == 0 || src.meta.Height == 0 {
		return nil, newError(ErrOpen, "open", path, errors.New("empty stream"))
	}
	return src, nil
}

// Create registers and returns a new sink under path.
func (b *MemoryBackend) Create(path string, meta Metadata) (Sink, error) {
	if b.CreateErr != nil {
		return nil, newError(ErrOpen, "create", path, b.CreateErr)
	}
	if err := meta.Validate(); err != nil {
		return nil, newError(ErrOpen, "create", path, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	sink := NewMemorySink(meta)
	b.sinks[path] = sink
	return sink, nil
}

// Sink returns the sink created under path, if any.
func (b *MemoryBackend) Sink(path string) (*MemorySink, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sinks[path]
	return s, ok
}
