package pipeline

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MeKo-Tech/courtvis/internal/detector"
	"github.com/MeKo-Tech/courtvis/internal/overlay"
	"github.com/MeKo-Tech/courtvis/internal/progress"
	"github.com/MeKo-Tech/courtvis/internal/video"
)

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg      Config
	opener   video.Opener
	creator  video.Creator
	detector detector.Detector
	reporter progress.Reporter
	logger   *slog.Logger
	metrics  *Metrics
	newID    func() string
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithBackend uses backend for both reading and writing.
func (b *Builder) WithBackend(backend video.Backend) *Builder {
	b.opener = backend
	b.creator = backend
	return b
}

// WithOpener sets where input videos are read from.
func (b *Builder) WithOpener(o video.Opener) *Builder {
	b.opener = o
	return b
}

// WithCreator sets where output videos are written.
func (b *Builder) WithCreator(c video.Creator) *Builder {
	b.creator = c
	return b
}

// WithDetector sets the keypoint detector.
func (b *Builder) WithDetector(d detector.Detector) *Builder {
	b.detector = d
	return b
}

// WithInterval sets the number of frames between detector calls.
func (b *Builder) WithInterval(n int) *Builder {
	b.cfg.Interval = n
	return b
}

// WithProgressEvery sets the number of frames between progress observations.
func (b *Builder) WithProgressEvery(n int) *Builder {
	b.cfg.ProgressEvery = n
	return b
}

// WithStyle sets the overlay style.
func (b *Builder) WithStyle(s overlay.Style) *Builder {
	b.cfg.Style = s
	return b
}

// WithProgress sets the progress reporter.
func (b *Builder) WithProgress(r progress.Reporter) *Builder {
	b.reporter = r
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithRegisterer registers the pipeline metrics with reg.
func (b *Builder) WithRegisterer(reg prometheus.Registerer) *Builder {
	b.metrics = NewMetrics(reg)
	return b
}

// WithRunIDs overrides run ID generation.
func (b *Builder) WithRunIDs(fn func() string) *Builder {
	b.newID = fn
	return b
}

// Config returns the current configuration.
func (b *Builder) Config() Config { return b.cfg }

// Build validates the configuration and returns a pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.opener == nil || b.creator == nil {
		return nil, errors.New("pipeline: video backend is required")
	}
	if b.detector == nil {
		return nil, errors.New("pipeline: detector is required")
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	renderer, err := overlay.New(b.cfg.Style)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:      b.cfg,
		opener:   b.opener,
		creator:  b.creator,
		detector: b.detector,
		renderer: renderer,
		reporter: b.reporter,
		logger:   b.logger,
		metrics:  b.metrics,
		newID:    b.newID,
	}
	if p.reporter == nil {
		p.reporter = progress.Nop{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.metrics == nil {
		p.metrics = NewMetrics(nil)
	}
	if p.newID == nil {
		p.newID = newRunID
	}
	return p, nil
}
