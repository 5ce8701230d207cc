// Package schedule decides per frame whether to run the detector or reuse
// the last successful detection.
package schedule

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/courtvis/internal/detector"
	"github.com/MeKo-Tech/courtvis/internal/keypoints"
)

// Action records what the scheduler did for a frame.
type Action int

const (
	// Skipped means the frame was off-interval and reused the cache.
	Skipped Action = iota
	// Detected means the detector ran and its result replaced the cache.
	Detected
	// Failed means the detector ran, failed, and the cache was reused.
	Failed
)

func (a Action) String() string {
	switch a {
	case Skipped:
		return "skipped"
	case Detected:
		return "success"
	case Failed:
		return "failure"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// State is the carry-forward detection cache. It changes only when a
// detection succeeds.
type State struct {
	// Keypoints is the most recent successful detection, empty until the
	// first success.
	Keypoints keypoints.Set
	// ComputedAt is the frame index of that detection, or -1.
	ComputedAt int
}

// Age returns how many frames ago the cached keypoints were computed, or
// index+1 when nothing has been detected yet.
func (s State) Age(index int) int {
	if s.ComputedAt < 0 {
		return index + 1
	}
	return index - s.ComputedAt
}

// Step is the scheduler's answer for one frame.
type Step struct {
	Keypoints keypoints.Set
	Action    Action
	// Err holds the suppressed detector error when Action is Failed.
	Err     error
	Elapsed time.Duration
}

// Scheduler amortises detector cost over an interval of frames and absorbs
// detector failures. One Scheduler serves one pipeline run and is not safe
// for concurrent use.
type Scheduler struct {
	detector detector.Detector
	interval int
	state    State
	logger   *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for suppressed detector failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a scheduler running d on every interval-th frame. An interval
// of 1 detects on every frame.
func New(d detector.Detector, interval int, opts ...Option) (*Scheduler, error) {
	if d == nil {
		return nil, fmt.Errorf("schedule: nil detector")
	}
	if interval < 1 {
		return nil, fmt.Errorf("schedule: interval must be >= 1, got %d", interval)
	}
	s := &Scheduler{
		detector: d,
		interval: interval,
		state:    State{ComputedAt: -1},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Interval returns the detection interval.
func (s *Scheduler) Interval() int { return s.interval }

// State returns the current cache.
func (s *Scheduler) State() State { return s.state }

// Due reports whether the detector runs on frame index.
func (s *Scheduler) Due(index int) bool { return index%s.interval == 0 }

// Next returns the keypoints to draw on frame index. Detector failures are
// never returned; the previous keypoints are used instead.
func (s *Scheduler) Next(index int, frame image.Image) Step {
	if !s.Due(index) {
		return Step{Keypoints: s.state.Keypoints, Action: Skipped}
	}

	start := time.Now()
	out := detector.Run(s.detector, frame)
	elapsed := time.Since(start)

	if !out.OK() {
		s.logger.Debug("Detection failed, reusing previous keypoints",
			"frame", index,
			"last_detection", s.state.ComputedAt,
			"regions", s.state.Keypoints.Len(),
			"error", out.Err)
		return Step{Keypoints: s.state.Keypoints, Action: Failed, Err: out.Err, Elapsed: elapsed}
	}

	// The cache keeps its own copy so the detector cannot alter it later.
	s.state = State{Keypoints: out.Keypoints.Clone(), ComputedAt: index}
	return Step{Keypoints: s.state.Keypoints, Action: Detected, Elapsed: elapsed}
}
