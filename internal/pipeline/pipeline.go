// Package pipeline drives the read, detect-or-reuse, render and write loop
// over one video.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MeKo-Tech/courtvis/internal/detector"
	"github.com/MeKo-Tech/courtvis/internal/overlay"
	"github.com/MeKo-Tech/courtvis/internal/progress"
	"github.com/MeKo-Tech/courtvis/internal/schedule"
	"github.com/MeKo-Tech/courtvis/internal/video"
)

// State is the lifecycle of a run.
type State int

const (
	Idle State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Stage names the step at which a run failed.
type Stage string

const (
	StageOpenSource Stage = "open-source"
	StageOpenSink   Stage = "open-sink"
	StageRead       Stage = "read"
	StageWrite      Stage = "write"
	StageClose      Stage = "close"
)

// StageError reports a fatal error together with the failing stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Config holds the per-run processing options.
type Config struct {
	// Interval is the number of frames between detector calls; 1 detects
	// on every frame.
	Interval int
	// ProgressEvery is the number of frames between progress observations.
	ProgressEvery int
	Style         overlay.Style
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Interval:      1,
		ProgressEvery: progress.DefaultEvery,
		Style:         overlay.DefaultStyle(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Interval < 1 {
		return fmt.Errorf("interval must be >= 1, got %d", c.Interval)
	}
	if c.ProgressEvery < 1 {
		return fmt.Errorf("progress interval must be >= 1, got %d", c.ProgressEvery)
	}
	return c.Style.Validate()
}

// Result summarises one run.
type Result struct {
	RunID             string        `json:"run_id"`
	State             State         `json:"state"`
	Frames            int           `json:"frames"`
	Detections        int           `json:"detections"`
	DetectionFailures int           `json:"detection_failures"`
	SkippedDetections int           `json:"skipped_detections"`
	Output            string        `json:"output"`
	Elapsed           time.Duration `json:"elapsed_ns"`
}

// Pipeline annotates videos. It runs strictly sequentially and is not safe
// for concurrent use; each Run owns a fresh detection cache.
type Pipeline struct {
	cfg      Config
	opener   video.Opener
	creator  video.Creator
	detector detector.Detector
	renderer *overlay.Renderer
	reporter progress.Reporter
	logger   *slog.Logger
	metrics  *Metrics
	newID    func() string
	state    State
}

// State returns the state of the most recent run.
func (p *Pipeline) State() State { return p.state }

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Run annotates input into output. Source and sink are closed exactly once
// whatever the outcome. Detector failures never fail the run.
func (p *Pipeline) Run(input, output string) (Result, error) {
	res := Result{RunID: p.newID(), Output: output}
	start := time.Now()
	logger := p.logger.With("run_id", res.RunID)

	sched, err := schedule.New(p.detector, p.cfg.Interval, schedule.WithLogger(logger))
	if err != nil {
		return p.finish(logger, res, start, err)
	}
	p.state = Running
	res.State = Running

	src, err := p.opener.Open(input)
	if err != nil {
		return p.finish(logger, res, start, &StageError{Stage: StageOpenSource, Err: asKind(err, func(e error) error {
			return video.OpenError("open", input, e)
		})})
	}
	meta := src.Metadata()
	logger.Info("Pipeline started",
		"input", input,
		"output", output,
		"width", meta.Width,
		"height", meta.Height,
		"fps", meta.FPS,
		"frames", meta.FrameCount,
		"interval", p.cfg.Interval)

	sink, err := p.creator.Create(output, meta)
	if err != nil {
		if cerr := src.Close(); cerr != nil {
			logger.Warn("Failed to close source", "error", cerr)
		}
		return p.finish(logger, res, start, &StageError{Stage: StageOpenSink, Err: asKind(err, func(e error) error {
			return video.OpenError("create", output, e)
		})})
	}

	runErr := p.loop(logger, sched, src, sink, output, &res)

	closeErr := errors.Join(src.Close(), sink.Close())
	if closeErr != nil {
		if runErr == nil {
			runErr = &StageError{Stage: StageClose, Err: closeErr}
		} else {
			logger.Warn("Failed to release resources after error", "error", closeErr)
		}
	}
	return p.finish(logger, res, start, runErr)
}

func (p *Pipeline) loop(logger *slog.Logger, sched *schedule.Scheduler, src video.Source, sink video.Sink, output string, res *Result) error {
	total := src.Metadata().FrameCount
	p.reporter.OnStart(total)

	for index := 0; ; index++ {
		frame, err := src.ReadFrame()
		if errors.Is(err, io.EOF) {
			p.reporter.OnComplete(index)
			return nil
		}
		if err != nil {
			p.reporter.OnError(index, err)
			return &StageError{Stage: StageRead, Err: asKind(err, func(e error) error {
				return video.ReadError("source", e)
			})}
		}

		step := sched.Next(index, frame)
		p.metrics.detections.WithLabelValues(step.Action.String()).Inc()
		switch step.Action {
		case schedule.Detected:
			res.Detections++
			p.metrics.detectionDuration.Observe(step.Elapsed.Seconds())
		case schedule.Failed:
			res.DetectionFailures++
			p.metrics.detectionDuration.Observe(step.Elapsed.Seconds())
		default:
			res.SkippedDetections++
		}

		renderStart := time.Now()
		annotated := p.renderer.Render(frame, step.Keypoints)
		p.metrics.renderDuration.Observe(time.Since(renderStart).Seconds())

		if err := sink.WriteFrame(annotated); err != nil {
			p.reporter.OnError(index, err)
			return &StageError{Stage: StageWrite, Err: asKind(err, func(e error) error {
				return video.WriteError(output, e)
			})}
		}

		res.Frames = index + 1
		p.metrics.frames.Inc()
		p.metrics.staleFrames.Set(float64(sched.State().Age(index)))
		if progress.Due(res.Frames, p.cfg.ProgressEvery) {
			p.reporter.OnProgress(res.Frames, total)
			logger.Debug("Pipeline progress", "frame", res.Frames, "total", total)
		}
	}
}

func (p *Pipeline) finish(logger *slog.Logger, res Result, start time.Time, err error) (Result, error) {
	res.Elapsed = time.Since(start)
	if err != nil {
		p.state = Failed
		res.State = Failed
		logger.Error("Pipeline failed", "frames", res.Frames, "error", err)
		return res, err
	}
	p.state = Completed
	res.State = Completed
	logger.Info("Pipeline completed",
		"frames", res.Frames,
		"detections", res.Detections,
		"detection_failures", res.DetectionFailures,
		"skipped", res.SkippedDetections,
		"elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// asKind returns err unchanged when it already carries a video error kind,
// otherwise it applies wrap.
func asKind(err error, wrap func(error) error) error {
	for _, kind := range []error{video.ErrNotFound, video.ErrOpen, video.ErrRead, video.ErrWrite} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return wrap(err)
}

func newRunID() string { return uuid.NewString() }
