// Package splitter writes every frame of a video as a numbered still image.
package splitter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/courtvis/internal/progress"
	"github.com/MeKo-Tech/courtvis/internal/video"
)

// DefaultFormat is the still-image format used when none is given.
const DefaultFormat = "jpg"

// Options configures a Splitter.
type Options struct {
	JPEGQuality   int
	ProgressEvery int
	Reporter      progress.Reporter
	Logger        *slog.Logger
}

// DefaultOptions returns the default splitter options.
func DefaultOptions() Options {
	return Options{
		JPEGQuality:   video.DefaultSequenceOptions().JPEGQuality,
		ProgressEvery: progress.DefaultEvery,
	}
}

// Splitter drains video sources into image directories.
type Splitter struct {
	opener video.Opener
	opts   Options
}

// New returns a splitter reading videos through opener.
func New(opener video.Opener, opts Options) *Splitter {
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = progress.DefaultEvery
	}
	return &Splitter{opener: opener, opts: opts}
}

// OutputDir returns the directory frames of videoPath are written to:
// outputDir/images/<video stem>.
func OutputDir(outputDir, videoPath string) string {
	base := filepath.Base(filepath.Clean(videoPath))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, "images", stem)
}

// Split writes each frame of videoPath as frame_NNNNNN.<format> and returns
// the directory holding them. Nothing is created when the video cannot be
// opened.
func (s *Splitter) Split(videoPath, outputDir, format string) (string, error) {
	if format == "" {
		format = DefaultFormat
	}
	format, err := video.NormalizeFormat(format)
	if err != nil {
		return "", err
	}

	src, err := s.opener.Open(videoPath)
	if err != nil {
		return "", err
	}
	meta := src.Metadata()

	dir := OutputDir(outputDir, videoPath)
	sink, err := video.CreateSequence(dir, meta, video.SequenceOptions{
		Format:      format,
		JPEGQuality: s.opts.JPEGQuality,
	})
	if err != nil {
		return "", errors.Join(err, src.Close())
	}

	s.opts.Logger.Info("Splitting video",
		"video", videoPath,
		"output", dir,
		"format", format,
		"width", meta.Width,
		"height", meta.Height,
		"frames", meta.FrameCount)

	count, runErr := s.drain(src, sink, meta.FrameCount)
	if err := errors.Join(runErr, src.Close(), sink.Close()); err != nil {
		return dir, fmt.Errorf("split %s after %d frames: %w", videoPath, count, err)
	}
	s.opts.Logger.Info("Split completed", "video", videoPath, "output", dir, "frames", count)
	return dir, nil
}

func (s *Splitter) drain(src video.Source, sink video.Sink, total int) (int, error) {
	r := s.opts.Reporter
	r.OnStart(total)
	count := 0
	for {
		frame, err := src.ReadFrame()
		if errors.Is(err, io.EOF) {
			r.OnComplete(count)
			return count, nil
		}
		if err != nil {
			r.OnError(count, err)
			return count, err
		}
		if err := sink.WriteFrame(frame); err != nil {
			r.OnError(count, err)
			return count, err
		}
		count++
		if progress.Due(count, s.opts.ProgressEvery) {
			r.OnProgress(count, total)
		}
	}
}
