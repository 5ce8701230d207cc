// Package progress reports frame-processing progress to consoles and logs.
package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DefaultEvery is how many frames pass between progress observations.
const DefaultEvery = 100

// Reporter receives progress observations. total is the frame count
// announced by the source and may be zero when unknown.
type Reporter interface {
	// OnStart is called once before the first frame.
	OnStart(total int)
	// OnProgress is called every N processed frames.
	OnProgress(current, total int)
	// OnComplete is called with the final frame count.
	OnComplete(count int)
	// OnError is called when processing stops on an error.
	OnError(current int, err error)
}

// Nop discards all observations.
type Nop struct{}

func (Nop) OnStart(int)         {}
func (Nop) OnProgress(int, int) {}
func (Nop) OnComplete(int)      {}
func (Nop) OnError(int, error)  {}

// Due reports whether frame count current should trigger an observation.
func Due(current, every int) bool {
	if every <= 0 {
		every = DefaultEvery
	}
	return current > 0 && current%every == 0
}

// Console prints one line per observation.
type Console struct {
	w     io.Writer
	verb  string
	start time.Time
	mu    sync.Mutex
	now   func() time.Time
}

// NewConsole returns a reporter writing lines like "Processed 100/250 frames".
// verb names the action, e.g. "Processed" or "Saved".
func NewConsole(w io.Writer, verb string) *Console {
	if w == nil {
		w = os.Stderr
	}
	return &Console{w: w, verb: verb, now: time.Now}
}

func (c *Console) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = c.now()
}

func (c *Console) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	line := fmt.Sprintf("  %s %d/%d frames", c.verb, current, total)
	if elapsed := c.now().Sub(c.start); elapsed > 0 {
		line += fmt.Sprintf(" (%.1f fps)", float64(current)/elapsed.Seconds())
	}
	_, _ = fmt.Fprintln(c.w, line)
}

func (c *Console) OnComplete(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elapsed := c.now().Sub(c.start)
	_, _ = fmt.Fprintf(c.w, "Done: %s %d frames in %v\n", c.verb, count, elapsed.Round(time.Millisecond))
}

func (c *Console) OnError(current int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, "Error at frame %d: %v\n", current, err)
}

// Log reports through slog.
type Log struct {
	logger *slog.Logger
	level  slog.Level
	msg    string
	start  time.Time
}

// NewLog returns a reporter logging at level with message prefix msg.
func NewLog(logger *slog.Logger, level slog.Level, msg string) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger, level: level, msg: msg}
}

func (l *Log) OnStart(total int) {
	l.start = time.Now()
	l.logger.Log(context.Background(), l.level, l.msg+" started", "total", total)
}

func (l *Log) OnProgress(current, total int) {
	attrs := []any{"current", current, "total", total, "elapsed", time.Since(l.start).Round(time.Millisecond)}
	if total > 0 {
		attrs = append(attrs, "percent", fmt.Sprintf("%.1f", float64(current)/float64(total)*100))
	}
	l.logger.Log(context.Background(), l.level, l.msg+" progress", attrs...)
}

func (l *Log) OnComplete(count int) {
	l.logger.Log(context.Background(), l.level, l.msg+" completed",
		"frames", count, "elapsed", time.Since(l.start).Round(time.Millisecond))
}

func (l *Log) OnError(current int, err error) {
	l.logger.Log(context.Background(), slog.LevelError, l.msg+" failed", "frame", current, "error", err)
}

// Multi fans observations out to several reporters.
type Multi []Reporter

func (m Multi) OnStart(total int) {
	for _, r := range m {
		r.OnStart(total)
	}
}

func (m Multi) OnProgress(current, total int) {
	for _, r := range m {
		r.OnProgress(current, total)
	}
}

func (m Multi) OnComplete(count int) {
	for _, r := range m {
		r.OnComplete(count)
	}
}

func (m Multi) OnError(current int, err error) {
	for _, r := range m {
		r.OnError(current, err)
	}
}
