package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDue(t *testing.T) {
	assert.False(t, Due(0, 100))
	assert.False(t, Due(99, 100))
	assert.True(t, Due(100, 100))
	assert.True(t, Due(300, 100))
	assert.True(t, Due(100, 0), "non-positive interval falls back to the default")
	assert.True(t, Due(3, 3))
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "Saved")
	clock := time.Unix(0, 0)
	c.now = func() time.Time { return clock }

	c.OnStart(250)
	clock = clock.Add(2 * time.Second)
	c.OnProgress(100, 250)
	c.OnComplete(250)
	c.OnError(7, errors.New("disk full"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  Saved 100/250 frames (50.0 fps)", lines[0])
	assert.Equal(t, "Done: Saved 250 frames in 2s", lines[1])
	assert.Equal(t, "Error at frame 7: disk full", lines[2])
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	l := NewLog(logger, slog.LevelInfo, "annotate")

	l.OnStart(10)
	l.OnProgress(5, 10)
	l.OnComplete(10)

	dec := json.NewDecoder(&buf)
	var msgs []string
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		msgs = append(msgs, rec["msg"].(string))
		if rec["msg"] == "annotate progress" {
			assert.Equal(t, "50.0", rec["percent"])
		}
	}
	assert.Equal(t, []string{"annotate started", "annotate progress", "annotate completed"}, msgs)
}

type recorder struct{ events []string }

func (r *recorder) OnStart(int)         { r.events = append(r.events, "start") }
func (r *recorder) OnProgress(int, int) { r.events = append(r.events, "progress") }
func (r *recorder) OnComplete(int)      { r.events = append(r.events, "complete") }
func (r *recorder) OnError(int, error)  { r.events = append(r.events, "error") }

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, b, Nop{}}
	m.OnStart(1)
	m.OnProgress(1, 1)
	m.OnError(1, errors.New("x"))
	m.OnComplete(1)

	want := []string{"start", "progress", "error", "complete"}
	assert.Equal(t, want, a.events)
	assert.Equal(t, want, b.events)
}
