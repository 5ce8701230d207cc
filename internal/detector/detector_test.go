package detector

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/courtvis/internal/keypoints"
	"github.com/MeKo-Tech/courtvis/internal/onnx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinSet(t *testing.T) keypoints.Set {
	t.Helper()
	var s keypoints.Set
	require.NoError(t, s.Add("tin", keypoints.Quad{{X: 1, Y: 2}, {X: 30, Y: 2}, {X: 30, Y: 8}, {X: 1, Y: 8}}))
	return s
}

func TestRun_Success(t *testing.T) {
	want := tinSet(t)
	out := Run(Func(func(image.Image) (keypoints.Set, error) { return want, nil }), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	assert.True(t, out.OK())
	assert.True(t, want.Equal(out.Keypoints))
}

func TestRun_Error(t *testing.T) {
	boom := errors.New("blurred frame")
	out := Run(Func(func(image.Image) (keypoints.Set, error) { return keypoints.Set{}, boom }), nil)
	assert.False(t, out.OK())
	assert.ErrorIs(t, out.Err, boom)
	assert.True(t, out.Keypoints.Empty())
}

func TestRun_RecoversPanic(t *testing.T) {
	out := Run(Func(func(image.Image) (keypoints.Set, error) { panic("index out of range") }), nil)
	assert.False(t, out.OK())
	assert.Contains(t, out.Err.Error(), "index out of range")
}

func TestRun_NilDetector(t *testing.T) {
	assert.False(t, Run(nil, nil).OK())
}

func TestStatic(t *testing.T) {
	set := tinSet(t)
	d := NewStatic(set)
	frame := image.NewRGBA(image.Rect(0, 0, 10, 10))

	got, err := d.Detect(frame)
	require.NoError(t, err)
	assert.True(t, set.Equal(got))

	// callers cannot alter the calibration through a returned set
	require.NoError(t, got.Add("extra", keypoints.Quad{}))
	again, err := d.Detect(frame)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Len())

	_, err = d.Detect(nil)
	assert.Error(t, err)

	_, err = NewStatic(keypoints.Set{}).Detect(frame)
	assert.ErrorIs(t, err, ErrNoDetection)
}

func TestLoadStatic(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "court.yaml")
	require.NoError(t, os.WriteFile(good, []byte("tin: [[0, 0], [10, 0], [10, 2], [0, 2]]\n"), 0o600))
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("{}\n"), 0o600))

	d, err := LoadStatic(good)
	require.NoError(t, err)
	got, err := d.Detect(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, []string{"tin"}, got.Names())

	_, err = LoadStatic(empty)
	assert.ErrorIs(t, err, ErrNoDetection)

	_, err = LoadStatic(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestModelConfig_Validate(t *testing.T) {
	cfg := DefaultModelConfig()
	assert.Error(t, cfg.Validate(), "model path is required")

	cfg.ModelPath = "model.onnx"
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.InputSize = 0
	assert.Error(t, bad.Validate())
	bad = cfg
	bad.Threshold = 1.5
	assert.Error(t, bad.Validate())
	bad = cfg
	bad.Classes = nil
	assert.Error(t, bad.Validate())
}

func TestNewModel_MissingFile(t *testing.T) {
	cfg := DefaultModelConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.onnx")
	_, err := NewModel(cfg)
	assert.Error(t, err)
}

// corners builds one class worth of output: four (x, y, conf) triples.
func corners(conf float32, pts ...float32) []float32 {
	out := make([]float32, 0, 12)
	for i := 0; i < 4; i++ {
		out = append(out, pts[2*i], pts[2*i+1], conf)
	}
	return out
}

func TestDecodeKeypoints(t *testing.T) {
	classes := []string{"tin", "left-square"}
	data := append(corners(0.9, 10, 10, 20, 10, 20, 20, 10, 20), corners(0.2, 0, 0, 1, 0, 1, 1, 0, 1)...)

	set, err := decodeKeypoints(data, []int64{1, 2, 4, 3}, classes, 0.5, 2, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"tin"}, set.Names())
	q, _ := set.Get("tin")
	assert.Equal(t, keypoints.Point{X: 20, Y: 5}, q[0])
	assert.Equal(t, keypoints.Point{X: 40, Y: 10}, q[2])
}

func TestDecodeKeypoints_ThresholdIsInclusive(t *testing.T) {
	data := corners(0.5, 0, 0, 1, 0, 1, 1, 0, 1)
	set, err := decodeKeypoints(data, []int64{1, 1, 4, 3}, []string{"tin"}, 0.5, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}

func TestDecodeKeypoints_Errors(t *testing.T) {
	data := corners(0.1, 0, 0, 1, 0, 1, 1, 0, 1)
	_, err := decodeKeypoints(data, []int64{1, 1, 4, 3}, []string{"tin"}, 0.5, 1, 1)
	assert.ErrorIs(t, err, ErrNoDetection)

	_, err = decodeKeypoints(data, []int64{1, 1, 4, 2}, []string{"tin"}, 0.5, 1, 1)
	assert.Error(t, err)

	_, err = decodeKeypoints(data, []int64{1, 2, 4, 3}, []string{"tin"}, 0.5, 1, 1)
	assert.Error(t, err)

	_, err = decodeKeypoints(data[:6], []int64{1, 1, 4, 3}, []string{"tin"}, 0.5, 1, 1)
	assert.Error(t, err)
}

type fakeRunner struct {
	data   []float32
	shape  []int64
	err    error
	got    onnx.Tensor
	closed int
}

func (f *fakeRunner) Run(in onnx.Tensor) ([]float32, []int64, error) {
	f.got = in
	return f.data, f.shape, f.err
}

func (f *fakeRunner) Close() error {
	f.closed++
	return nil
}

func TestModel_DetectScalesToFrame(t *testing.T) {
	r := &fakeRunner{
		data:  corners(1, 0, 0, 32, 0, 32, 32, 0, 32),
		shape: []int64{1, 1, 4, 3},
	}
	cfg := DefaultModelConfig()
	cfg.InputSize = 32
	cfg.Classes = []string{"tin"}
	m := &Model{config: cfg, run: r}

	set, err := m.Detect(image.NewRGBA(image.Rect(0, 0, 64, 16)))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 32, 32}, r.got.Shape)
	q, ok := set.Get("tin")
	require.True(t, ok)
	assert.Equal(t, keypoints.Point{X: 64, Y: 16}, q[2])

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 1, r.closed)
}

func TestModel_DetectPropagatesRunError(t *testing.T) {
	cfg := DefaultModelConfig()
	cfg.InputSize = 8
	m := &Model{config: cfg, run: &fakeRunner{err: errors.New("inference failed")}}
	_, err := m.Detect(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	assert.Error(t, err)

	_, err = m.Detect(nil)
	assert.Error(t, err)
}
