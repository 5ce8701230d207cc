package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/MeKo-Tech/courtvis/internal/keypoints"
	"github.com/MeKo-Tech/courtvis/internal/onnx"
)

// DefaultClasses are the court regions a keypoint model reports, in
// output channel order.
var DefaultClasses = []string{"tin", "left-square", "right-square", "front-wall-down"}

// ModelConfig configures an ONNX keypoint model.
type ModelConfig struct {
	ModelPath  string
	InputSize  int
	Threshold  float64
	Classes    []string
	NumThreads int
	GPU        onnx.GPUConfig
}

// DefaultModelConfig returns the settings used when none are given.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		InputSize: 640,
		Threshold: 0.5,
		Classes:   append([]string(nil), DefaultClasses...),
	}
}

// Validate checks the configuration without touching the file system.
func (c ModelConfig) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model path is required")
	}
	if c.InputSize <= 0 {
		return fmt.Errorf("input size must be positive, got %d", c.InputSize)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %.2f", c.Threshold)
	}
	if len(c.Classes) == 0 {
		return errors.New("at least one class is required")
	}
	return nil
}

// runner executes the model on a prepared tensor.
type runner interface {
	Run(in onnx.Tensor) ([]float32, []int64, error)
	Close() error
}

// Model detects court regions with an ONNX keypoint network. The network
// takes a [1, 3, S, S] RGB tensor and returns [1, C, 4, 3] holding x, y and
// confidence for each corner of each class, in input pixel space.
type Model struct {
	config ModelConfig
	run    runner
	mu     sync.Mutex
}

// NewModel loads the network described by config.
func NewModel(config ModelConfig) (*Model, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", config.ModelPath)
	}
	slog.Debug("Initializing keypoint model",
		"model_path", config.ModelPath,
		"input_size", config.InputSize,
		"classes", config.Classes,
		"gpu_enabled", config.GPU.UseGPU)

	if err := onnx.Initialize(config.GPU.UseGPU); err != nil {
		return nil, err
	}
	session, err := onnx.NewSession(config.ModelPath, config.NumThreads, config.GPU)
	if err != nil {
		return nil, err
	}
	return &Model{config: config, run: session}, nil
}

// Detect runs the network on frame.
func (m *Model) Detect(frame image.Image) (keypoints.Set, error) {
	if frame == nil {
		return keypoints.Set{}, errors.New("nil frame")
	}
	tensor, err := onnx.ImageTensor(frame, m.config.InputSize)
	if err != nil {
		return keypoints.Set{}, fmt.Errorf("preprocessing failed: %w", err)
	}

	m.mu.Lock()
	data, shape, err := m.run.Run(tensor)
	m.mu.Unlock()
	tensor.Release()
	if err != nil {
		return keypoints.Set{}, err
	}

	b := frame.Bounds()
	scaleX := float64(b.Dx()) / float64(m.config.InputSize)
	scaleY := float64(b.Dy()) / float64(m.config.InputSize)
	return decodeKeypoints(data, shape, m.config.Classes, m.config.Threshold, scaleX, scaleY)
}

// Close releases the session.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run == nil {
		return nil
	}
	err := m.run.Close()
	m.run = nil
	return err
}

// decodeKeypoints turns a [1, C, 4, 3] output into a set. Classes whose mean
// corner confidence is below threshold are dropped.
func decodeKeypoints(data []float32, shape []int64, classes []string, threshold, scaleX, scaleY float64) (keypoints.Set, error) {
	if len(shape) != 4 || shape[0] != 1 || shape[2] != 4 || shape[3] != 3 {
		return keypoints.Set{}, fmt.Errorf("unexpected output shape %v, want [1 C 4 3]", shape)
	}
	n := int(shape[1])
	if n != len(classes) {
		return keypoints.Set{}, fmt.Errorf("model reports %d classes, configured %d", n, len(classes))
	}
	if len(data) != onnx.Elements(shape) {
		return keypoints.Set{}, fmt.Errorf("output length %d does not match shape %v", len(data), shape)
	}

	var set keypoints.Set
	for c := 0; c < n; c++ {
		var q keypoints.Quad
		conf := 0.0
		for k := 0; k < 4; k++ {
			off := (c*4 + k) * 3
			q[k] = keypoints.Point{X: float64(data[off]) * scaleX, Y: float64(data[off+1]) * scaleY}
			conf += float64(data[off+2])
		}
		if conf/4 < threshold || !q.Finite() {
			continue
		}
		if err := set.Add(classes[c], q); err != nil {
			return keypoints.Set{}, err
		}
	}
	if set.Empty() {
		return keypoints.Set{}, ErrNoDetection
	}
	return set, nil
}
