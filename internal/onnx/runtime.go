// Package onnx wires ONNX Runtime into the keypoint detector.
package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/yalue/onnxruntime_go"
)

// EnvLibraryPath overrides the ONNX Runtime shared library location.
const EnvLibraryPath = "COURTVIS_ONNXRUNTIME_LIB"

// GPUConfig selects CUDA execution.
type GPUConfig struct {
	UseGPU   bool
	DeviceID int
}

func libraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// LibraryCandidates lists the shared library locations tried, in order.
func LibraryCandidates(useGPU bool) []string {
	var out []string
	if p := os.Getenv(EnvLibraryPath); p != "" {
		out = append(out, p)
	}
	name, err := libraryName()
	if err != nil {
		return out
	}
	if useGPU {
		out = append(out, filepath.Join("/opt/onnxruntime/gpu/lib", name))
	}
	out = append(out,
		filepath.Join("/usr/local/lib", name),
		filepath.Join("/usr/lib", name),
		filepath.Join("/opt/onnxruntime/cpu/lib", name),
		filepath.Join("onnxruntime", "lib", name),
	)
	return out
}

// Initialize points onnxruntime_go at a shared library and starts the
// runtime environment once per process.
func Initialize(useGPU bool) error {
	if onnxruntime_go.IsInitialized() {
		return nil
	}
	found := false
	for _, p := range LibraryCandidates(useGPU) {
		if _, err := os.Stat(p); err == nil {
			onnxruntime_go.SetSharedLibraryPath(p)
			found = true
			break
		}
	}
	if !found {
		return errors.New("ONNX Runtime library not found; set " + EnvLibraryPath)
	}
	if err := onnxruntime_go.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}
	return nil
}

// Session runs a single-input, single-output model.
type Session struct {
	session *onnxruntime_go.DynamicAdvancedSession
}

// NewSession loads modelPath with the given thread count and GPU settings.
func NewSession(modelPath string, numThreads int, gpu GPUConfig) (*Session, error) {
	inputs, outputs, err := onnxruntime_go.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("model must have one input and one output, got %d/%d", len(inputs), len(outputs))
	}

	opts, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()

	if numThreads > 0 {
		if err := opts.SetIntraOpNumThreads(numThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}
	if gpu.UseGPU {
		if err := appendCUDA(opts, gpu); err != nil {
			return nil, err
		}
	}

	s, err := onnxruntime_go.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return &Session{session: s}, nil
}

func appendCUDA(opts *onnxruntime_go.SessionOptions, gpu GPUConfig) error {
	cuda, err := onnxruntime_go.NewCUDAProviderOptions()
	if err != nil {
		return fmt.Errorf("failed to create CUDA provider options (GPU may not be available): %w", err)
	}
	defer func() { _ = cuda.Destroy() }()
	if err := cuda.Update(map[string]string{"device_id": strconv.Itoa(gpu.DeviceID)}); err != nil {
		return fmt.Errorf("failed to update CUDA provider options: %w", err)
	}
	if err := opts.AppendExecutionProviderCUDA(cuda); err != nil {
		return fmt.Errorf("failed to append CUDA execution provider: %w", err)
	}
	return nil
}

// Run feeds in through the model and returns the output data and shape.
func (s *Session) Run(in Tensor) ([]float32, []int64, error) {
	if s.session == nil {
		return nil, nil, errors.New("session closed")
	}
	if err := in.Verify(); err != nil {
		return nil, nil, fmt.Errorf("invalid tensor: %w", err)
	}
	input, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(in.Shape...), in.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []onnxruntime_go.Value{nil}
	if err := s.session.Run([]onnxruntime_go.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() { _ = outputs[0].Destroy() }()

	out, ok := outputs[0].(*onnxruntime_go.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 tensor, got %T", outputs[0])
	}
	data := append([]float32(nil), out.GetData()...)
	return data, []int64(out.GetShape()), nil
}

// Close releases the session.
func (s *Session) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
