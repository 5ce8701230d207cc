package config

import (
	"fmt"
	"image/color"
	"slices"
	"strings"

	"github.com/MeKo-Tech/courtvis/internal/detector"
	"github.com/MeKo-Tech/courtvis/internal/onnx"
	"github.com/MeKo-Tech/courtvis/internal/overlay"
	"github.com/MeKo-Tech/courtvis/internal/pipeline"
	"github.com/MeKo-Tech/courtvis/internal/progress"
	"github.com/MeKo-Tech/courtvis/internal/splitter"
	"github.com/MeKo-Tech/courtvis/internal/video"
)

// Detector types.
const (
	DetectorStatic = "static"
	DetectorONNX   = "onnx"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	style := overlay.DefaultStyle()
	colors := make(map[string]string, len(style.Colors))
	for name, c := range style.Colors {
		colors[name] = hexColor(c)
	}
	model := detector.DefaultModelConfig()

	return Config{
		LogLevel: "info",
		Split: SplitConfig{
			OutputDir:   "data/output",
			Format:      splitter.DefaultFormat,
			JPEGQuality: video.DefaultSequenceOptions().JPEGQuality,
		},
		Annotate: AnnotateConfig{
			Interval:      1,
			ProgressEvery: progress.DefaultEvery,
		},
		Overlay: OverlayConfig{
			LineThickness: style.LineThickness,
			FontScale:     style.FontScale,
			CornerRadius:  style.CornerRadius,
			Colors:        colors,
			FallbackColor: hexColor(style.Fallback),
		},
		Detector: DetectorConfig{
			Type:      DetectorStatic,
			InputSize: model.InputSize,
			Threshold: model.Threshold,
			Classes:   model.Classes,
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if _, err := video.NormalizeFormat(c.Split.Format); err != nil {
		return fmt.Errorf("invalid split format: %w", err)
	}
	if c.Split.JPEGQuality < 1 || c.Split.JPEGQuality > 100 {
		return fmt.Errorf("invalid jpeg quality: %d (must be between 1 and 100)", c.Split.JPEGQuality)
	}

	if _, err := c.PipelineConfig(); err != nil {
		return err
	}

	switch c.Detector.Type {
	case DetectorStatic, DetectorONNX:
	default:
		return fmt.Errorf("invalid detector type: %s (must be one of: %s, %s)", c.Detector.Type, DetectorStatic, DetectorONNX)
	}
	if c.Detector.Threshold < 0 || c.Detector.Threshold > 1 {
		return fmt.Errorf("invalid detector threshold: %.2f (must be between 0.0 and 1.0)", c.Detector.Threshold)
	}
	if c.Detector.InputSize <= 0 {
		return fmt.Errorf("invalid detector input size: %d (must be positive)", c.Detector.InputSize)
	}
	if c.GPU.Device < 0 {
		return fmt.Errorf("invalid GPU device: %d", c.GPU.Device)
	}
	return nil
}

// OverlayStyle converts the overlay section into a renderer style.
func (c *Config) OverlayStyle() (overlay.Style, error) {
	style := overlay.Style{
		Colors:        make(map[string]color.RGBA, len(c.Overlay.Colors)),
		LineThickness: c.Overlay.LineThickness,
		FontScale:     c.Overlay.FontScale,
		CornerRadius:  c.Overlay.CornerRadius,
	}
	for name, hex := range c.Overlay.Colors {
		col, err := overlay.ParseHexColor(hex)
		if err != nil {
			return overlay.Style{}, fmt.Errorf("invalid color for %s: %w", name, err)
		}
		style.Colors[name] = col
	}
	fallback, err := overlay.ParseHexColor(c.Overlay.FallbackColor)
	if err != nil {
		return overlay.Style{}, fmt.Errorf("invalid fallback color: %w", err)
	}
	style.Fallback = fallback
	if err := style.Validate(); err != nil {
		return overlay.Style{}, fmt.Errorf("invalid overlay: %w", err)
	}
	return style, nil
}

// PipelineConfig converts the annotate and overlay sections.
func (c *Config) PipelineConfig() (pipeline.Config, error) {
	style, err := c.OverlayStyle()
	if err != nil {
		return pipeline.Config{}, err
	}
	cfg := pipeline.Config{
		Interval:      c.Annotate.Interval,
		ProgressEvery: c.Annotate.ProgressEvery,
		Style:         style,
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("invalid annotate settings: %w", err)
	}
	return cfg, nil
}

// ModelConfig converts the detector and GPU sections for the ONNX detector.
func (c *Config) ModelConfig() detector.ModelConfig {
	cfg := detector.ModelConfig{
		ModelPath:  c.Detector.ModelPath,
		InputSize:  c.Detector.InputSize,
		Threshold:  c.Detector.Threshold,
		Classes:    c.Detector.Classes,
		NumThreads: c.Detector.NumThreads,
		GPU: onnx.GPUConfig{
			UseGPU:   c.GPU.Enabled,
			DeviceID: c.GPU.Device,
		},
	}
	if len(cfg.Classes) == 0 {
		cfg.Classes = detector.DefaultModelConfig().Classes
	}
	return cfg
}

// SplitterOptions converts the split section.
func (c *Config) SplitterOptions() splitter.Options {
	opts := splitter.DefaultOptions()
	opts.JPEGQuality = c.Split.JPEGQuality
	opts.ProgressEvery = c.Annotate.ProgressEvery
	return opts
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
