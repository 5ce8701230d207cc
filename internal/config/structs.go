//nolint:lll
package config

// Config represents the complete configuration for the courtvis application.
// It covers the split and annotate commands and is loaded from configuration
// files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Split    SplitConfig    `mapstructure:"split" yaml:"split" json:"split"`
	Annotate AnnotateConfig `mapstructure:"annotate" yaml:"annotate" json:"annotate"`
	Overlay  OverlayConfig  `mapstructure:"overlay" yaml:"overlay" json:"overlay"`

	// Detector settings are only read when a detector is constructed.
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`

	GPU GPUConfig `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
}

// SplitConfig contains frame splitter settings.
type SplitConfig struct {
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	Format      string `mapstructure:"format" yaml:"format" json:"format"`
	JPEGQuality int    `mapstructure:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality"`
}

// AnnotateConfig contains annotation pipeline settings.
type AnnotateConfig struct {
	Interval      int    `mapstructure:"interval" yaml:"interval" json:"interval"`
	ProgressEvery int    `mapstructure:"progress_every" yaml:"progress_every" json:"progress_every"`
	MetricsAddr   string `mapstructure:"metrics_addr" yaml:"metrics_addr" json:"metrics_addr"`
}

// OverlayConfig contains drawing settings. Colors are "#RRGGBB" strings
// keyed by class name.
type OverlayConfig struct {
	LineThickness int               `mapstructure:"line_thickness" yaml:"line_thickness" json:"line_thickness"`
	FontScale     float64           `mapstructure:"font_scale" yaml:"font_scale" json:"font_scale"`
	CornerRadius  int               `mapstructure:"corner_radius" yaml:"corner_radius" json:"corner_radius"`
	Colors        map[string]string `mapstructure:"colors" yaml:"colors" json:"colors"`
	FallbackColor string            `mapstructure:"fallback_color" yaml:"fallback_color" json:"fallback_color"`
}

// DetectorConfig selects and parameterises the keypoint detector.
type DetectorConfig struct {
	Type          string   `mapstructure:"type" yaml:"type" json:"type"`
	KeypointsFile string   `mapstructure:"keypoints_file" yaml:"keypoints_file" json:"keypoints_file"`
	ModelPath     string   `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	InputSize     int      `mapstructure:"input_size" yaml:"input_size" json:"input_size"`
	Threshold     float64  `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	Classes       []string `mapstructure:"classes" yaml:"classes" json:"classes"`
	NumThreads    int      `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// GPUConfig contains GPU acceleration settings for the ONNX detector.
type GPUConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Device  int  `mapstructure:"device" yaml:"device" json:"device"`
}
