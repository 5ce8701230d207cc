package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "courtvis"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "COURTVIS"

	// DotEnvFile is loaded from the working directory before configuration.
	DotEnvFile = ".env"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance, which is where
// the CLI binds its flags.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader on v.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// LoadDotEnv loads environment variables from path without overriding ones
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DotEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// Load reads the first config file found on the search paths, applies
// environment overrides and defaults, and validates the result.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithFile("")
}

// LoadWithFile loads configuration from configFile, or from the search
// paths when configFile is empty.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	config, err := l.LoadWithFileWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadWithFileWithoutValidation is LoadWithFile without the final
// validation.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := restoreColorKeys(l.v.ConfigFileUsed(), &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// restoreColorKeys puts back the case of class names under overlay.colors.
// viper lowercases map keys, but class names are case-sensitive.
func restoreColorKeys(path string, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: the config file viper just read
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	var raw struct {
		Overlay struct {
			Colors map[string]string `yaml:"colors"`
		} `yaml:"overlay"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("error reading overlay colors: %w", err)
	}
	if len(raw.Overlay.Colors) == 0 {
		return nil
	}
	if config.Overlay.Colors == nil {
		config.Overlay.Colors = make(map[string]string, len(raw.Overlay.Colors))
	}
	for name := range raw.Overlay.Colors {
		delete(config.Overlay.Colors, strings.ToLower(name))
	}
	for name, hex := range raw.Overlay.Colors {
		config.Overlay.Colors[name] = hex
	}
	return nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("split.output_dir", defaults.Split.OutputDir)
	l.v.SetDefault("split.format", defaults.Split.Format)
	l.v.SetDefault("split.jpeg_quality", defaults.Split.JPEGQuality)

	l.v.SetDefault("annotate.interval", defaults.Annotate.Interval)
	l.v.SetDefault("annotate.progress_every", defaults.Annotate.ProgressEvery)
	l.v.SetDefault("annotate.metrics_addr", defaults.Annotate.MetricsAddr)

	l.v.SetDefault("overlay.line_thickness", defaults.Overlay.LineThickness)
	l.v.SetDefault("overlay.font_scale", defaults.Overlay.FontScale)
	l.v.SetDefault("overlay.corner_radius", defaults.Overlay.CornerRadius)
	l.v.SetDefault("overlay.colors", defaults.Overlay.Colors)
	l.v.SetDefault("overlay.fallback_color", defaults.Overlay.FallbackColor)

	l.v.SetDefault("detector.type", defaults.Detector.Type)
	l.v.SetDefault("detector.keypoints_file", defaults.Detector.KeypointsFile)
	l.v.SetDefault("detector.model_path", defaults.Detector.ModelPath)
	l.v.SetDefault("detector.input_size", defaults.Detector.InputSize)
	l.v.SetDefault("detector.threshold", defaults.Detector.Threshold)
	l.v.SetDefault("detector.classes", defaults.Detector.Classes)
	l.v.SetDefault("detector.num_threads", defaults.Detector.NumThreads)

	l.v.SetDefault("gpu.enabled", defaults.GPU.Enabled)
	l.v.SetDefault("gpu.device", defaults.GPU.Device)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "courtvis"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "courtvis"))
	}

	return append(paths, "/etc/courtvis")
}
