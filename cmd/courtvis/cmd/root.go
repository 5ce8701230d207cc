package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/courtvis/internal/config"
	"github.com/MeKo-Tech/courtvis/internal/video"
	"github.com/MeKo-Tech/courtvis/internal/video/cv"
	"github.com/MeKo-Tech/courtvis/internal/version"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string

	// newBackend builds the video backend used by all commands. fourcc
	// selects the codec for container outputs.
	newBackend = func(fourcc string) video.Backend {
		return video.NewRouter(cv.Backend{FourCC: fourcc})
	}
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "courtvis",
	Short: "Court keypoint annotation for match videos",
	Long: `courtvis draws detected court regions (tin, service boxes, front wall line)
onto match footage and splits videos into still frames.

Detection runs every N frames; frames in between, and frames where the
detector fails, reuse the last successful detection.

Examples:
  courtvis split --video-path match.mp4 --format png
  courtvis annotate match.mp4 annotated.mp4 --keypoints court.yaml
  courtvis annotate match.mp4 annotated.mp4 --model court.onnx --interval 5
  courtvis info match.mp4`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "courtvis version "+version.String())
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is courtvis.yaml in ., $HOME, $XDG_CONFIG_HOME/courtvis, /etc/courtvis)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("version", false, "print version information and exit")

	bindFlags(rootCmd, true, []flagBinding{
		{"verbose", "verbose"},
		{"log_level", "log-level"},
	})

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		slog.SetDefault(newLogger(globalConfig))
		return nil
	}
}

// initConfig loads .env, then the config file and environment variables.
func initConfig() error {
	if err := config.LoadDotEnv(config.DotEnvFile); err != nil {
		return err
	}
	configLoader = config.NewLoader()

	cfg, err := configLoader.LoadWithFile(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	globalConfig = cfg
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// GetConfig returns the global configuration.
func GetConfig() *config.Config {
	if globalConfig == nil {
		cfg := config.DefaultConfig()
		return &cfg
	}
	return globalConfig
}

type flagBinding struct {
	key  string
	flag string
}

// bindFlags binds flags to viper configuration keys.
func bindFlags(cmd *cobra.Command, persistent bool, bindings []flagBinding) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	for _, binding := range bindings {
		if err := viper.BindPFlag(binding.key, flags.Lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}

// describe turns pipeline and video errors into operator-facing messages.
func describe(err error, path string) error {
	if errors.Is(err, video.ErrNotFound) {
		return fmt.Errorf("video not found: %s", path)
	}
	return err
}
