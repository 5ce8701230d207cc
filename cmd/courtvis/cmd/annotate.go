package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/courtvis/internal/config"
	"github.com/MeKo-Tech/courtvis/internal/detector"
	"github.com/MeKo-Tech/courtvis/internal/pipeline"
	"github.com/MeKo-Tech/courtvis/internal/progress"
	"github.com/MeKo-Tech/courtvis/internal/video/cv"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <input> <output>",
	Short: "Draw detected court regions onto every frame of a video",
	Long: `Read <input>, detect court keypoints every --interval frames, draw them onto
every frame and write the result to <output>.

Frames between detections reuse the last successful detection. A failed
detection is not an error: the previous regions are drawn instead, so output
may show stale regions while the detector keeps failing.

Outputs ending in .mp4, .m4v, .avi, .mov or .mkv are encoded as video; any
other path is written as a directory of numbered PNG frames.

Examples:
  courtvis annotate match.mp4 out.mp4 --keypoints court.yaml
  courtvis annotate match.mp4 out.mp4 --model court.onnx --interval 5 --metrics-addr :9100`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		input, output := args[0], args[1]

		pcfg, err := cfg.PipelineConfig()
		if err != nil {
			return err
		}

		d, closeDetector, err := buildDetector(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeDetector(); err != nil {
				slog.Warn("Failed to close detector", "error", err)
			}
		}()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		stop := serveMetrics(cfg.Annotate.MetricsAddr, reg)
		defer stop()

		fourcc, _ := cmd.Flags().GetString("fourcc")
		p, err := pipeline.NewBuilder().
			WithConfig(pcfg).
			WithBackend(newBackend(fourcc)).
			WithDetector(d).
			WithProgress(progress.Multi{
				progress.NewConsole(cmd.ErrOrStderr(), "Processed"),
				progress.NewLog(slog.Default(), slog.LevelDebug, "Annotation"),
			}).
			WithLogger(slog.Default()).
			WithRegisterer(reg).
			Build()
		if err != nil {
			return err
		}

		res, err := p.Run(input, output)
		if err != nil {
			return describe(err, input)
		}
		printSummary(cmd.OutOrStdout(), res)
		return nil
	},
}

// buildDetector returns the detector selected by cfg and a function
// releasing it.
func buildDetector(cfg *config.Config) (detector.Detector, func() error, error) {
	noop := func() error { return nil }
	useModel := cfg.Detector.Type == config.DetectorONNX ||
		(cfg.Detector.ModelPath != "" && cfg.Detector.KeypointsFile == "")

	if useModel {
		m, err := detector.NewModel(cfg.ModelConfig())
		if err != nil {
			return nil, noop, fmt.Errorf("failed to load keypoint model: %w", err)
		}
		return m, m.Close, nil
	}
	if cfg.Detector.KeypointsFile == "" {
		return nil, noop, errors.New("no detector configured: pass --keypoints <file.yaml> or --model <file.onnx>")
	}
	s, err := detector.LoadStatic(cfg.Detector.KeypointsFile)
	if err != nil {
		return nil, noop, err
	}
	return s, noop, nil
}

// serveMetrics exposes reg on addr/metrics until the returned function is
// called. An empty addr disables the endpoint.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}
}

func printSummary(w io.Writer, res pipeline.Result) {
	_, _ = fmt.Fprintf(w, "Annotated %d frames -> %s\n", res.Frames, res.Output)
	_, _ = fmt.Fprintf(w, "  detections: %d, failed: %d, reused: %d\n",
		res.Detections, res.DetectionFailures, res.SkippedDetections)
	_, _ = fmt.Fprintf(w, "  run %s in %v\n", res.RunID, res.Elapsed.Round(time.Millisecond))
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().Int("interval", 1, "run the detector every N frames (1 = every frame)")
	annotateCmd.Flags().Int("progress-every", progress.DefaultEvery, "report progress every N frames")
	annotateCmd.Flags().String("keypoints", "", "YAML file with fixed court keypoints (static detector)")
	annotateCmd.Flags().String("model", "", "ONNX keypoint model (model detector)")
	annotateCmd.Flags().Float64("threshold", 0.5, "minimum mean corner confidence for model detections")
	annotateCmd.Flags().Bool("gpu", false, "enable GPU acceleration using CUDA")
	annotateCmd.Flags().Int("gpu-device", 0, "CUDA device ID to use")
	annotateCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address during the run, e.g. :9100")
	annotateCmd.Flags().String("fourcc", cv.DefaultFourCC, "codec for video container outputs")

	bindFlags(annotateCmd, false, []flagBinding{
		{"annotate.interval", "interval"},
		{"annotate.progress_every", "progress-every"},
		{"annotate.metrics_addr", "metrics-addr"},
		{"detector.keypoints_file", "keypoints"},
		{"detector.model_path", "model"},
		{"detector.threshold", "threshold"},
		{"gpu.enabled", "gpu"},
		{"gpu.device", "gpu-device"},
	})
}
