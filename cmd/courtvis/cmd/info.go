package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <video>",
	Short: "Show resolution, frame rate and frame count of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		src, err := newBackend("").Open(path)
		if err != nil {
			return describe(err, path)
		}
		defer func() {
			if err := src.Close(); err != nil {
				slog.Warn("Failed to close video", "path", path, "error", err)
			}
		}()

		meta := src.Metadata()
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "File:       %s\n", path)
		_, _ = fmt.Fprintf(out, "Resolution: %dx%d\n", meta.Width, meta.Height)
		_, _ = fmt.Fprintf(out, "FPS:        %.2f\n", meta.FPS)
		_, _ = fmt.Fprintf(out, "Frames:     %d\n", meta.FrameCount)
		if meta.FPS > 0 {
			d := time.Duration(float64(meta.FrameCount) / meta.FPS * float64(time.Second))
			_, _ = fmt.Fprintf(out, "Duration:   %v\n", d.Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
