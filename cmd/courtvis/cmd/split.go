package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/courtvis/internal/progress"
	"github.com/MeKo-Tech/courtvis/internal/splitter"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split a video into numbered still images",
	Long: `Write every frame of a video as frame_000000.<format>, frame_000001.<format>, ...
into <output-path>/images/<video name>/.

Examples:
  courtvis split --video-path match.mp4
  courtvis split --video-path match.mp4 --output-path frames --format png`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		videoPath, _ := cmd.Flags().GetString("video-path")

		opts := cfg.SplitterOptions()
		opts.Reporter = progress.NewConsole(cmd.ErrOrStderr(), "Saved")

		dir, err := splitter.New(newBackend(""), opts).Split(videoPath, cfg.Split.OutputDir, cfg.Split.Format)
		if err != nil {
			return describe(err, videoPath)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Frames written to %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().String("video-path", "", "input video file or image-sequence directory")
	splitCmd.Flags().String("output-path", "data/output", "base output directory")
	splitCmd.Flags().String("format", splitter.DefaultFormat, "image format (jpg, png)")
	_ = splitCmd.MarkFlagRequired("video-path")

	bindFlags(splitCmd, false, []flagBinding{
		{"split.output_dir", "output-path"},
		{"split.format", "format"},
	})
}
