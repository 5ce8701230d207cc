package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/courtvis/internal/testutil"
	"github.com/MeKo-Tech/courtvis/internal/video"
)

func TestMain(m *testing.M) {
	// Tests only use image-sequence directories; keep OpenCV out of them.
	newBackend = func(string) video.Backend { return video.NewRouter(nil) }
	os.Exit(m.Run())
}

// resetFlags restores flag defaults; cobra keeps parsed values between
// executions of the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "courtvis", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"split", "annotate", "info"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommandHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "court regions")
}

func TestRootCommandVersion(t *testing.T) {
	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "courtvis version dev")
}

func TestInfoCommand(t *testing.T) {
	dir := testutil.WriteSequence(t, filepath.Join(t.TempDir(), "clip"), 6, 8, 6)

	out, _, err := execute(t, "info", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Resolution: 8x6")
	assert.Contains(t, out, "Frames:     6")
	assert.Contains(t, out, "FPS:        30.00")
	assert.Contains(t, out, "Duration:   200ms")
}

func TestInfoCommand_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.mp4")
	_, _, err := execute(t, "info", missing)
	require.Error(t, err)
	assert.Equal(t, "video not found: "+missing, err.Error())
}
