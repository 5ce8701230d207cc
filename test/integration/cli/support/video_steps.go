package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/courtvis/internal/testutil"
	"github.com/MeKo-Tech/courtvis/internal/video"
)

// aSyntheticVideo writes an image-sequence video the CLI can read without
// OpenCV.
func (testCtx *TestContext) aSyntheticVideo(name string, frames, width, height int) error {
	dir := testCtx.Path(name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for i, f := range testutil.Frames(frames, width, height) {
		path := filepath.Join(dir, video.FrameName(i, "png"))
		if err := imaging.Save(f, path); err != nil {
			return fmt.Errorf("failed to save %s: %w", path, err)
		}
	}
	return nil
}

func (testCtx *TestContext) aFileContaining(name string, content *godog.DocString) error {
	path := testCtx.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content.Content), 0o600)
}

func (testCtx *TestContext) theDirectoryShouldContainFrames(name string, count int, format string) error {
	entries, err := os.ReadDir(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	found := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "."+format) {
			found++
		}
	}
	if found != count {
		return fmt.Errorf("expected %d %s frames in %s, found %d", count, format, name, found)
	}
	return testCtx.theFileShouldExist(filepath.Join(name, video.FrameName(count-1, format)))
}

func (testCtx *TestContext) theAnnotatedVideoShouldHaveFrames(name string, count, width, height int) error {
	src, err := video.OpenSequence(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() { _ = src.Close() }()

	meta := src.Metadata()
	if meta.FrameCount != count || meta.Width != width || meta.Height != height {
		return fmt.Errorf("expected %d frames of %dx%d, got %d frames of %dx%d",
			count, width, height, meta.FrameCount, meta.Width, meta.Height)
	}
	return nil
}

// frameShouldBeAnnotated compares the same frame of the input and output
// sequences; the overlay must have changed some pixels.
func (testCtx *TestContext) frameShouldBeAnnotated(index int, output, input string) error {
	name := video.FrameName(index, "png")
	in, err := imaging.Open(filepath.Join(testCtx.Path(input), name))
	if err != nil {
		return err
	}
	out, err := imaging.Open(filepath.Join(testCtx.Path(output), name))
	if err != nil {
		return err
	}
	if testutil.SamePixels(in, out) {
		return fmt.Errorf("frame %d of %s carries no overlay", index, output)
	}
	return nil
}

// RegisterVideoSteps registers fixture and output steps for videos.
func (testCtx *TestContext) RegisterVideoSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a synthetic video "([^"]*)" with (\d+) frames of (\d+)x(\d+)$`, testCtx.aSyntheticVideo)
	sc.Step(`^a file "([^"]*)" containing:$`, testCtx.aFileContaining)
	sc.Step(`^the directory "([^"]*)" should contain (\d+) "([^"]*)" frames$`, testCtx.theDirectoryShouldContainFrames)
	sc.Step(`^the annotated video "([^"]*)" should have (\d+) frames of (\d+)x(\d+)$`,
		testCtx.theAnnotatedVideoShouldHaveFrames)
	sc.Step(`^frame (\d+) of "([^"]*)" should differ from "([^"]*)"$`, testCtx.frameShouldBeAnnotated)
}
