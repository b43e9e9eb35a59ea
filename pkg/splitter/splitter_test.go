package splitter

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/thi-mey/SEMapp/internal/imgio"
	"github.com/thi-mey/SEMapp/pkg/naming"
	"github.com/thi-mey/SEMapp/pkg/types"
)

// createFrame creates a simple test frame
func createFrame(shade uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: shade})
		}
	}
	return img
}

// writeMerged writes an n-frame merged TIFF into dir.
func writeMerged(t *testing.T, dir string, n int) {
	t.Helper()
	frames := make([]image.Image, n)
	for i := range frames {
		frames[i] = createFrame(uint8(40 * (i + 1)))
	}
	if err := imgio.WriteFrames(filepath.Join(dir, naming.MergedName), frames); err != nil {
		t.Fatal(err)
	}
}

var testRecords = []types.DefectRecord{
	{Index: 1, X: 10.2, Y: 5.1},
	{Index: 2, X: 20.0, Y: 8.3},
	{Index: 3, X: 30.5, Y: 1.2},
}

func TestSplitSingleChannel(t *testing.T) {
	dir := t.TempDir()
	writeMerged(t, dir, 3)

	channels := []types.Channel{{Scale: "2", Detector: "BSE"}}
	written, err := New(channels, zerolog.Nop()).Split(dir, testRecords)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	want := []string{
		"2_10.2_5.1_BSE.tif",
		"2_20.0_8.3_BSE.tif",
		"2_30.5_1.2_BSE.tif",
	}
	if len(written) != len(want) {
		t.Fatalf("Split wrote %d files, want %d", len(written), len(want))
	}
	for i, path := range written {
		if filepath.Base(path) != want[i] {
			t.Errorf("File %d = %s, want %s", i, filepath.Base(path), want[i])
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Written file missing: %v", err)
		}
	}

	// The merged capture must survive the split.
	if _, err := os.Stat(filepath.Join(dir, naming.MergedName)); err != nil {
		t.Errorf("Merged TIFF missing after split: %v", err)
	}
}

func TestSplitMultiChannel(t *testing.T) {
	dir := t.TempDir()
	writeMerged(t, dir, 6)

	channels := []types.Channel{
		{Scale: "2", Detector: "BSE"},
		{Scale: "2", Detector: "SE1"},
	}
	records := testRecords
	written, err := New(channels, zerolog.Nop()).Split(dir, records)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	// Frame order is defect-major: both channels of defect 1 come first.
	want := []string{
		"2_10.2_5.1_BSE.tif",
		"2_10.2_5.1_SE1.tif",
		"2_20.0_8.3_BSE.tif",
		"2_20.0_8.3_SE1.tif",
		"2_30.5_1.2_BSE.tif",
		"2_30.5_1.2_SE1.tif",
	}
	for i, path := range written {
		if filepath.Base(path) != want[i] {
			t.Errorf("File %d = %s, want %s", i, filepath.Base(path), want[i])
		}
	}
}

func TestSplitCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writeMerged(t, dir, 2)

	channels := []types.Channel{{Scale: "2", Detector: "BSE"}}
	_, err := New(channels, zerolog.Nop()).Split(dir, testRecords)

	var cerr *types.CountMismatchError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected CountMismatchError, got %v", err)
	}
	if cerr.Images != 2 || cerr.Want != 3 {
		t.Errorf("CountMismatchError = %d/%d, want 2/3", cerr.Images, cerr.Want)
	}

	// Nothing written when the precheck fails.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the merged TIFF in dir, found %d entries", len(entries))
	}
}

func TestSplitProgress(t *testing.T) {
	dir := t.TempDir()
	writeMerged(t, dir, 3)

	channels := []types.Channel{{Scale: "2", Detector: "BSE"}}
	s := New(channels, zerolog.Nop())

	var calls int
	var lastDone, lastTotal int
	s.Progress = func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	}

	if _, err := s.Split(dir, testRecords); err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Progress called %d times, want 3", calls)
	}
	if lastDone != 3 || lastTotal != 3 {
		t.Errorf("Final progress = %d/%d, want 3/3", lastDone, lastTotal)
	}
}

func TestSplitMissingMerged(t *testing.T) {
	channels := []types.Channel{{Scale: "2", Detector: "BSE"}}
	if _, err := New(channels, zerolog.Nop()).Split(t.TempDir(), testRecords); err == nil {
		t.Error("Split without a merged TIFF succeeded, want error")
	}
}
