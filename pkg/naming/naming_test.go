package naming

import (
	"testing"

	"github.com/thi-mey/SEMapp/pkg/types"
)

func TestFilename(t *testing.T) {
	ch := types.Channel{Scale: "2", Detector: "BSE"}
	rec := types.DefectRecord{Index: 1, X: 10.2, Y: 5.1}

	if got := Filename(ch, rec); got != "2_10.2_5.1_BSE.tif" {
		t.Errorf("Filename = %q, want 2_10.2_5.1_BSE.tif", got)
	}
}

func TestFilenameWholeCoordinate(t *testing.T) {
	// Whole values keep one decimal, matching the report parser precision.
	ch := types.Channel{Scale: "5", Detector: "SE1"}
	rec := types.DefectRecord{Index: 2, X: 8.0, Y: -3.5}

	if got := Filename(ch, rec); got != "5_8.0_-3.5_SE1.tif" {
		t.Errorf("Filename = %q, want 5_8.0_-3.5_SE1.tif", got)
	}
}

func TestFormatCoord(t *testing.T) {
	if got := FormatCoord(20.0); got != "20.0" {
		t.Errorf("FormatCoord(20.0) = %q, want 20.0", got)
	}
	if got := FormatCoord(-1.2); got != "-1.2" {
		t.Errorf("FormatCoord(-1.2) = %q, want -1.2", got)
	}
}

func TestIsGenerated(t *testing.T) {
	generated := []string{
		"2_10.2_5.1_BSE.tif",
		"2_-10.2_5.1_SE1.tiff",
		"5x5_8.0_-3.5_SE2.tif",
	}
	for _, name := range generated {
		if !IsGenerated(name) {
			t.Errorf("IsGenerated(%q) = false, want true", name)
		}
	}

	other := []string{
		"data.tif",
		"data_page_3.tiff",
		"LOTA42_18.tif",
		"Wafer_2_Class_1_Internal.tiff",
		"2_10.2_5.1_BSE.png",
	}
	for _, name := range other {
		if IsGenerated(name) {
			t.Errorf("IsGenerated(%q) = true, want false", name)
		}
	}
}

func TestIsPage(t *testing.T) {
	if !IsPage("data_page_1.tiff") {
		t.Error("IsPage(data_page_1.tiff) = false, want true")
	}
	if IsPage("data.tif") {
		t.Error("IsPage(data.tif) = true, want false")
	}
}

func TestSampleKey(t *testing.T) {
	key, ok := SampleKey("LOTA42_18.tif")
	if !ok || key != "18" {
		t.Errorf("SampleKey(LOTA42_18.tif) = %q, %v; want 18, true", key, ok)
	}

	key, ok = SampleKey("LOTA42_w03.001")
	if !ok || key != "w03" {
		t.Errorf("SampleKey(LOTA42_w03.001) = %q, %v; want w03, true", key, ok)
	}

	if _, ok := SampleKey("data.tif"); ok {
		t.Error("SampleKey(data.tif) succeeded, want failure (no suffix)")
	}
	if _, ok := SampleKey("trailing_.tif"); ok {
		t.Error("SampleKey(trailing_.tif) succeeded, want failure (empty suffix)")
	}
}

func TestDetectorTag(t *testing.T) {
	tag, ok := DetectorTag("Wafer_2_Class_1_Internal.tiff")
	if !ok || tag != "BSE" {
		t.Errorf("DetectorTag(Internal) = %q, %v; want BSE, true", tag, ok)
	}

	tag, ok = DetectorTag("Wafer_2_Class_1_Topography2.tiff")
	if !ok || tag != "SE2" {
		t.Errorf("DetectorTag(Topography2) = %q, %v; want SE2, true", tag, ok)
	}

	if _, ok := DetectorTag("data.tif"); ok {
		t.Error("DetectorTag(data.tif) succeeded, want failure")
	}
}

func TestNormalizeWafer(t *testing.T) {
	name, ok := NormalizeWafer("w01")
	if !ok || name != "1" {
		t.Errorf("NormalizeWafer(w01) = %q, %v; want 1, true", name, ok)
	}

	name, ok = NormalizeWafer("w18")
	if !ok || name != "18" {
		t.Errorf("NormalizeWafer(w18) = %q, %v; want 18, true", name, ok)
	}

	if _, ok := NormalizeWafer("18"); ok {
		t.Error("NormalizeWafer(18) succeeded, want failure")
	}
	if _, ok := NormalizeWafer("wafer"); ok {
		t.Error("NormalizeWafer(wafer) succeeded, want failure")
	}
}
