// Package naming defines the filename conventions shared by the organizer,
// splitter, renamer and cleaner.
//
// Generated per-frame images follow the convention FOV_X_Y_DETECTOR.tif,
// where FOV is the configured field-of-view label, X and Y are defect
// coordinates in micrometers with one decimal, and DETECTOR is the imaging
// channel label. The merged multi-frame capture is always stored as
// "data.tif" inside its sample folder, next to the inspection report.
package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/thi-mey/SEMapp/internal/fsutil"
	"github.com/thi-mey/SEMapp/pkg/types"
)

// MergedName is the canonical filename of the merged multi-frame TIFF
// inside a sample folder.
const MergedName = "data.tif"

// ReportExt is the extension of klarf-style inspection reports.
const ReportExt = ".001"

var (
	generatedPattern = regexp.MustCompile(`(?i)^[0-9][0-9a-z.]*_-?[0-9]+\.[0-9]_-?[0-9]+\.[0-9]_[a-z][a-z0-9]*\.tiff?$`)
	pagePattern      = regexp.MustCompile(`(?i)^data_page_[0-9]+\.tiff?$`)
	waferPattern     = regexp.MustCompile(`^w0*([0-9]+)$`)
)

// FormatCoord formats a defect coordinate with exactly one decimal,
// matching the precision the report parser produces (10.2, 8.0, -3.5).
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Filename builds the canonical per-frame filename for a defect record
// captured on the given channel.
func Filename(ch types.Channel, rec types.DefectRecord) string {
	return FilenameParts(ch.Scale, rec.X, rec.Y, ch.Detector)
}

// FilenameParts builds the canonical per-frame filename from its four
// components. The detector may differ from the channel default when a
// detector tag was recognized in the source filename.
func FilenameParts(scale string, x, y float64, detector string) string {
	return fmt.Sprintf("%s_%s_%s_%s.tif", scale, FormatCoord(x), FormatCoord(y), detector)
}

// IsGenerated reports whether name matches the generated per-frame
// convention (FOV_X_Y_DETECTOR.tif).
func IsGenerated(name string) bool {
	return generatedPattern.MatchString(name)
}

// IsPage reports whether name is an intermediate page file produced by
// splitting a merged TIFF (data_page_N.tiff).
func IsPage(name string) bool {
	return pagePattern.MatchString(name)
}

// IsTIFF reports whether name carries a .tif or .tiff extension.
func IsTIFF(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".tif" || ext == ".tiff"
}

// IsReport reports whether name is an inspection report file.
func IsReport(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ReportExt)
}

// SampleKey derives the sample (wafer) identifier from a raw input filename:
// the part after the last underscore of the base name. LOTA42_18.tif yields
// "18". The second return is false when the name carries no usable suffix.
func SampleKey(name string) (string, bool) {
	base := fsutil.BaseNoExt(name)
	idx := strings.LastIndex(base, "_")
	if idx < 0 || idx == len(base)-1 {
		return "", false
	}
	return base[idx+1:], true
}

// DetectorTag recognizes the detector from the tags the microscope software
// embeds in exported frame names: "_Class_1_Internal" marks a BSE capture
// and "_Class_1_Topography<k>" an SE<k> capture. The second return is false
// when no tag is present.
func DetectorTag(name string) (string, bool) {
	if strings.Contains(name, "_Class_1_Internal") {
		return "BSE", true
	}
	const topo = "_Class_1_Topography"
	if idx := strings.Index(name, topo); idx >= 0 {
		rest := name[idx+len(topo):]
		if len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
			return "SE" + rest[:1], true
		}
	}
	return "", false
}

// NormalizeWafer maps zero-padded wafer folder names to their numeric form:
// "w01" yields "1". The second return is false when name is not a
// w-prefixed wafer folder.
func NormalizeWafer(name string) (string, bool) {
	m := waferPattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}
