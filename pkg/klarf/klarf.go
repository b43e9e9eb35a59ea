// Package klarf parses klarf-style inspection reports (.001 files) into
// ordered defect records.
//
// A report carries a handful of header fields (SampleSize, DiePitch,
// DieOrigin, SampleCenterLocation) followed by a DefectList section whose
// rows hold at least 18 numeric fields per defect. Only the first five row
// fields matter here: the defect id, the in-die X/Y offsets and the die
// column/row indices. The parser converts each row into stage coordinates
// in micrometers:
//
//	X = (f2 + f4*pitchX - centerX) / 10000
//	Y = (f3 + f5*pitchY - centerY) / 10000
//
// rounded to one decimal, matching the naming convention used for the
// per-frame images.
package klarf

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/thi-mey/SEMapp/pkg/naming"
	"github.com/thi-mey/SEMapp/pkg/types"
)

// ParseError reports a malformed or incomplete inspection report.
type ParseError struct {
	Path   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// minRowFields is the number of numeric fields a defect row must carry.
const minRowFields = 18

var (
	sampleSizeRe = regexp.MustCompile(`^SampleSize\s+1\s+(\d+)`)
	diePitchRe   = regexp.MustCompile(`^DiePitch\s+([0-9.eE+-]+)\s+([0-9.eE+-]+);`)
	dieOriginRe  = regexp.MustCompile(`^DieOrigin\s+([0-9.eE+-]+)\s+([0-9.eE+-]+);`)
	centerRe     = regexp.MustCompile(`^SampleCenterLocation\s+([0-9.eE+-]+)\s+([0-9.eE+-]+);`)
	rowStartRe   = regexp.MustCompile(`^\d+\s`)
)

// header holds the report fields that precede the defect list.
type header struct {
	SampleSize int
	PitchX     float64
	PitchY     float64
	OriginX    float64
	OriginY    float64
	CenterX    float64
	CenterY    float64
}

// ParseFile reads and parses the report at path.
func ParseFile(path string) ([]types.DefectRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse parses a report from r. name is used in error messages only.
// The whole file is scanned before any coordinate is computed, so header
// lines may appear before or after the DefectList section.
func Parse(r io.Reader, name string) ([]types.DefectRecord, error) {
	var (
		hdr        header
		havePitch  bool
		haveCenter bool
		inDefects  bool
		rows       [][]float64
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "SampleSize"):
			if m := sampleSizeRe.FindStringSubmatch(line); m != nil {
				hdr.SampleSize, _ = strconv.Atoi(m[1])
			}
		case strings.HasPrefix(line, "DiePitch"):
			if m := diePitchRe.FindStringSubmatch(line); m != nil {
				hdr.PitchX, hdr.PitchY = parsePair(m)
				havePitch = true
			}
		case strings.HasPrefix(line, "DieOrigin"):
			if m := dieOriginRe.FindStringSubmatch(line); m != nil {
				hdr.OriginX, hdr.OriginY = parsePair(m)
			}
		case strings.HasPrefix(line, "SampleCenterLocation"):
			if m := centerRe.FindStringSubmatch(line); m != nil {
				hdr.CenterX, hdr.CenterY = parsePair(m)
				haveCenter = true
			}
		case strings.HasPrefix(line, "DefectList"):
			inDefects = true
		case inDefects && rowStartRe.MatchString(line):
			fields, err := parseRow(line)
			if err != nil {
				return nil, &ParseError{Path: name, Line: lineNo, Reason: err.Error()}
			}
			rows = append(rows, fields)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	if !havePitch {
		return nil, &ParseError{Path: name, Reason: "missing DiePitch header"}
	}
	if !haveCenter {
		return nil, &ParseError{Path: name, Reason: "missing SampleCenterLocation header"}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Path: name, Reason: "no defect rows in DefectList"}
	}

	records := make([]types.DefectRecord, 0, len(rows))
	for i, fields := range rows {
		records = append(records, types.DefectRecord{
			Index: i + 1,
			X:     correct(fields[1], fields[3], hdr.PitchX, hdr.CenterX),
			Y:     correct(fields[2], fields[4], hdr.PitchY, hdr.CenterY),
		})
	}
	return records, nil
}

// parseRow splits a defect row and parses its leading numeric fields.
func parseRow(line string) ([]float64, error) {
	raw := strings.Fields(strings.TrimSuffix(line, ";"))
	if len(raw) < minRowFields {
		return nil, fmt.Errorf("defect row has %d fields, need at least %d", len(raw), minRowFields)
	}
	fields := make([]float64, 5)
	for i := range fields {
		v, err := strconv.ParseFloat(raw[i], 64)
		if err != nil {
			return nil, fmt.Errorf("defect row field %d is not numeric: %q", i+1, raw[i])
		}
		fields[i] = v
	}
	return fields, nil
}

// correct converts an in-die offset plus die index to a stage coordinate in
// micrometers, rounded to one decimal.
func correct(offset, dieIndex, pitch, center float64) float64 {
	v := (offset + dieIndex*pitch - center) / 10000
	return math.Round(v*10) / 10
}

func parsePair(m []string) (float64, float64) {
	a, _ := strconv.ParseFloat(m[1], 64)
	b, _ := strconv.ParseFloat(m[2], 64)
	return a, b
}

// FindReport returns the path of the first inspection report in dir,
// in sorted order. The second return is false when dir holds none.
func FindReport(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var reports []string
	for _, e := range entries {
		if !e.IsDir() && naming.IsReport(e.Name()) {
			reports = append(reports, e.Name())
		}
	}
	if len(reports) == 0 {
		return "", false
	}
	sort.Strings(reports)
	return filepath.Join(dir, reports[0]), true
}
