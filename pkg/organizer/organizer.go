// Package organizer sorts raw microscope exports into per-sample folders.
//
// A raw session folder holds merged TIFF captures and inspection reports
// named with a shared sample suffix (LOTA42_18.tif, LOTA42_18.001). The
// organizer derives the sample identifier from that suffix, creates one
// subfolder per sample, renames the merged TIFF to the canonical data.tif
// and moves the report in unchanged. Failures are per-pair: an ambiguous
// pairing or a destination collision skips that pair and records the
// reason, the rest of the run continues.
package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/thi-mey/SEMapp/internal/fsutil"
	"github.com/thi-mey/SEMapp/pkg/naming"
)

// OrganizeError reports a file that could not be organized: an ambiguous
// sample pairing, a destination collision, or a name without a usable
// sample suffix.
type OrganizeError struct {
	File   string
	Sample string
	Reason string
}

func (e *OrganizeError) Error() string {
	if e.Sample != "" {
		return fmt.Sprintf("%s (sample %s): %s", e.File, e.Sample, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// Outcome records what happened to one input file.
type Outcome struct {
	File string // base name of the input file
	Dest string // destination path, empty when skipped
	Err  error  // nil on success
}

// Organizer moves merged TIFF / report pairs into sample folders.
type Organizer struct {
	log zerolog.Logger
}

// New creates an Organizer logging through log.
func New(log zerolog.Logger) *Organizer {
	return &Organizer{log: log}
}

// sampleGroup collects the root-level files that share one sample suffix.
type sampleGroup struct {
	tiffs   []string
	reports []string
}

// Organize processes every recognized file at the top level of root and
// returns one Outcome per file. The returned error reports only failures
// to inspect root itself; per-file problems are carried in the outcomes.
// Running Organize on an already-organized root is a no-op.
func (o *Organizer) Organize(root string) ([]Outcome, error) {
	if !fsutil.DirExists(root) {
		return nil, fmt.Errorf("directory does not exist: %s", root)
	}

	names, err := fsutil.ListFiles(root, func(name string) bool {
		return naming.IsTIFF(name) || naming.IsReport(name)
	})
	if err != nil {
		return nil, err
	}

	var outcomes []Outcome
	groups := make(map[string]*sampleGroup)

	for _, name := range names {
		sample, ok := naming.SampleKey(name)
		if !ok {
			err := &OrganizeError{File: name, Reason: "no sample suffix in filename"}
			o.log.Warn().Str("file", name).Msg("skipping file with unexpected format")
			outcomes = append(outcomes, Outcome{File: name, Err: err})
			continue
		}
		g := groups[sample]
		if g == nil {
			g = &sampleGroup{}
			groups[sample] = g
		}
		if naming.IsTIFF(name) {
			g.tiffs = append(g.tiffs, name)
		} else {
			g.reports = append(g.reports, name)
		}
	}

	samples := make([]string, 0, len(groups))
	for sample := range groups {
		samples = append(samples, sample)
	}
	sort.Strings(samples)

	for _, sample := range samples {
		outcomes = append(outcomes, o.organizeSample(root, sample, groups[sample])...)
	}
	return outcomes, nil
}

// organizeSample moves one sample's files into its subfolder.
func (o *Organizer) organizeSample(root, sample string, g *sampleGroup) []Outcome {
	var outcomes []Outcome

	// An ambiguous sample skips every one of its files, TIFFs and reports
	// alike, so the root stays untouched for the operator to sort out.
	if len(g.tiffs) > 1 || len(g.reports) > 1 {
		reason := fmt.Sprintf("ambiguous sample: %d merged TIFFs and %d reports share the suffix", len(g.tiffs), len(g.reports))
		for _, name := range append(g.tiffs, g.reports...) {
			o.log.Warn().Str("file", name).Str("sample", sample).Msg("ambiguous pairing, skipped")
			outcomes = append(outcomes, Outcome{File: name, Err: &OrganizeError{File: name, Sample: sample, Reason: reason}})
		}
		return outcomes
	}

	dir := filepath.Join(root, sample)
	if err := fsutil.EnsureDir(dir); err != nil {
		for _, name := range append(g.tiffs, g.reports...) {
			outcomes = append(outcomes, Outcome{File: name, Err: fmt.Errorf("failed to create sample folder: %w", err)})
		}
		return outcomes
	}

	for _, name := range g.tiffs {
		outcomes = append(outcomes, o.moveInto(root, dir, sample, name, naming.MergedName))
	}
	for _, name := range g.reports {
		outcomes = append(outcomes, o.moveInto(root, dir, sample, name, name))
	}
	return outcomes
}

// moveInto moves root/name to dir/destName, skipping on collision.
func (o *Organizer) moveInto(root, dir, sample, name, destName string) Outcome {
	src := filepath.Join(root, name)
	dst := filepath.Join(dir, destName)

	if _, err := os.Stat(dst); err == nil {
		oerr := &OrganizeError{File: name, Sample: sample, Reason: fmt.Sprintf("destination %s already exists", dst)}
		o.log.Warn().Str("file", name).Str("dest", dst).Msg("collision, skipped")
		return Outcome{File: name, Err: oerr}
	}

	if err := fsutil.MoveFile(src, dst); err != nil {
		return Outcome{File: name, Err: fmt.Errorf("failed to move %s: %w", name, err)}
	}
	o.log.Info().Str("file", name).Str("dest", dst).Msg("moved")
	return Outcome{File: name, Dest: dst}
}
