// Package semapp organizes Scanning Electron Microscope (SEM) image
// datasets: per-sample folder creation, merged multi-frame TIFF splitting,
// coordinate-based renaming and cleanup of generated files.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		"github.com/thi-mey/SEMapp"
//		"github.com/thi-mey/SEMapp/internal/logging"
//		"github.com/thi-mey/SEMapp/pkg/types"
//	)
//
//	func main() {
//		channels := []types.Channel{{Scale: "2", Detector: "BSE"}}
//		session := semapp.NewSession("/data/sem/raw", "18", channels, logging.New(false))
//
//		// Sort raw exports into per-sample folders.
//		if _, err := session.Organize(); err != nil {
//			log.Fatal(err)
//		}
//
//		// Split the wafer's merged TIFF into named defect images.
//		if _, err := session.Split(); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of five pipeline components:
//
// 1. Metadata Reader (pkg/klarf): parses inspection reports into defect records
// 2. Folder Organizer (pkg/organizer): sorts raw exports into sample folders
// 3. Image Splitter (pkg/splitter): extracts and names merged TIFF frames
// 4. Renamer (pkg/renamer): captions pre-extracted frames
// 5. Cleaner (pkg/cleaner): removes generated files, keeping the originals
//
// The pipeline is linear and operator-triggered: Organize, then Split (or
// Rename for pre-extracted exports), then optionally Clean. Each operation
// runs to completion before the next starts, and the filesystem is the only
// store.
package semapp

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/thi-mey/SEMapp/internal/fsutil"
	"github.com/thi-mey/SEMapp/pkg/cleaner"
	"github.com/thi-mey/SEMapp/pkg/klarf"
	"github.com/thi-mey/SEMapp/pkg/naming"
	"github.com/thi-mey/SEMapp/pkg/organizer"
	"github.com/thi-mey/SEMapp/pkg/renamer"
	"github.com/thi-mey/SEMapp/pkg/report"
	"github.com/thi-mey/SEMapp/pkg/splitter"
	"github.com/thi-mey/SEMapp/pkg/types"
)

// Version of the application
const Version = "1.0.0"

// Session carries the configuration of one processing run: the root
// directory holding the sample folders, the selected wafer and the ordered
// channel list. It replaces ambient state; every operation reads from it.
type Session struct {
	Root     string
	Wafer    string
	Channels []types.Channel

	// Progress, when set, receives split progress per written frame.
	Progress func(done, total int)

	log zerolog.Logger
}

// NewSession creates a Session rooted at root for the given wafer.
func NewSession(root, wafer string, channels []types.Channel, log zerolog.Logger) *Session {
	return &Session{Root: root, Wafer: wafer, Channels: channels, log: log}
}

// WaferDir returns the sample folder of the session's wafer.
func (s *Session) WaferDir() string {
	return filepath.Join(s.Root, s.Wafer)
}

// Organize sorts the raw exports at the top level of the session root into
// per-sample folders. Per-file failures are carried in the outcomes.
func (s *Session) Organize() ([]organizer.Outcome, error) {
	return organizer.New(s.log).Organize(s.Root)
}

// records parses the inspection report of dir.
func (s *Session) records(dir string) ([]types.DefectRecord, error) {
	path, ok := klarf.FindReport(dir)
	if !ok {
		return nil, &types.MissingMetadataError{Dir: dir}
	}
	return klarf.ParseFile(path)
}

// Split splits the wafer's merged TIFF into per-frame images named from the
// report's defect records and the session channels.
func (s *Session) Split() ([]string, error) {
	dir := s.WaferDir()
	records, err := s.records(dir)
	if err != nil {
		return nil, err
	}
	sp := splitter.New(s.Channels, s.log)
	sp.Progress = s.Progress
	return sp.Split(dir, records)
}

// SplitAll splits every sample folder under the root that holds a merged
// TIFF. A folder failure is recorded and does not abort the remaining
// folders.
func (s *Session) SplitAll() (map[string]error, error) {
	return s.forEachSample(func(dir string) error {
		if !fsutil.FileExists(filepath.Join(dir, naming.MergedName)) {
			s.log.Debug().Str("dir", dir).Msg("no merged TIFF, skipped")
			return nil
		}
		records, err := s.records(dir)
		if err != nil {
			return err
		}
		sp := splitter.New(s.Channels, s.log)
		sp.Progress = s.Progress
		_, err = sp.Split(dir, records)
		return err
	})
}

// Rename captions the wafer's pre-extracted frames from the report's
// defect records.
func (s *Session) Rename() ([]renamer.Outcome, error) {
	return renamer.New(s.Channels, s.log).Rename(s.WaferDir())
}

// RenameAll captions pre-extracted frames in every sample folder under the
// root. A folder failure is recorded and does not abort the remaining
// folders.
func (s *Session) RenameAll() (map[string]error, error) {
	r := renamer.New(s.Channels, s.log)
	return s.forEachSample(func(dir string) error {
		_, err := r.Rename(dir)
		return err
	})
}

// Clean deletes the generated per-frame images of the wafer folder,
// preserving the merged TIFF and the report.
func (s *Session) Clean() ([]string, error) {
	return cleaner.New(s.log).Clean(s.WaferDir())
}

// CleanAll cleans every sample folder under the root.
func (s *Session) CleanAll() (map[string]error, error) {
	c := cleaner.New(s.log)
	return s.forEachSample(func(dir string) error {
		_, err := c.Clean(dir)
		return err
	})
}

// NormalizeFolders renames zero-padded wafer folders under the root to
// their numeric form.
func (s *Session) NormalizeFolders() error {
	return cleaner.New(s.log).NormalizeFolders(s.Root)
}

// ExportSummary writes the wafer's defect summary workbook to path.
func (s *Session) ExportSummary(path string) error {
	records, err := s.records(s.WaferDir())
	if err != nil {
		return err
	}
	return report.Export(path, s.Wafer, records, s.Channels)
}

// forEachSample runs fn on every sample folder under the root and collects
// per-folder failures.
func (s *Session) forEachSample(fn func(dir string) error) (map[string]error, error) {
	dirs, err := fsutil.SubDirs(s.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to list sample folders: %w", err)
	}
	failures := make(map[string]error)
	for _, name := range dirs {
		dir := filepath.Join(s.Root, name)
		if err := fn(dir); err != nil {
			s.log.Error().Str("dir", dir).Err(err).Msg("sample folder failed")
			failures[name] = err
		}
	}
	return failures, nil
}
