// Package cleaner removes generated per-frame images from sample folders
// while preserving the merged capture and the inspection report.
package cleaner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thi-mey/SEMapp/internal/fsutil"
	"github.com/thi-mey/SEMapp/pkg/naming"
)

// Cleaner deletes the files a split or rename produced.
type Cleaner struct {
	log zerolog.Logger
}

// New creates a Cleaner logging through log.
func New(log zerolog.Logger) *Cleaner {
	return &Cleaner{log: log}
}

// removable reports whether a TIFF file in a sample folder was produced by
// the pipeline (or is a raw export) and may be deleted. The merged data.tif
// and the report never match.
func removable(name string) bool {
	if strings.EqualFold(name, naming.MergedName) {
		return false
	}
	return naming.IsGenerated(name) || naming.IsPage(name) || strings.Contains(name, "Raw")
}

// Clean deletes every generated per-frame image in dir and returns the
// names of the deleted files. Running Clean twice leaves the same end
// state as running it once.
func (c *Cleaner) Clean(dir string) ([]string, error) {
	names, err := fsutil.ListFiles(dir, func(name string) bool {
		return naming.IsTIFF(name) && removable(name)
	})
	if err != nil {
		return nil, err
	}

	deleted := make([]string, 0, len(names))
	for _, name := range names {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return deleted, err
		}
		c.log.Info().Str("file", name).Str("dir", dir).Msg("deleted")
		deleted = append(deleted, name)
	}
	return deleted, nil
}

// NormalizeFolders renames zero-padded wafer folders under root to their
// numeric form (w01 becomes 1). A name conflict skips that folder.
func (c *Cleaner) NormalizeFolders(root string) error {
	dirs, err := fsutil.SubDirs(root)
	if err != nil {
		return err
	}
	for _, name := range dirs {
		normalized, ok := naming.NormalizeWafer(name)
		if !ok {
			continue
		}
		src := filepath.Join(root, name)
		dst := filepath.Join(root, normalized)
		if fsutil.DirExists(dst) || fsutil.FileExists(dst) {
			c.log.Warn().Str("from", name).Str("to", normalized).Msg("conflict, folder rename skipped")
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			return err
		}
		c.log.Info().Str("from", name).Str("to", normalized).Msg("folder renamed")
	}
	return nil
}
