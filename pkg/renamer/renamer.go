// Package renamer captions already-extracted defect images using the
// coordinates of the folder's inspection report.
//
// Some microscope exports arrive pre-split: a sample folder of .tiff frames
// without legends, next to the .001 report. The renamer lists those frames
// in sorted filesystem order and maps frame i to record i/len(channels) and
// channel i%len(channels), exactly as the splitter maps frames of a merged
// capture, so the produced names are deterministic for a fixed listing and
// record set. A detector tag embedded in the source name
// (_Class_1_Internal, _Class_1_Topography<k>) overrides the channel's
// detector label for that file.
package renamer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thi-mey/SEMapp/internal/fsutil"
	"github.com/thi-mey/SEMapp/pkg/klarf"
	"github.com/thi-mey/SEMapp/pkg/naming"
	"github.com/thi-mey/SEMapp/pkg/types"
)

// Outcome records the renaming of one source image.
type Outcome struct {
	From string
	To   string
	Err  error
}

// Renamer renames extracted frames using a fixed channel configuration.
type Renamer struct {
	channels []types.Channel
	log      zerolog.Logger
}

// New creates a Renamer for the given ordered channel list.
func New(channels []types.Channel, log zerolog.Logger) *Renamer {
	return &Renamer{channels: channels, log: log}
}

// Rename captions every uncaptioned .tiff frame in dir. The folder must
// contain an inspection report (*types.MissingMetadataError otherwise), and
// the frame count must match the records and channels
// (*types.CountMismatchError otherwise); in both cases no file is touched.
// Individual destination collisions are skipped and recorded, not fatal.
func (r *Renamer) Rename(dir string) ([]Outcome, error) {
	if len(r.channels) == 0 {
		return nil, fmt.Errorf("no channels configured")
	}
	if !fsutil.DirExists(dir) {
		return nil, fmt.Errorf("directory does not exist: %s", dir)
	}

	report, ok := klarf.FindReport(dir)
	if !ok {
		return nil, &types.MissingMetadataError{Dir: dir}
	}
	records, err := klarf.ParseFile(report)
	if err != nil {
		return nil, err
	}

	// Uncaptioned exports carry the .tiff extension; the merged data.tif
	// and already-generated .tif frames are excluded by it.
	images, err := fsutil.ListFiles(dir, func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ".tiff") && !naming.IsGenerated(name)
	})
	if err != nil {
		return nil, err
	}

	want := len(records) * len(r.channels)
	if len(images) != want {
		return nil, &types.CountMismatchError{Dir: dir, Images: len(images), Want: want}
	}

	nch := len(r.channels)
	outcomes := make([]Outcome, 0, len(images))
	for i, name := range images {
		rec := records[i/nch]
		ch := r.channels[i%nch]

		detector := ch.Detector
		if tag, ok := naming.DetectorTag(name); ok {
			detector = tag
		}

		newName := naming.FilenameParts(ch.Scale, rec.X, rec.Y, detector)
		src := filepath.Join(dir, name)
		dst := filepath.Join(dir, newName)

		if fsutil.FileExists(dst) {
			err := fmt.Errorf("destination %s already exists", newName)
			r.log.Warn().Str("from", name).Str("to", newName).Msg("collision, skipped")
			outcomes = append(outcomes, Outcome{From: name, To: newName, Err: err})
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			outcomes = append(outcomes, Outcome{From: name, To: newName, Err: fmt.Errorf("failed to rename: %w", err)})
			continue
		}
		r.log.Info().Str("from", name).Str("to", newName).Msg("renamed")
		outcomes = append(outcomes, Outcome{From: name, To: newName})
	}
	return outcomes, nil
}
