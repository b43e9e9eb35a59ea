// Package splitter extracts the frames of a merged multi-frame TIFF into
// individually named defect images.
//
// Frame order in the merged capture is defect-major: all channels of defect
// 1, then all channels of defect 2, and so on. Frame i therefore belongs to
// record i/len(channels) and channel i%len(channels); with a single
// configured channel this reduces to frame i matching record i. The frame
// count must equal len(records)*len(channels) or nothing is written.
package splitter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/thi-mey/SEMapp/internal/fsutil"
	"github.com/thi-mey/SEMapp/internal/imgio"
	"github.com/thi-mey/SEMapp/pkg/naming"
	"github.com/thi-mey/SEMapp/pkg/types"
)

// Splitter splits merged TIFF captures using a fixed channel configuration.
type Splitter struct {
	channels []types.Channel
	log      zerolog.Logger

	// Progress, when set, is called after each written frame.
	Progress func(done, total int)
}

// New creates a Splitter for the given ordered channel list.
func New(channels []types.Channel, log zerolog.Logger) *Splitter {
	return &Splitter{channels: channels, log: log}
}

// Split decodes dir/data.tif and writes one image per frame into dir,
// named by the naming convention from the frame's defect record and
// channel. It returns the written paths. The merged file is left
// unmodified. On a frame-count mismatch it fails with
// *types.CountMismatchError before writing anything; on a later write
// failure, files already written stay on disk and the caller should treat
// the folder as needing cleanup.
func (s *Splitter) Split(dir string, records []types.DefectRecord) ([]string, error) {
	if len(s.channels) == 0 {
		return nil, fmt.Errorf("no channels configured")
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no defect records supplied")
	}

	merged := filepath.Join(dir, naming.MergedName)
	frames, err := imgio.LoadFrames(merged)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(merged); err == nil {
		s.log.Debug().Str("file", merged).Str("size", fsutil.FormatFileSize(fi.Size())).Int("frames", len(frames)).Msg("merged TIFF decoded")
	}

	want := len(records) * len(s.channels)
	if len(frames) != want {
		return nil, &types.CountMismatchError{Dir: dir, Images: len(frames), Want: want}
	}

	nch := len(s.channels)
	written := make([]string, 0, len(frames))
	for i, frame := range frames {
		rec := records[i/nch]
		ch := s.channels[i%nch]
		path := filepath.Join(dir, naming.Filename(ch, rec))

		if err := imgio.Save(frame, path); err != nil {
			return written, fmt.Errorf("failed to write frame %d: %w", i+1, err)
		}
		written = append(written, path)
		s.log.Debug().Str("file", filepath.Base(path)).Int("frame", i+1).Msg("frame written")

		if s.Progress != nil {
			s.Progress(i+1, len(frames))
		}
	}

	s.log.Info().Str("dir", dir).Int("frames", len(frames)).Msg("merged TIFF split")
	return written, nil
}
