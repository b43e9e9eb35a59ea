// Command semapp-cli runs the SEM dataset pipeline headlessly.
//
// Usage:
//
//	semapp-cli -root /data/sem/raw -op organize
//	semapp-cli -root /data/sem/raw -wafer 18 -op split
//	semapp-cli -root /data/sem/raw -op rename-all
//	semapp-cli -root /data/sem/raw -wafer 18 -op export -out summary.xlsx
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	semapp "github.com/thi-mey/SEMapp"
	"github.com/thi-mey/SEMapp/internal/config"
	"github.com/thi-mey/SEMapp/internal/logging"
)

func main() {
	var root, wafer, op, settingsPath, out string
	var verbose bool

	flag.StringVar(&root, "root", "", "root directory holding the sample folders")
	flag.StringVar(&wafer, "wafer", "", "wafer (sample) identifier, required by per-wafer operations")
	flag.StringVar(&op, "op", "", "operation: organize|split|split-all|rename|rename-all|clean|clean-all|normalize|export")
	flag.StringVar(&settingsPath, "settings", config.SettingsPath(), "settings file (channel table)")
	flag.StringVar(&out, "out", "", "output path for -op export (defaults to <root>/<wafer>_summary.xlsx)")
	flag.BoolVar(&verbose, "verbose", false, "enable debug output")
	flag.Parse()

	log := logging.New(verbose)

	if root == "" || op == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -root DIR -op OPERATION [-wafer N] [-settings FILE]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}

	settings, err := config.LoadOrDefault(settingsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}
	if err := settings.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid settings")
	}

	session := semapp.NewSession(root, wafer, settings.Channels, log)
	session.Progress = func(done, total int) {
		log.Debug().Int("done", done).Int("total", total).Msg("split progress")
	}

	if err := run(session, op, out, log); err != nil {
		log.Fatal().Err(err).Msg("operation failed")
	}
}

// perWafer guards operations that act on a single sample folder.
func perWafer(session *semapp.Session) error {
	if session.Wafer == "" {
		return errors.New("-wafer is required for this operation")
	}
	return nil
}

func run(session *semapp.Session, op, out string, log zerolog.Logger) error {
	switch op {
	case "organize":
		outcomes, err := session.Organize()
		if err != nil {
			return err
		}
		moved, skipped := 0, 0
		for _, o := range outcomes {
			if o.Err != nil {
				skipped++
			} else {
				moved++
			}
		}
		log.Info().Int("moved", moved).Int("skipped", skipped).Msg("organize finished")
		return nil

	case "split":
		if err := perWafer(session); err != nil {
			return err
		}
		written, err := session.Split()
		if err != nil {
			return err
		}
		log.Info().Int("frames", len(written)).Msg("split finished")
		return nil

	case "split-all":
		return reportFailures(session.SplitAll())

	case "rename":
		if err := perWafer(session); err != nil {
			return err
		}
		outcomes, err := session.Rename()
		if err != nil {
			return err
		}
		log.Info().Int("files", len(outcomes)).Msg("rename finished")
		return nil

	case "rename-all":
		return reportFailures(session.RenameAll())

	case "clean":
		if err := perWafer(session); err != nil {
			return err
		}
		deleted, err := session.Clean()
		if err != nil {
			return err
		}
		log.Info().Int("deleted", len(deleted)).Msg("clean finished")
		return nil

	case "clean-all":
		return reportFailures(session.CleanAll())

	case "normalize":
		return session.NormalizeFolders()

	case "export":
		if err := perWafer(session); err != nil {
			return err
		}
		if out == "" {
			out = filepath.Join(session.Root, session.Wafer+"_summary.xlsx")
		}
		if err := session.ExportSummary(out); err != nil {
			return err
		}
		log.Info().Str("path", out).Msg("summary exported")
		return nil

	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

// reportFailures converts per-folder failures of an -all operation into a
// single exit status without hiding which folders failed.
func reportFailures(failures map[string]error, err error) error {
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d sample folder(s) failed", len(failures))
	}
	return nil
}
