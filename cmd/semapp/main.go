// Command semapp is the desktop front-end of the SEM dataset organizer.
//
// The window offers a root-folder picker, a wafer entry, a radio group with
// the pipeline operations and a settings dialog for the channel table. Each
// operation runs to completion before the interface accepts the next one.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	semapp "github.com/thi-mey/SEMapp"
	"github.com/thi-mey/SEMapp/internal/config"
	"github.com/thi-mey/SEMapp/internal/fsutil"
	"github.com/thi-mey/SEMapp/internal/logging"
	"github.com/thi-mey/SEMapp/pkg/types"
)

const (
	opOrganize  = "Create folders"
	opSplit     = "Split .tif and rename (w/ tag)"
	opSplitAll  = "Split .tif and rename (w/ tag) — all wafers"
	opRename    = "Rename (w/o tag)"
	opRenameAll = "Rename (w/o tag) — all wafers"
	opClean     = "Clean"
	opCleanAll  = "Clean — all wafers"
	opNormalize = "Normalize wafer folders"
)

func handleCrash() {
	if r := recover(); r != nil {
		content := fmt.Sprintf("FATAL ERROR: %v\n\nSTACK TRACE:\n%s", r, debug.Stack())
		_ = os.WriteFile("crash.log", []byte(content), 0644)
	}
}

func main() {
	defer handleCrash()

	log := logging.New(false)

	settingsFile := config.SettingsPath()
	settings, err := config.LoadOrDefault(settingsFile)
	if err != nil {
		settings = config.Default()
		log.Warn().Err(err).Msg("settings unreadable, using defaults")
	}

	myApp := app.NewWithID("com.thi-mey.semapp")
	mainWindow := myApp.NewWindow("SEMapp")
	mainWindow.Resize(fyne.NewSize(640, 560))

	rootEntry := widget.NewEntry()
	rootEntry.SetPlaceHolder("Select the folder holding the raw exports...")
	waferEntry := widget.NewEntry()
	waferEntry.SetPlaceHolder("Wafer number (e.g. 18)")
	statusLabel := widget.NewLabel("Select a folder and an operation")
	statusLabel.Alignment = fyne.TextAlignCenter

	selectFolderButton := widget.NewButton("Select folder", func() {
		folderDialog := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, mainWindow)
				return
			}
			if uri == nil {
				return
			}
			rootEntry.SetText(uri.Path())
			statusLabel.SetText("Folder selected")
		}, mainWindow)
		folderDialog.Resize(fyne.NewSize(600, 400))
		folderDialog.Show()
	})

	operations := widget.NewRadioGroup([]string{
		opOrganize, opSplit, opSplitAll, opRename, opRenameAll, opClean, opCleanAll, opNormalize,
	}, nil)
	operations.SetSelected(opOrganize)

	settingsButton := widget.NewButton("Settings", func() {
		showSettingsEditor(myApp, settings, settingsFile)
	})

	exportButton := widget.NewButton("Export summary", func() {
		session, err := buildSession(rootEntry.Text, waferEntry.Text, settings, log)
		if err != nil {
			dialog.ShowError(err, mainWindow)
			return
		}
		if session.Wafer == "" {
			dialog.ShowError(fmt.Errorf("a wafer number is required for the summary export"), mainWindow)
			return
		}
		out := filepath.Join(session.Root, session.Wafer+"_summary.xlsx")
		if err := session.ExportSummary(out); err != nil {
			dialog.ShowError(err, mainWindow)
			return
		}
		dialog.ShowInformation("Export", fmt.Sprintf("Summary saved to:\n%s", out), mainWindow)
	})

	runButton := widget.NewButton("Run", func() {
		session, err := buildSession(rootEntry.Text, waferEntry.Text, settings, log)
		if err != nil {
			dialog.ShowError(err, mainWindow)
			return
		}
		statusLabel.SetText("Running...")
		summary, err := runOperation(session, operations.Selected)
		if err != nil {
			statusLabel.SetText("Operation failed")
			dialog.ShowError(err, mainWindow)
			return
		}
		statusLabel.SetText(summary)
	})

	content := container.NewVBox(
		container.NewBorder(nil, nil, nil, selectFolderButton, rootEntry),
		container.NewBorder(nil, nil, widget.NewLabel("Wafer:"), nil, waferEntry),
		widget.NewSeparator(),
		operations,
		widget.NewSeparator(),
		container.NewGridWithColumns(2, settingsButton, exportButton),
		runButton,
		statusLabel,
	)

	mainWindow.SetContent(content)
	mainWindow.ShowAndRun()
}

// buildSession validates the form inputs and assembles the session.
func buildSession(root, wafer string, settings *config.Settings, log zerolog.Logger) (*semapp.Session, error) {
	if root == "" {
		return nil, fmt.Errorf("select a root folder first")
	}
	if !fsutil.DirExists(root) {
		return nil, fmt.Errorf("folder does not exist: %s", root)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return semapp.NewSession(root, wafer, settings.Channels, log), nil
}

// needsWafer lists the operations acting on a single sample folder.
func needsWafer(op string) bool {
	switch op {
	case opSplit, opRename, opClean:
		return true
	}
	return false
}

// runOperation executes the selected operation and returns a status line.
func runOperation(session *semapp.Session, op string) (string, error) {
	if needsWafer(op) && session.Wafer == "" {
		return "", fmt.Errorf("a wafer number is required for %q", op)
	}

	switch op {
	case opOrganize:
		outcomes, err := session.Organize()
		if err != nil {
			return "", err
		}
		moved, skipped := 0, 0
		for _, o := range outcomes {
			if o.Err != nil {
				skipped++
			} else {
				moved++
			}
		}
		return fmt.Sprintf("Folders created: %d file(s) moved, %d skipped", moved, skipped), nil

	case opSplit:
		written, err := session.Split()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Split done: %d frame(s) written", len(written)), nil

	case opSplitAll:
		return allSummary(session.SplitAll())

	case opRename:
		outcomes, err := session.Rename()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Rename done: %d file(s)", len(outcomes)), nil

	case opRenameAll:
		return allSummary(session.RenameAll())

	case opClean:
		deleted, err := session.Clean()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Clean done: %d file(s) deleted", len(deleted)), nil

	case opCleanAll:
		return allSummary(session.CleanAll())

	case opNormalize:
		if err := session.NormalizeFolders(); err != nil {
			return "", err
		}
		return "Wafer folders normalized", nil
	}
	return "", fmt.Errorf("unknown operation %q", op)
}

// allSummary summarizes an -all operation without hiding folder failures.
func allSummary(failures map[string]error, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if len(failures) > 0 {
		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		return "", fmt.Errorf("%d wafer folder(s) failed: %v", len(failures), names)
	}
	return "All wafer folders processed", nil
}

// showSettingsEditor opens the channel-table editor. Edits are written back
// to the settings file on save.
func showSettingsEditor(a fyne.App, settings *config.Settings, path string) {
	editorWindow := a.NewWindow("Settings — imaging channels")
	editorWindow.Resize(fyne.NewSize(500, 400))

	listData := binding.NewStringList()
	refreshList := func() {
		items := make([]string, 0, len(settings.Channels))
		for _, ch := range settings.Channels {
			items = append(items, fmt.Sprintf("%s — %s", ch.Scale, ch.Detector))
		}
		_ = listData.Set(items)
	}

	selected := -1
	scaleEntry := widget.NewEntry()
	scaleEntry.SetPlaceHolder("Field of view (µm), e.g. 2")
	detectorEntry := widget.NewEntry()
	detectorEntry.SetPlaceHolder("Detector, e.g. BSE")

	list := widget.NewListWithData(listData,
		func() fyne.CanvasObject {
			return widget.NewLabel("template")
		},
		func(i binding.DataItem, o fyne.CanvasObject) {
			o.(*widget.Label).Bind(i.(binding.String))
		},
	)
	list.OnSelected = func(id widget.ListItemID) {
		selected = id
		scaleEntry.SetText(settings.Channels[id].Scale)
		detectorEntry.SetText(settings.Channels[id].Detector)
	}
	list.OnUnselected = func(widget.ListItemID) {
		selected = -1
	}

	addButton := widget.NewButton("Add channel", func() {
		settings.Channels = append(settings.Channels, types.Channel{Scale: "2", Detector: "BSE"})
		refreshList()
	})
	removeButton := widget.NewButton("Remove selected", func() {
		if selected < 0 || selected >= len(settings.Channels) {
			return
		}
		settings.Channels = append(settings.Channels[:selected], settings.Channels[selected+1:]...)
		selected = -1
		refreshList()
		list.UnselectAll()
	})
	saveButton := widget.NewButton("Save", func() {
		if selected >= 0 && selected < len(settings.Channels) {
			settings.Channels[selected] = types.Channel{Scale: scaleEntry.Text, Detector: detectorEntry.Text}
		}
		if err := settings.Validate(); err != nil {
			dialog.ShowError(err, editorWindow)
			return
		}
		if err := settings.SaveToFile(path); err != nil {
			dialog.ShowError(err, editorWindow)
			return
		}
		refreshList()
		list.UnselectAll()
	})
	closeButton := widget.NewButton("Close", func() {
		editorWindow.Close()
	})

	editorPanel := container.NewVBox(
		widget.NewLabel("Selected channel:"),
		scaleEntry,
		detectorEntry,
		saveButton,
		addButton,
		removeButton,
	)

	content := container.NewHSplit(
		list,
		container.NewBorder(nil, closeButton, nil, nil, editorPanel),
	)
	content.SetOffset(0.4)

	refreshList()
	editorWindow.SetContent(content)
	editorWindow.Show()
}
