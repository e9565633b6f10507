// Package ui is the Fyne desktop shell around the engine.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/inamate/sketchboard/internal/command"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/mode"
	"github.com/inamate/sketchboard/internal/selection"
)

// Run opens the window and blocks until it is closed. The engine is only
// touched from the Fyne main goroutine from here on.
func Run(eng *engine.Engine, frameRate int) {
	if frameRate <= 0 {
		frameRate = 60
	}

	a := app.New()
	w := a.NewWindow("Sketchboard")
	w.Resize(fyne.NewSize(1280, 800))

	board := NewBoard(eng)
	status := widget.NewLabel("")
	updateStatus := func() {
		sel := eng.Selection()
		status.SetText(fmt.Sprintf("%s mode · %d elements · %d selected · %s",
			eng.Mode(), len(eng.Elements()), len(sel.IDs), eng.Strategy()))
	}
	ev := eng.Events()
	ev.Mode.Subscribe(func(mode.ModeChanged) { updateStatus() })
	ev.Selection.Subscribe(func(selection.Snapshot) { updateStatus() })
	ev.Stack.Subscribe(func(command.StackChanged) { updateStatus() })
	ev.PersistFailed.Subscribe(func(p engine.PersistFailed) {
		status.SetText(fmt.Sprintf("could not save %s: %s", p.Op, p.Error))
	})
	updateStatus()

	modeSelect := widget.NewSelect(eng.Modes(), func(name string) {
		if err := eng.SwitchMode(name); err != nil {
			slog.Warn("switch mode", "mode", name, "error", err)
		}
	})
	modeSelect.SetSelected(eng.Mode())
	ev.Mode.Subscribe(func(m mode.ModeChanged) {
		if modeSelect.Selected != m.Name {
			modeSelect.SetSelected(m.Name)
		}
	})

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { eng.Do(mode.ActionUndo) }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { eng.Do(mode.ActionRedo) }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { eng.Do(mode.ActionDelete) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.NavigateBackIcon(), func() { eng.Do(mode.ActionRotateLeft) }),
		widget.NewToolbarAction(theme.NavigateNextIcon(), func() { eng.Do(mode.ActionRotateRight) }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() { eng.CenterOnNearest() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { eng.Do(mode.ActionSave) }),
		widget.NewToolbarAction(theme.DownloadIcon(), func() { exportDialog(w, eng) }),
	)
	top := container.NewBorder(nil, nil, nil, modeSelect, toolbar)
	w.SetContent(container.NewBorder(top, status, nil, nil, board))

	w.Canvas().SetOnTypedKey(board.TypedKey)
	for key, action := range map[fyne.KeyName]mode.Action{
		fyne.KeyC: mode.ActionCopy,
		fyne.KeyV: mode.ActionPaste,
		fyne.KeyZ: mode.ActionUndo,
		fyne.KeyY: mode.ActionRedo,
		fyne.KeyS: mode.ActionSave,
	} {
		w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierShortcutDefault},
			func(fyne.Shortcut) { eng.Do(action) })
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(frameRate))
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fyne.Do(board.Frame)
			case <-stop:
				return
			}
		}
	}()

	w.SetOnClosed(func() {
		close(stop)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eng.SaveAll(ctx); err != nil {
			slog.Error("save on close", "error", err)
		}
	})
	w.ShowAndRun()
}

func exportDialog(w fyne.Window, eng *engine.Engine) {
	dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()

		export := eng.ExportPNG
		if writer.URI().Extension() == ".pdf" {
			export = eng.ExportPDF
		}
		if err := export(writer); err != nil {
			dialog.ShowError(err, w)
			return
		}
		slog.Info("exported board", "uri", writer.URI().String())
	}, w)
}
