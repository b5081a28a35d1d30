package main

import (
	"context"

	"github.com/gdamore/tcell"
	"github.com/rivo/tview"
	"github.com/rmrobinson/tgvspeed/services/speedometer"
	"github.com/rmrobinson/tgvspeed/services/ui/menubar/widget"
)

// serveUI runs the menu bar until ctx is cancelled, the user quits or the runner fails.
// Display updates and log lines wait on the event loop, so the runner is always
// stopped before the application.
func serveUI(ctx context.Context, app *tview.Application, menu *widget.MenuBar, runner *speedometer.Runner) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	menu.SetQuitFunc(cancel)
	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			cancel()
			return nil
		}
		return event
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- runner.Run(runCtx)
		app.Stop()
	}()

	if err := app.SetRoot(menu, true).Run(); err != nil {
		return err
	}
	return <-runErr
}
