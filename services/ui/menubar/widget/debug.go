package widget

import (
	"strings"

	"github.com/gdamore/tcell"
	"github.com/rivo/tview"
)

const (
	debugMaxLines = 500
)

// Debug is a widget to display log output.
type Debug struct {
	*tview.TextView

	app *tview.Application

	// lines is only touched from the UI goroutine.
	lines []string
}

// NewDebug creates a new debug widget.
func NewDebug(app *tview.Application) *Debug {
	d := &Debug{
		TextView: tview.NewTextView(),
		app:      app,
	}

	d.SetTextAlign(tview.AlignLeft).
		SetTextColor(tcell.ColorBlue).
		SetScrollable(true).
		SetBorder(true).
		SetTitle("Debug")

	return d
}

// Append adds contents to the end of the debug widget and scrolls to it.
// Only the most recent lines are kept.
func (d *Debug) Append(contents string) {
	d.app.QueueUpdateDraw(func() {
		d.lines = appendLines(d.lines, contents, debugMaxLines)
		d.SetText(strings.Join(d.lines, "\n"))
		d.ScrollToEnd()
	})
}

// appendLines splits contents into lines, appends them and drops the oldest beyond max.
func appendLines(lines []string, contents string, max int) []string {
	contents = strings.TrimSuffix(contents, "\n")
	if contents == "" {
		return lines
	}

	lines = append(lines, strings.Split(contents, "\n")...)
	if len(lines) > max {
		lines = append(lines[:0], lines[len(lines)-max:]...)
	}
	return lines
}
