package speedometer

import (
	"fmt"
	"strings"
)

// Display is implemented by whatever renders the status title and menu.
type Display interface {
	SetTitle(title string)
	SetActionEnabled(action Action, enabled bool)
	RebuildStopMenu(title string, entries []StopEntry)
	ShowAlert(title, body string)
}

// StopEntry is a single line of the stop menu.
type StopEntry struct {
	Label   string
	Enabled bool
	// Badge and Tooltip are only set for delayed stops.
	Badge   string
	Tooltip string
	// URL is the stop page, set for stops not yet reached.
	URL string
}

// Delta is one change to apply to the Display.
type Delta interface {
	Apply(d Display)
	String() string
}

// TitleDelta replaces the status title.
type TitleDelta struct {
	Title string
}

// Apply sets the title.
func (td TitleDelta) Apply(d Display) { d.SetTitle(td.Title) }

func (td TitleDelta) String() string { return fmt.Sprintf("title %q", td.Title) }

// ActionDelta enables or disables a menu action.
type ActionDelta struct {
	Action  Action
	Enabled bool
}

// Apply toggles the action.
func (ad ActionDelta) Apply(d Display) { d.SetActionEnabled(ad.Action, ad.Enabled) }

func (ad ActionDelta) String() string {
	return fmt.Sprintf("action %s enabled=%t", ad.Action, ad.Enabled)
}

// StopMenuDelta rebuilds the stop submenu.
type StopMenuDelta struct {
	Title   string
	Entries []StopEntry
}

// Apply rebuilds the menu.
func (sd StopMenuDelta) Apply(d Display) { d.RebuildStopMenu(sd.Title, sd.Entries) }

func (sd StopMenuDelta) String() string {
	labels := make([]string, 0, len(sd.Entries))
	for _, e := range sd.Entries {
		labels = append(labels, e.Label)
	}
	return fmt.Sprintf("stops %q [%s]", sd.Title, strings.Join(labels, ", "))
}

// AlertDelta asks the display to surface a message.
type AlertDelta struct {
	Title string
	Body  string
}

// Apply shows the alert.
func (ad AlertDelta) Apply(d Display) { d.ShowAlert(ad.Title, ad.Body) }

func (ad AlertDelta) String() string { return fmt.Sprintf("alert %q", ad.Title) }
