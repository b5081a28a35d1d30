package widget

import (
	"fmt"

	"github.com/gdamore/tcell"
	"github.com/rivo/tview"
	"github.com/rmrobinson/tgvspeed/services/speedometer"
)

const (
	mainPage = "main"
)

type menuItem struct {
	label  string
	action speedometer.Action
	// toggled items start disabled and follow SetActionEnabled.
	toggled bool
}

var menuItems = []menuItem{
	{"Voyage", speedometer.OpenJourney, true},
	{"Carte (Google)", speedometer.OpenMap, true},
	{"Statut", speedometer.ShowStatus, false},
	{"Aide", speedometer.OpenHelp, false},
}

type alertPage struct {
	name  string
	modal *tview.Modal
}

// ActionFunc is invoked when the user selects an enabled menu entry.
// It is called from the UI goroutine and must not block.
type ActionFunc func(action speedometer.Action, arg string)

// MenuBar is a terminal rendition of the status-bar title and its dropdown menu.
// It implements speedometer.Display; all updates are queued onto the UI goroutine.
type MenuBar struct {
	*tview.Pages

	app *tview.Application

	titleView *tview.TextView
	menuList  *tview.List
	stopList  *tview.List
	layout    *tview.Flex

	enabled map[speedometer.Action]bool
	stops   []speedometer.StopEntry
	alerts  []alertPage
	alertID int

	onAction ActionFunc
	onQuit   func()
}

// NewMenuBar creates the menu bar. Extra primitives (e.g. a debug view) can be appended with AddRow.
func NewMenuBar(app *tview.Application, onAction ActionFunc) *MenuBar {
	mb := &MenuBar{
		Pages:     tview.NewPages(),
		app:       app,
		titleView: tview.NewTextView(),
		menuList:  tview.NewList(),
		stopList:  tview.NewList(),
		layout:    tview.NewFlex(),
		enabled:   map[speedometer.Action]bool{},
		onAction:  onAction,
	}
	mb.onQuit = app.Stop

	mb.titleView.SetTextAlign(tview.AlignCenter).
		SetTextColor(tcell.ColorLime).
		SetBorder(true).
		SetTitle("TGVSpeed")

	for _, item := range menuItems {
		mb.enabled[item.action] = !item.toggled
		mb.menuList.AddItem(menuItemText(item.label, mb.enabled[item.action]), "", 0, nil)
	}
	mb.menuList.AddItem("Quitter", "", 'q', func() {
		mb.onQuit()
	})
	mb.menuList.ShowSecondaryText(false).
		SetSelectedFunc(mb.onMenuEntryEntered).
		SetBorder(true).
		SetTitle("Menu").
		SetTitleAlign(tview.AlignLeft)

	mb.stopList.SetSelectedFunc(mb.onStopEntryEntered).
		SetBorder(true).
		SetTitle(speedometer.StopMenuTitle).
		SetTitleAlign(tview.AlignLeft)

	mb.layout.SetDirection(tview.FlexRow).
		AddItem(mb.titleView, 3, 1, false).
		AddItem(tview.NewFlex().
			AddItem(mb.menuList, 24, 1, true).
			AddItem(mb.stopList, 0, 1, false), 0, 3, true)

	mb.AddPage(mainPage, mb.layout, true, true)

	mb.menuList.SetDoneFunc(func() {
		mb.app.SetFocus(mb.stopList)
	})
	mb.stopList.SetDoneFunc(func() {
		mb.app.SetFocus(mb.menuList)
	})

	return mb
}

// SetQuitFunc replaces what the "Quitter" entry does. By default it stops the application.
// The function is called from the UI goroutine and must not block.
func (mb *MenuBar) SetQuitFunc(f func()) {
	mb.onQuit = f
}

// AddRow appends a primitive below the menus.
func (mb *MenuBar) AddRow(item tview.Primitive, proportion int) {
	mb.layout.AddItem(item, 0, proportion, false)
}

// SetTitle replaces the status title.
func (mb *MenuBar) SetTitle(title string) {
	mb.app.QueueUpdateDraw(func() {
		mb.titleView.SetText(title)
	})
}

// SetActionEnabled toggles a menu entry.
func (mb *MenuBar) SetActionEnabled(action speedometer.Action, enabled bool) {
	mb.app.QueueUpdateDraw(func() {
		mb.enabled[action] = enabled
		for idx, item := range menuItems {
			if item.action == action {
				mb.menuList.SetItemText(idx, menuItemText(item.label, enabled), "")
			}
		}
	})
}

// RebuildStopMenu replaces the stop list.
func (mb *MenuBar) RebuildStopMenu(title string, entries []speedometer.StopEntry) {
	mb.app.QueueUpdateDraw(func() {
		mb.stops = entries
		mb.stopList.Clear()
		mb.stopList.SetTitle(title)
		for _, entry := range entries {
			main, secondary := stopItemText(entry)
			mb.stopList.AddItem(main, secondary, 0, nil)
		}
	})
}

// ShowAlert stacks a modal on top of the menus.
func (mb *MenuBar) ShowAlert(title, body string) {
	mb.app.QueueUpdateDraw(func() {
		mb.alertID++
		name := fmt.Sprintf("alert-%d", mb.alertID)

		modal := tview.NewModal().
			SetText(alertText(title, body)).
			AddButtons([]string{"OK"}).
			SetDoneFunc(func(buttonIndex int, buttonLabel string) {
				mb.closeAlert(name)
			})

		mb.alerts = append(mb.alerts, alertPage{name: name, modal: modal})
		mb.AddPage(name, modal, false, true)
		mb.app.SetFocus(modal)
	})
}

func (mb *MenuBar) closeAlert(name string) {
	mb.RemovePage(name)
	for idx, alert := range mb.alerts {
		if alert.name == name {
			mb.alerts = append(mb.alerts[:idx], mb.alerts[idx+1:]...)
			break
		}
	}

	if len(mb.alerts) > 0 {
		mb.app.SetFocus(mb.alerts[len(mb.alerts)-1].modal)
		return
	}
	mb.app.SetFocus(mb.menuList)
}

func (mb *MenuBar) onMenuEntryEntered(idx int, mainText string, secondaryText string, shortcut rune) {
	if idx >= len(menuItems) {
		return
	}
	item := menuItems[idx]
	if !mb.enabled[item.action] {
		return
	}
	mb.onAction(item.action, "")
}

func (mb *MenuBar) onStopEntryEntered(idx int, mainText string, secondaryText string, shortcut rune) {
	if idx >= len(mb.stops) {
		return
	}
	entry := mb.stops[idx]
	if !entry.Enabled || entry.URL == "" {
		return
	}
	mb.onAction(speedometer.OpenStop, entry.URL)
}

// alertText escapes the alert so brackets in errors or payloads are not read as color tags.
func alertText(title, body string) string {
	return tview.Escape(title + "\n\n" + body)
}

func menuItemText(label string, enabled bool) string {
	if enabled {
		return label
	}
	return "[gray]" + label
}

// stopItemText renders a stop entry as the main and secondary lines of a list item.
// The delay reason stands in for a tooltip.
func stopItemText(entry speedometer.StopEntry) (string, string) {
	main := tview.Escape(entry.Label)
	if !entry.Enabled {
		main = "[gray]" + main + "[white]"
	}
	if entry.Badge != "" {
		main += " [red]" + tview.Escape(entry.Badge) + "[white]"
	}
	return main, tview.Escape(entry.Tooltip)
}
