package widget

import (
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell"
	"github.com/rivo/tview"
	"github.com/rmrobinson/tgvspeed/services/speedometer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type actionCall struct {
	action speedometer.Action
	arg    string
}

type actionRecorder struct {
	mu    sync.Mutex
	calls []actionCall
}

func (ar *actionRecorder) record(action speedometer.Action, arg string) {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	ar.calls = append(ar.calls, actionCall{action, arg})
}

func (ar *actionRecorder) get() []actionCall {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return append([]actionCall(nil), ar.calls...)
}

// runMenuBar runs a menu bar on a simulated screen until the test ends.
func runMenuBar(t *testing.T, onAction ActionFunc) (*tview.Application, *MenuBar, tcell.SimulationScreen) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())

	app := tview.NewApplication().SetScreen(screen)
	mb := NewMenuBar(app, onAction)
	app.SetRoot(mb, true)

	done := make(chan error, 1)
	go func() {
		done <- app.Run()
	}()
	t.Cleanup(func() {
		app.Stop()
		<-done
	})

	return app, mb, screen
}

type stopItemTextTest struct {
	name      string
	entry     speedometer.StopEntry
	main      string
	secondary string
}

var stopItemTextTests = []stopItemTextTest{
	{
		"upcoming stop",
		speedometer.StopEntry{Label: "10:45 Grenoble", Enabled: true},
		"10:45 Grenoble",
		"",
	},
	{
		"passed stop",
		speedometer.StopEntry{Label: "07:56 Paris Gare de Lyon"},
		"[gray]07:56 Paris Gare de Lyon[white]",
		"",
	},
	{
		"delayed stop",
		speedometer.StopEntry{Label: "09:58 Lyon Part Dieu", Enabled: true, Badge: "retard: 12 min", Tooltip: "signal failure"},
		"09:58 Lyon Part Dieu [red]retard: 12 min[white]",
		"signal failure",
	},
}

func TestStopItemText(t *testing.T) {
	for _, tt := range stopItemTextTests {
		t.Run(tt.name, func(t *testing.T) {
			main, secondary := stopItemText(tt.entry)
			assert.Equal(t, tt.main, main)
			assert.Equal(t, tt.secondary, secondary)
		})
	}
}

func TestMenuItemText(t *testing.T) {
	assert.Equal(t, "Voyage", menuItemText("Voyage", true))
	assert.Equal(t, "[gray]Voyage", menuItemText("Voyage", false))
}

func TestMenuItemsCoverActions(t *testing.T) {
	seen := map[speedometer.Action]bool{}
	for _, item := range menuItems {
		seen[item.action] = true
	}
	for _, action := range []speedometer.Action{
		speedometer.OpenJourney,
		speedometer.OpenMap,
		speedometer.ShowStatus,
		speedometer.OpenHelp,
	} {
		assert.True(t, seen[action], action.String())
	}
}

func TestAlertText(t *testing.T) {
	assert.Equal(t, "GPS\n\n[red[]x[white[]", alertText("GPS", "[red]x[white]"))
	assert.Equal(t, "Erreur\n\ntimeout", alertText("Erreur", "timeout"))
}

func TestMenuBar_DisabledActionsIgnored(t *testing.T) {
	rec := &actionRecorder{}
	app, mb, _ := runMenuBar(t, rec.record)

	var voyage string
	app.QueueUpdate(func() {
		voyage, _ = mb.menuList.GetItemText(0)
		mb.onMenuEntryEntered(0, "", "", 0)
		mb.onMenuEntryEntered(1, "", "", 0)
	})
	assert.Equal(t, "[gray]Voyage", voyage)
	assert.Empty(t, rec.get())

	mb.SetActionEnabled(speedometer.OpenJourney, true)
	app.QueueUpdate(func() {
		voyage, _ = mb.menuList.GetItemText(0)
		mb.onMenuEntryEntered(0, "", "", 0)
		mb.onMenuEntryEntered(1, "", "", 0)
		mb.onMenuEntryEntered(2, "", "", 0)
	})
	assert.Equal(t, "Voyage", voyage)

	mb.SetActionEnabled(speedometer.OpenJourney, false)
	app.QueueUpdate(func() {
		mb.onMenuEntryEntered(0, "", "", 0)
	})

	assert.Equal(t, []actionCall{
		{speedometer.OpenJourney, ""},
		{speedometer.ShowStatus, ""},
	}, rec.get())
}

func TestMenuBar_StopEntries(t *testing.T) {
	rec := &actionRecorder{}
	app, mb, _ := runMenuBar(t, rec.record)

	mb.RebuildStopMenu("TGV INOUI 6611", []speedometer.StopEntry{
		{Label: "07:56 Paris Gare de Lyon"},
		{Label: "09:58 Lyon Part Dieu", Enabled: true, URL: "https://www.sncf.com/fr/gares/87723197"},
		{Label: "10:45 Grenoble", Enabled: true},
	})

	var count int
	app.QueueUpdate(func() {
		count = mb.stopList.GetItemCount()
		for idx := 0; idx < 5; idx++ {
			mb.onStopEntryEntered(idx, "", "", 0)
		}
	})

	assert.Equal(t, 3, count)
	assert.Equal(t, []actionCall{
		{speedometer.OpenStop, "https://www.sncf.com/fr/gares/87723197"},
	}, rec.get())
}

func TestMenuBar_AlertsStack(t *testing.T) {
	app, mb, _ := runMenuBar(t, func(speedometer.Action, string) {})

	mb.ShowAlert("Erreur", "timeout")
	mb.ShowAlert("GPS", "{}")

	var (
		front string
		focus tview.Primitive
		top   tview.Primitive
	)
	app.QueueUpdate(func() {
		front, _ = mb.GetFrontPage()
		focus = app.GetFocus()
		top = mb.alerts[len(mb.alerts)-1].modal
	})
	assert.Equal(t, "alert-2", front)
	assert.Equal(t, top, focus)

	app.QueueUpdate(func() {
		mb.closeAlert("alert-2")
		front, _ = mb.GetFrontPage()
		focus = app.GetFocus()
		top = mb.alerts[len(mb.alerts)-1].modal
	})
	assert.Equal(t, "alert-1", front)
	assert.Equal(t, top, focus)

	var hasAlert bool
	app.QueueUpdate(func() {
		mb.closeAlert("alert-1")
		front, _ = mb.GetFrontPage()
		focus = app.GetFocus()
		hasAlert = mb.HasPage("alert-1")
	})
	assert.Equal(t, mainPage, front)
	assert.Equal(t, tview.Primitive(mb.menuList), focus)
	assert.False(t, hasAlert)
}

func TestMenuBar_QuitFunc(t *testing.T) {
	_, mb, screen := runMenuBar(t, func(speedometer.Action, string) {})

	quit := make(chan struct{})
	var once sync.Once
	mb.SetQuitFunc(func() {
		once.Do(func() { close(quit) })
	})

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case <-quit:
	case <-time.After(5 * time.Second):
		t.Fatal("quit entry not triggered")
	}
}
