package speedometer

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

const (
	// JourneyURL is the journey page of the onboard portal.
	JourneyURL = "https://wifi.sncf/fr/journey"
	// HelpURL is the project page.
	HelpURL = "https://github.com/rene-d/tgvspeed"

	stopURLFormat = "https://wifi.sncf/fr/stops/%s"
	mapZoom       = 15
)

// ErrUnknownAction is returned when dispatching an action without a handler.
var ErrUnknownAction = errors.New("unknown action")

// Action is a user-triggered menu action.
type Action int

const (
	// OpenJourney opens the portal journey page.
	OpenJourney Action = iota
	// OpenMap opens a map centred on the train.
	OpenMap
	// ShowStatus surfaces the last error and the current GPS payload.
	ShowStatus
	// OpenHelp opens the project page.
	OpenHelp
	// OpenStop opens the portal page of a stop; its argument is the stop page URL.
	OpenStop
)

func (a Action) String() string {
	switch a {
	case OpenJourney:
		return "journey"
	case OpenMap:
		return "map"
	case ShowStatus:
		return "status"
	case OpenHelp:
		return "help"
	case OpenStop:
		return "stop"
	}
	return "action(" + strconv.Itoa(int(a)) + ")"
}

// MapURL returns the map URL for a position.
func MapURL(lat, lon float64) string {
	ll := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
	return fmt.Sprintf("https://maps.google.com/maps?ll=%s&q=%s&hl=fr&t=m&z=%d", ll, ll, mapZoom)
}

// StopURL returns the portal page of a stop.
func StopURL(code string) string {
	return fmt.Sprintf(stopURLFormat, code)
}

type actionFunc func(s State, arg string) ([]Delta, error)

// Actions dispatches menu actions through a single handler table.
type Actions struct {
	logger   *zap.Logger
	launcher Launcher

	handlers map[Action]actionFunc
}

// NewActions creates the action table, opening URLs with launcher.
func NewActions(logger *zap.Logger, launcher Launcher) *Actions {
	a := &Actions{
		logger:   logger,
		launcher: launcher,
	}
	a.handlers = map[Action]actionFunc{
		OpenJourney: a.openJourney,
		OpenMap:     a.openMap,
		ShowStatus:  a.showStatus,
		OpenHelp:    a.openHelp,
		OpenStop:    a.openStop,
	}
	return a
}

// Dispatch runs the handler for action against the supplied state.
// Any returned deltas should be applied to the display.
func (a *Actions) Dispatch(s State, action Action, arg string) ([]Delta, error) {
	h, ok := a.handlers[action]
	if !ok {
		return nil, ErrUnknownAction
	}

	a.logger.Debug("dispatching action",
		zap.Stringer("action", action),
		zap.String("arg", arg),
	)
	return h(s, arg)
}

func (a *Actions) openJourney(s State, _ string) ([]Delta, error) {
	if s.Sample == nil {
		return nil, nil
	}
	return nil, a.launcher.Open(JourneyURL)
}

func (a *Actions) openMap(s State, _ string) ([]Delta, error) {
	if s.Sample == nil {
		return nil, nil
	}
	return nil, a.launcher.Open(MapURL(s.Sample.Latitude, s.Sample.Longitude))
}

func (a *Actions) showStatus(s State, _ string) ([]Delta, error) {
	var deltas []Delta
	if s.Display.LastError != "" {
		deltas = append(deltas, AlertDelta{Title: "Erreur", Body: s.Display.LastError})
	}
	if s.Sample != nil {
		deltas = append(deltas, AlertDelta{Title: "GPS", Body: string(s.Sample.Raw)})
	}
	return deltas, nil
}

func (a *Actions) openHelp(_ State, _ string) ([]Delta, error) {
	return nil, a.launcher.Open(HelpURL)
}

func (a *Actions) openStop(s State, url string) ([]Delta, error) {
	if url == "" || s.Details == nil {
		return nil, nil
	}
	return nil, a.launcher.Open(url)
}
