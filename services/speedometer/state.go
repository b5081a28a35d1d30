package speedometer

import (
	"fmt"
	"strings"

	"github.com/rmrobinson/tgvspeed/services/portal"
)

const (
	// TitleUnavailable is shown while no GPS sample is held.
	TitleUnavailable = "🚉"
	// StopMenuTitle is the stop submenu title before any details are known.
	StopMenuTitle = "Arrêts"
)

// Availability tracks whether the most recent GPS poll succeeded.
type Availability int

const (
	// Unavailable is the initial state, and the state after any failed GPS poll.
	Unavailable Availability = iota
	// Available is entered on a successful GPS poll.
	Available
)

func (a Availability) String() string {
	if a == Available {
		return "available"
	}
	return "unavailable"
}

// DetailsPolicy decides what happens to held train details when the GPS goes away.
// A failed details poll never clears them.
type DetailsPolicy int

const (
	// DetailsSticky keeps the details once learned.
	DetailsSticky DetailsPolicy = iota
	// DetailsClearOnUnavailable drops them on every failed GPS poll.
	DetailsClearOnUnavailable
)

// ParseDetailsPolicy accepts "sticky" or "clear".
func ParseDetailsPolicy(s string) (DetailsPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sticky":
		return DetailsSticky, nil
	case "clear":
		return DetailsClearOnUnavailable, nil
	}
	return DetailsSticky, fmt.Errorf("unknown details policy %q", s)
}

func (p DetailsPolicy) String() string {
	if p == DetailsClearOnUnavailable {
		return "clear"
	}
	return "sticky"
}

// DisplayState is what the display is currently showing.
type DisplayState struct {
	Title         string
	VoyageEnabled bool
	MapEnabled    bool
	LastError     string
}

// State is everything the reconciler holds between ticks.
// Samples and details are snapshots owned by the state and are replaced, never mutated.
type State struct {
	Availability Availability
	Sample       *portal.SpeedSample
	Details      *portal.TrainDetails
	Display      DisplayState
}

// NewState returns the state before any poll has completed.
func NewState() State {
	return State{
		Availability: Unavailable,
		Display: DisplayState{
			Title: TitleUnavailable,
		},
	}
}

// InitialDeltas renders s from scratch.
func InitialDeltas(s State) []Delta {
	deltas := []Delta{
		TitleDelta{Title: s.Display.Title},
		ActionDelta{Action: OpenJourney, Enabled: s.Display.VoyageEnabled},
		ActionDelta{Action: OpenMap, Enabled: s.Display.MapEnabled},
	}
	if s.Details == nil {
		deltas = append(deltas, StopMenuDelta{Title: StopMenuTitle})
	}
	return deltas
}

// FormatTitle renders a speed in metres per second as the status title.
func FormatTitle(speedMPS float64) string {
	return fmt.Sprintf("🚄 %.1f km/h", speedMPS*3.6)
}
