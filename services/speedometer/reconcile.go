package speedometer

import (
	"fmt"
	"time"

	"github.com/rmrobinson/tgvspeed/services/portal"
)

const (
	errGPSUnavailable = "GPS unavailable"
)

// Reconciler turns poll outcomes into display deltas.
// Its methods are pure: they return a new State and never modify the one supplied.
type Reconciler struct {
	Policy DetailsPolicy
	// Location is the zone stop times are displayed in. Defaults to time.Local.
	Location *time.Location
}

// Speed reconciles the outcome of a GPS poll.
func (r Reconciler) Speed(s State, sample *portal.SpeedSample, err error) (State, []Delta) {
	if err != nil || sample == nil || !sample.Success {
		return r.speedFailed(s, err)
	}

	var deltas []Delta
	next := s
	next.Sample = sample
	next.Display.LastError = ""

	if s.Availability != Available {
		next.Availability = Available
		next.Display.VoyageEnabled = true
		next.Display.MapEnabled = true
		deltas = append(deltas,
			ActionDelta{Action: OpenJourney, Enabled: true},
			ActionDelta{Action: OpenMap, Enabled: true},
		)
	}

	if title := FormatTitle(sample.SpeedMPS); title != s.Display.Title {
		next.Display.Title = title
		deltas = append(deltas, TitleDelta{Title: title})
	}

	return next, deltas
}

func (r Reconciler) speedFailed(s State, err error) (State, []Delta) {
	var deltas []Delta
	next := s

	next.Display.LastError = errGPSUnavailable
	if err != nil {
		next.Display.LastError = err.Error()
	}

	if s.Availability == Available {
		next.Availability = Unavailable
		next.Sample = nil
		next.Display.VoyageEnabled = false
		next.Display.MapEnabled = false
		deltas = append(deltas,
			ActionDelta{Action: OpenJourney, Enabled: false},
			ActionDelta{Action: OpenMap, Enabled: false},
		)
	}
	if s.Display.Title != TitleUnavailable {
		next.Display.Title = TitleUnavailable
		deltas = append(deltas, TitleDelta{Title: TitleUnavailable})
	}

	if r.Policy == DetailsClearOnUnavailable && s.Details != nil {
		next.Details = nil
		deltas = append(deltas, StopMenuDelta{Title: StopMenuTitle})
	}

	return next, deltas
}

// Details reconciles the outcome of a details poll.
// Failures leave the held details untouched.
func (r Reconciler) Details(s State, details *portal.TrainDetails, err error) (State, []Delta) {
	if err != nil || details == nil {
		return s, nil
	}
	if details.Equal(s.Details) {
		return s, nil
	}

	next := s
	next.Details = details

	return next, []Delta{
		StopMenuDelta{
			Title:   fmt.Sprintf("%s %s", details.Carrier, details.Number),
			Entries: r.stopEntries(details),
		},
	}
}

func (r Reconciler) stopEntries(details *portal.TrainDetails) []StopEntry {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}

	entries := make([]StopEntry, 0, len(details.Stops))
	for _, stop := range details.Stops {
		entry := StopEntry{
			Label:   stop.ScheduledTime.In(loc).Format("15:04") + " " + stop.Label,
			Enabled: !stop.IsDone,
		}
		if entry.Enabled && stop.Code != "" {
			entry.URL = StopURL(stop.Code)
		}
		if stop.IsDelayed {
			entry.Badge = fmt.Sprintf("retard: %d min", stop.DelayMinutes)
			entry.Tooltip = stop.DelayReason
		}
		entries = append(entries, entry)
	}
	return entries
}
