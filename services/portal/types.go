package portal

import (
	"encoding/json"
	"time"
)

// SpeedSample is a single successful reading of the train's GPS endpoint.
type SpeedSample struct {
	// SpeedMPS is the ground speed in metres per second.
	SpeedMPS  float64
	Latitude  float64
	Longitude float64
	Success   bool

	// Raw is the payload as returned by the portal, indented for display.
	Raw json.RawMessage
}

// KilometresPerHour converts the sample speed.
func (s *SpeedSample) KilometresPerHour() float64 {
	return s.SpeedMPS * 3.6
}

// Progress is the portal's view of how far along the train is relative to a stop.
// It is zeroed once IsDone has been derived from it.
type Progress struct {
	Percentage        float64
	TraveledDistance  float64
	RemainingDistance float64
}

// Stop is a single stop of the itinerary.
type Stop struct {
	Label         string
	ScheduledTime time.Time
	IsDelayed     bool
	DelayMinutes  int
	DelayReason   string
	IsDone        bool
	Code          string
	Progress      *Progress
}

// Equal compares two stops, using time.Time.Equal for the scheduled time.
func (s Stop) Equal(o Stop) bool {
	if s.Label != o.Label ||
		!s.ScheduledTime.Equal(o.ScheduledTime) ||
		s.IsDelayed != o.IsDelayed ||
		s.DelayMinutes != o.DelayMinutes ||
		s.DelayReason != o.DelayReason ||
		s.IsDone != o.IsDone ||
		s.Code != o.Code {
		return false
	}
	if (s.Progress == nil) != (o.Progress == nil) {
		return false
	}
	return s.Progress == nil || *s.Progress == *o.Progress
}

// TrainDetails describes the train and its itinerary.
type TrainDetails struct {
	Carrier string
	Number  string
	Stops   []Stop
}

// Equal reports whether both details describe the same train and itinerary.
// A nil receiver is only equal to nil.
func (d *TrainDetails) Equal(o *TrainDetails) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.Carrier != o.Carrier || d.Number != o.Number || len(d.Stops) != len(o.Stops) {
		return false
	}
	for i := range d.Stops {
		if !d.Stops[i].Equal(o.Stops[i]) {
			return false
		}
	}
	return true
}

// gpsPayload is the wire format of the GPS endpoint.
type gpsPayload struct {
	Success   *bool    `json:"success" validate:"required"`
	Speed     *float64 `json:"speed" validate:"required,gte=0"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type progressPayload struct {
	ProgressPercentage float64 `json:"progressPercentage"`
	TraveledDistance   float64 `json:"traveledDistance"`
	RemainingDistance  float64 `json:"remainingDistance"`
}

type stopPayload struct {
	RealDate    string           `json:"realDate" validate:"required"`
	Label       string           `json:"label" validate:"required"`
	IsDelayed   bool             `json:"isDelayed"`
	Delay       int              `json:"delay"`
	DelayReason string           `json:"delayReason"`
	Code        string           `json:"code"`
	Progress    *progressPayload `json:"progress"`
}

// detailsPayload is the wire format of the details endpoint.
type detailsPayload struct {
	Carrier string        `json:"carrier" validate:"required"`
	Number  string        `json:"number" validate:"required"`
	Stops   []stopPayload `json:"stops" validate:"dive"`
}
