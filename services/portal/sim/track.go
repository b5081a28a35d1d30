package sim

import (
	"errors"
	"io"
	"math"

	"github.com/gocarina/gocsv"
)

var (
	// ErrEmptyTrack is returned if a track file holds no points.
	ErrEmptyTrack = errors.New("track has no points")
)

// TrackPoint is a single recorded GPS reading.
type TrackPoint struct {
	Speed     float64 `csv:"speed"`
	Latitude  float64 `csv:"latitude"`
	Longitude float64 `csv:"longitude"`
}

// LoadTrack reads a CSV track with speed (m/s), latitude and longitude columns.
func LoadTrack(in io.Reader) ([]TrackPoint, error) {
	var points []TrackPoint
	if err := gocsv.Unmarshal(in, &points); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrEmptyTrack
	}
	return points, nil
}

// SyntheticTrack interpolates count points between two positions, accelerating to
// cruise speed over the first tenth of the trip and braking over the last tenth.
func SyntheticTrack(fromLat, fromLon, toLat, toLon, cruise float64, count int) []TrackPoint {
	if count < 2 {
		count = 2
	}

	points := make([]TrackPoint, 0, count)
	for i := 0; i < count; i++ {
		f := float64(i) / float64(count-1)

		speed := cruise
		switch {
		case f < 0.1:
			speed = cruise * f / 0.1
		case f > 0.9:
			speed = cruise * (1 - f) / 0.1
		}

		points = append(points, TrackPoint{
			Speed:     math.Round(speed*100) / 100,
			Latitude:  fromLat + (toLat-fromLat)*f,
			Longitude: fromLon + (toLon-fromLon)*f,
		})
	}
	return points
}
