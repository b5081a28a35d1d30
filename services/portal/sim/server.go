package sim

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server imitates the onboard portal. Every GPS request advances the train one track point.
type Server struct {
	logger    *zap.Logger
	itinerary *Itinerary
	track     []TrackPoint
	failEvery int
	departure time.Time

	mu      sync.Mutex
	gpsHits int
}

// NewServer creates a simulator replaying track along itinerary, departing at departure.
// When failEvery is positive every failEvery-th GPS response reports success=false.
func NewServer(logger *zap.Logger, itinerary *Itinerary, track []TrackPoint, failEvery int, departure time.Time) *Server {
	return &Server{
		logger:    logger,
		itinerary: itinerary,
		track:     track,
		failEvery: failEvery,
		departure: departure,
	}
}

// Router returns the HTTP routes served by the simulator.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/gps.json", s.handleGPS)
	r.Get("/details.json", s.handleDetails)
	r.Route("/router/api/train", func(r chi.Router) {
		r.Get("/gps", s.handleGPS)
		r.Get("/details", s.handleDetails)
	})

	return r
}

type gpsResponse struct {
	Success   bool    `json:"success"`
	Speed     float64 `json:"speed"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

type progressResponse struct {
	ProgressPercentage float64 `json:"progressPercentage"`
	TraveledDistance   float64 `json:"traveledDistance"`
	RemainingDistance  float64 `json:"remainingDistance"`
}

type stopResponse struct {
	Code        string            `json:"code"`
	Label       string            `json:"label"`
	TheoricDate string            `json:"theoricDate"`
	RealDate    string            `json:"realDate"`
	IsDelayed   bool              `json:"isDelayed"`
	Delay       int               `json:"delay"`
	DelayReason string            `json:"delayReason,omitempty"`
	Progress    *progressResponse `json:"progress,omitempty"`
}

type detailsResponse struct {
	Carrier string         `json:"carrier"`
	Number  string         `json:"number"`
	Stops   []stopResponse `json:"stops"`
}

func (s *Server) handleGPS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.gpsHits++
	hit := s.gpsHits
	s.mu.Unlock()

	if s.failEvery > 0 && hit%s.failEvery == 0 {
		writeJSON(w, map[string]bool{"success": false})
		return
	}

	point := s.track[s.position(hit)]
	writeJSON(w, gpsResponse{
		Success:   true,
		Speed:     point.Speed,
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
		Timestamp: time.Now().Unix(),
	})
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	hit := s.gpsHits
	s.mu.Unlock()

	writeJSON(w, s.details(s.progress(hit)))
}

// position maps the n-th GPS request to a track index, holding the train at the terminus.
func (s *Server) position(hit int) int {
	idx := hit - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(s.track) {
		idx = len(s.track) - 1
	}
	return idx
}

// progress is the fraction of the trip completed after hit GPS requests.
func (s *Server) progress(hit int) float64 {
	if hit == 0 || len(s.track) < 2 {
		return 0
	}
	return float64(s.position(hit)) / float64(len(s.track)-1)
}

func (s *Server) details(progress float64) detailsResponse {
	total := s.itinerary.Duration()
	first := s.itinerary.Stops[0].Offset

	resp := detailsResponse{
		Carrier: s.itinerary.Carrier,
		Number:  s.itinerary.Number,
	}
	for _, stop := range s.itinerary.Stops {
		scheduled := s.departure.Add(stop.Offset)
		actual := scheduled.Add(time.Duration(stop.Delay) * time.Minute)

		stopFraction := 0.0
		if total > 0 {
			stopFraction = float64(stop.Offset-first) / float64(total)
		}

		p := &progressResponse{
			RemainingDistance: 100 * (stopFraction - progress),
		}
		if progress > 0 && progress >= stopFraction {
			p.ProgressPercentage = 100
			p.TraveledDistance = 100 * (progress - stopFraction)
			p.RemainingDistance = 0
		}

		resp.Stops = append(resp.Stops, stopResponse{
			Code:        stop.Code,
			Label:       stop.Label,
			TheoricDate: scheduled.Format(time.RFC3339),
			RealDate:    actual.Format(time.RFC3339),
			IsDelayed:   stop.Delay > 0,
			Delay:       stop.Delay,
			DelayReason: stop.DelayReason,
			Progress:    p,
		})
	}
	return resp
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("served request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
