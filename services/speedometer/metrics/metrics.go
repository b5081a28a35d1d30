package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector exposes poll and display metrics on a private registry.
type Collector struct {
	logger *zap.Logger
	reg    *prometheus.Registry

	Polls          *prometheus.CounterVec // labels: endpoint, outcome
	PollDuration   *prometheus.HistogramVec
	Available      prometheus.Gauge
	SpeedKmh       prometheus.Gauge
	DetailsChanges prometheus.Counter

	GPSInterval     prometheus.Gauge // seconds
	DetailsInterval prometheus.Gauge // seconds
}

// NewCollector creates and registers all metrics.
func NewCollector(logger *zap.Logger, gpsInterval, detailsInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		logger: logger,
		reg:    reg,
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tgvspeed_polls_total",
			Help: "Portal polls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		PollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tgvspeed_poll_duration_seconds",
			Help:    "Duration of portal polls.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 8),
		}, []string{"endpoint"}),
		Available: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tgvspeed_gps_available",
			Help: "1 if the last GPS poll succeeded, 0 otherwise.",
		}),
		SpeedKmh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tgvspeed_speed_kmh",
			Help: "Last reported train speed in km/h.",
		}),
		DetailsChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tgvspeed_details_changes_total",
			Help: "Number of times the itinerary changed.",
		}),
		GPSInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tgvspeed_gps_interval_seconds",
			Help: "GPS poll interval in seconds.",
		}),
		DetailsInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tgvspeed_details_interval_seconds",
			Help: "Details poll interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.Polls, c.PollDuration,
		c.Available, c.SpeedKmh, c.DetailsChanges,
		c.GPSInterval, c.DetailsInterval,
	)

	c.GPSInterval.Set(gpsInterval.Seconds())
	c.DetailsInterval.Set(detailsInterval.Seconds())

	return c
}

// PollObserve records the outcome of a single poll.
func (c *Collector) PollObserve(endpoint string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.Polls.WithLabelValues(endpoint, outcome).Inc()
	c.PollDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// SetAvailable records the GPS availability.
func (c *Collector) SetAvailable(available bool) {
	if available {
		c.Available.Set(1)
	} else {
		c.Available.Set(0)
	}
}

// SetSpeed records the current speed.
func (c *Collector) SetSpeed(kmh float64) { c.SpeedKmh.Set(kmh) }

// DetailsChanged counts an itinerary change.
func (c *Collector) DetailsChanged() { c.DetailsChanges.Inc() }

// Handler serves the registry.
func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Error("metrics server error",
				zap.Error(err),
			)
		}
	}()
	c.logger.Info("metrics listening",
		zap.String("addr", addr),
	)
	return srv
}
