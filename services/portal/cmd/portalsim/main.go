package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rmrobinson/tgvspeed/services/portal/sim"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	// Paris Gare de Lyon to Grenoble.
	fromLat = 48.8443
	fromLon = 2.3743
	toLat   = 45.1913
	toLon   = 5.7146

	cruiseSpeed     = 83.33
	syntheticPoints = 600
)

func main() {
	addr := pflag.String("addr", ":8000", "address to listen on")
	itineraryPath := pflag.String("itinerary", "", "YAML itinerary of the simulated train")
	trackPath := pflag.String("track", "", "CSV GPS track to replay")
	failEvery := pflag.Int("fail-every", 0, "every Nth GPS response reports success=false")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	cfg := zap.NewDevelopmentConfig()
	if !*verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, _ := cfg.Build()
	defer logger.Sync()

	itinerary := sim.DefaultItinerary()
	if *itineraryPath != "" {
		var err error
		itinerary, err = sim.LoadItinerary(*itineraryPath)
		if err != nil {
			logger.Fatal("unable to load itinerary",
				zap.String("path", *itineraryPath),
				zap.Error(err),
			)
		}
	}

	track := sim.SyntheticTrack(fromLat, fromLon, toLat, toLon, cruiseSpeed, syntheticPoints)
	if *trackPath != "" {
		f, err := os.Open(*trackPath)
		if err != nil {
			logger.Fatal("unable to open track",
				zap.String("path", *trackPath),
				zap.Error(err),
			)
		}
		track, err = sim.LoadTrack(f)
		f.Close()
		if err != nil {
			logger.Fatal("unable to load track",
				zap.String("path", *trackPath),
				zap.Error(err),
			)
		}
	}

	s := sim.NewServer(logger, itinerary, track, *failEvery, time.Now())
	srv := &http.Server{
		Addr:    *addr,
		Handler: s.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("simulating train",
		zap.String("addr", *addr),
		zap.String("carrier", itinerary.Carrier),
		zap.String("number", itinerary.Number),
		zap.Int("track_points", len(track)),
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("failed to serve",
			zap.Error(err),
		)
	}
}
