package speedometer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rmrobinson/tgvspeed/lib/stream"
	"github.com/rmrobinson/tgvspeed/services/portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingDisplay struct {
	mu sync.Mutex

	title     string
	enabled   map[Action]bool
	stopTitle string
	stops     []StopEntry
	alerts    []string
	calls     int
}

func newRecordingDisplay() *recordingDisplay {
	return &recordingDisplay{
		enabled: map[Action]bool{},
	}
}

func (rd *recordingDisplay) SetTitle(title string) {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	rd.title = title
	rd.calls++
}

func (rd *recordingDisplay) SetActionEnabled(action Action, enabled bool) {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	rd.enabled[action] = enabled
	rd.calls++
}

func (rd *recordingDisplay) RebuildStopMenu(title string, entries []StopEntry) {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	rd.stopTitle = title
	rd.stops = entries
	rd.calls++
}

func (rd *recordingDisplay) ShowAlert(title, body string) {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	rd.alerts = append(rd.alerts, title)
	rd.calls++
}

func (rd *recordingDisplay) callCount() int {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	return rd.calls
}

type scriptedPoller struct {
	mu sync.Mutex

	samples []*portal.SpeedSample
	details *portal.TrainDetails
	gpsErr  error
	gpsHits int
}

func (sp *scriptedPoller) GPS(ctx context.Context) (*portal.SpeedSample, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	sp.gpsHits++
	if sp.gpsErr != nil || len(sp.samples) == 0 {
		return nil, errTimeout
	}
	s := sp.samples[0]
	if len(sp.samples) > 1 {
		sp.samples = sp.samples[1:]
	}
	return s, nil
}

func (sp *scriptedPoller) Details(ctx context.Context) (*portal.TrainDetails, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.details == nil {
		return nil, errTimeout
	}
	return sp.details, nil
}

type countingMetrics struct {
	mu        sync.Mutex
	polls     map[string]int
	available bool
	changes   int
}

func (cm *countingMetrics) PollObserve(endpoint string, d time.Duration, err error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.polls[endpoint]++
}

func (cm *countingMetrics) SetAvailable(available bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.available = available
}

func (cm *countingMetrics) SetSpeed(kmh float64) {}

func (cm *countingMetrics) DetailsChanged() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.changes++
}

func TestRunner_Ticks(t *testing.T) {
	poller := &scriptedPoller{
		samples: []*portal.SpeedSample{sample(50)},
		details: itinerary(),
	}
	display := newRecordingDisplay()
	metrics := &countingMetrics{polls: map[string]int{}}

	r := NewRunner(zaptest.NewLogger(t), poller, display, Config{
		Reconciler: Reconciler{Location: paris},
		Launcher:   &fakeLauncher{},
		Metrics:    metrics,
	})

	r.TickSpeed(context.Background())
	r.TickDetails(context.Background())

	assert.Equal(t, "🚄 180.0 km/h", display.title)
	assert.True(t, display.enabled[OpenJourney])
	assert.True(t, display.enabled[OpenMap])
	assert.Equal(t, "TGV INOUI 6611", display.stopTitle)
	assert.Len(t, display.stops, 2)

	calls := display.callCount()
	r.TickSpeed(context.Background())
	r.TickDetails(context.Background())
	assert.Equal(t, calls, display.callCount())

	assert.Equal(t, 2, metrics.polls["gps"])
	assert.Equal(t, 2, metrics.polls["details"])
	assert.Equal(t, 1, metrics.changes)
	assert.True(t, metrics.available)

	poller.mu.Lock()
	poller.gpsErr = errTimeout
	poller.mu.Unlock()

	r.TickSpeed(context.Background())
	assert.Equal(t, TitleUnavailable, display.title)
	assert.False(t, display.enabled[OpenMap])
	assert.False(t, metrics.available)
	assert.Equal(t, errTimeout.Error(), r.State().Display.LastError)
	assert.NotNil(t, r.State().Details)
}

func TestRunner_HandleAction(t *testing.T) {
	poller := &scriptedPoller{samples: []*portal.SpeedSample{sample(50)}}
	display := newRecordingDisplay()
	fl := &fakeLauncher{}

	r := NewRunner(zaptest.NewLogger(t), poller, display, Config{Launcher: fl})

	r.HandleAction(OpenMap, "")
	assert.Empty(t, fl.opened)

	r.TickSpeed(context.Background())
	r.HandleAction(OpenMap, "")
	r.HandleAction(ShowStatus, "")

	require.Len(t, fl.opened, 1)
	assert.Contains(t, fl.opened[0], "ll=48.85,2.35")
	assert.Equal(t, []string{"GPS"}, display.alerts)
}

func TestRunner_PublishesDeltas(t *testing.T) {
	source := stream.NewSource(zaptest.NewLogger(t))
	sink := source.NewSink()
	defer sink.Close()

	poller := &scriptedPoller{samples: []*portal.SpeedSample{sample(50)}}
	r := NewRunner(zaptest.NewLogger(t), poller, newRecordingDisplay(), Config{
		Launcher: &fakeLauncher{},
		Deltas:   source,
	})
	r.TickSpeed(context.Background())

	var got []stream.Message
	for i := 0; i < 3; i++ {
		got = append(got, <-sink.Messages())
	}
	assert.Equal(t, TitleDelta{Title: "🚄 180.0 km/h"}, got[2])
}

func TestRunner_Run(t *testing.T) {
	poller := &scriptedPoller{
		samples: []*portal.SpeedSample{sample(10), sample(20)},
		details: itinerary(),
	}
	display := newRecordingDisplay()

	r := NewRunner(zaptest.NewLogger(t), poller, display, Config{
		GPSInterval:     time.Second,
		DetailsInterval: time.Minute,
		Launcher:        &fakeLauncher{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- r.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return r.State().Display.Title == FormatTitle(20)
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}

	assert.NotNil(t, r.State().Details)
	assert.Equal(t, "TGV INOUI 6611", display.stopTitle)
}
