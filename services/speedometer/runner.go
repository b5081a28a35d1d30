package speedometer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/rmrobinson/tgvspeed/lib/stream"
	"github.com/rmrobinson/tgvspeed/services/portal"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// DefaultGPSInterval is how often the GPS endpoint is polled.
	DefaultGPSInterval = 2 * time.Second
	// DefaultDetailsInterval is how often the train details endpoint is polled.
	DefaultDetailsInterval = 30 * time.Second
)

// Poller retrieves the latest data from the portal.
type Poller interface {
	GPS(ctx context.Context) (*portal.SpeedSample, error)
	Details(ctx context.Context) (*portal.TrainDetails, error)
}

// Metrics records runner activity. A nil Metrics is valid.
type Metrics interface {
	PollObserve(endpoint string, d time.Duration, err error)
	SetAvailable(available bool)
	SetSpeed(kmh float64)
	DetailsChanged()
}

// Config holds the runner settings.
type Config struct {
	// Intervals shorter than a second are rounded up to a second by the scheduler.
	GPSInterval     time.Duration
	DetailsInterval time.Duration

	Reconciler Reconciler
	Launcher   Launcher

	Metrics Metrics
	// Deltas, when set, receives every delta applied to the display.
	Deltas *stream.Source
}

// Runner schedules both pollers and owns the reconciler state.
// Poll callbacks run on scheduler goroutines, so every access to the state is serialized by mu.
type Runner struct {
	logger  *zap.Logger
	poller  Poller
	display Display

	gpsInterval     time.Duration
	detailsInterval time.Duration

	reconciler Reconciler
	actions    *Actions
	metrics    Metrics
	deltas     *stream.Source

	mu    sync.Mutex
	state State
}

// NewRunner creates a runner rendering to display.
func NewRunner(logger *zap.Logger, poller Poller, display Display, cfg Config) *Runner {
	if cfg.GPSInterval <= 0 {
		cfg.GPSInterval = DefaultGPSInterval
	}
	if cfg.DetailsInterval <= 0 {
		cfg.DetailsInterval = DefaultDetailsInterval
	}
	if cfg.Launcher == nil {
		cfg.Launcher = NewCommandLauncher(logger)
	}

	return &Runner{
		logger:          logger,
		poller:          poller,
		display:         display,
		gpsInterval:     cfg.GPSInterval,
		detailsInterval: cfg.DetailsInterval,
		reconciler:      cfg.Reconciler,
		actions:         NewActions(logger, cfg.Launcher),
		metrics:         cfg.Metrics,
		deltas:          cfg.Deltas,
		state:           NewState(),
	}
}

// Run renders the initial state, polls both endpoints once, then keeps polling on schedule
// until ctx is cancelled. It returns once every in-flight poll has completed.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("run started",
		zap.Duration("gps_interval", r.gpsInterval),
		zap.Duration("details_interval", r.detailsInterval),
		zap.Stringer("details_policy", r.reconciler.Policy),
	)

	r.mu.Lock()
	r.apply(InitialDeltas(r.state))
	r.mu.Unlock()

	cl := cronLogger{r.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(everySpec(r.gpsInterval), func() { r.TickSpeed(ctx) }); err != nil {
		return err
	}
	if _, err := c.AddFunc(everySpec(r.detailsInterval), func() { r.TickDetails(ctx) }); err != nil {
		return err
	}

	r.TickSpeed(ctx)
	r.TickDetails(ctx)

	c.Start()
	<-ctx.Done()

	r.logger.Info("context closed, completing run")
	<-c.Stop().Done()
	return nil
}

// TickSpeed polls the GPS endpoint once and applies the result.
func (r *Runner) TickSpeed(ctx context.Context) {
	start := time.Now()
	sample, err := r.poller.GPS(ctx)
	if r.metrics != nil {
		r.metrics.PollObserve("gps", time.Since(start), err)
	}
	if err != nil {
		r.logger.Debug("gps poll failed",
			zap.Error(err),
		)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.state.Availability
	next, deltas := r.reconciler.Speed(r.state, sample, err)
	r.state = next
	r.apply(deltas)

	if prev != next.Availability {
		r.logger.Info("gps availability changed",
			zap.Stringer("availability", next.Availability),
		)
	}
	if r.metrics != nil {
		r.metrics.SetAvailable(next.Availability == Available)
		if next.Sample != nil {
			r.metrics.SetSpeed(next.Sample.KilometresPerHour())
		}
	}
}

// TickDetails polls the train details endpoint once and applies the result.
func (r *Runner) TickDetails(ctx context.Context) {
	start := time.Now()
	details, err := r.poller.Details(ctx)
	if r.metrics != nil {
		r.metrics.PollObserve("details", time.Since(start), err)
	}
	if err != nil {
		r.logger.Debug("details poll failed",
			zap.Error(err),
		)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next, deltas := r.reconciler.Details(r.state, details, err)
	r.state = next
	if len(deltas) > 0 {
		r.logger.Debug("train details changed",
			zap.String("details", spew.Sdump(next.Details)),
		)
		if r.metrics != nil {
			r.metrics.DetailsChanged()
		}
	}
	r.apply(deltas)
}

// HandleAction dispatches a user action against the current state.
// Launching a URL happens outside the lock.
func (r *Runner) HandleAction(action Action, arg string) {
	snapshot := r.State()

	deltas, err := r.actions.Dispatch(snapshot, action, arg)
	if err != nil {
		r.logger.Warn("action failed",
			zap.Stringer("action", action),
			zap.Error(err),
		)
	}
	if len(deltas) == 0 {
		return
	}

	r.mu.Lock()
	r.apply(deltas)
	r.mu.Unlock()
}

// State returns a copy of the current reconciler state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// apply must be called with mu held.
func (r *Runner) apply(deltas []Delta) {
	for _, d := range deltas {
		r.logger.Debug("applying delta",
			zap.Stringer("delta", d),
		)
		d.Apply(r.display)
		if r.deltas != nil {
			r.deltas.SendMessage(d)
		}
	}
}

func everySpec(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (cl cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.logger.Debugw(msg, keysAndValues...)
}

func (cl cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	cl.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
