package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rivo/tview"
	"github.com/rmrobinson/tgvspeed/lib/stream"
	"github.com/rmrobinson/tgvspeed/services/portal"
	"github.com/rmrobinson/tgvspeed/services/speedometer"
	"github.com/rmrobinson/tgvspeed/services/speedometer/metrics"
	"github.com/rmrobinson/tgvspeed/services/ui/menubar/widget"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	flagVerbose         = "verbose"
	flagLocal           = "local"
	flagHeadless        = "headless"
	flagMetricsAddr     = "metrics-addr"
	flagDetailsPolicy   = "details-policy"
	flagBaseURL         = "base-url"
	flagGPSInterval     = "gps-interval"
	flagDetailsInterval = "details-interval"
	flagTimeout         = "timeout"

	shutdownTimeout = 3 * time.Second
)

func main() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	pflag.BoolP(flagVerbose, "v", false, "enable debug logging")
	pflag.Bool(flagLocal, false, "poll the GPS endpoint of a local portal simulator")
	pflag.CommandLine.MarkHidden(flagLocal)
	pflag.Bool(flagHeadless, false, "print display updates to stdout instead of drawing the menu")
	pflag.String(flagMetricsAddr, "", "address to expose Prometheus metrics on, disabled if empty")
	pflag.String(flagDetailsPolicy, speedometer.DetailsSticky.String(), "what happens to the stop menu when GPS is lost (sticky|clear)")
	pflag.String(flagBaseURL, portal.DefaultBaseURL, "base URL of the onboard portal")
	pflag.Duration(flagGPSInterval, speedometer.DefaultGPSInterval, "GPS polling interval")
	pflag.Duration(flagDetailsInterval, speedometer.DefaultDetailsInterval, "train details polling interval")
	pflag.Duration(flagTimeout, portal.DefaultTimeout, "timeout of a single portal request")
	pflag.Parse()

	viper.SetEnvPrefix("TGV")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.BindPFlags(pflag.CommandLine)

	policy, err := speedometer.ParseDetailsPolicy(viper.GetString(flagDetailsPolicy))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if viper.GetBool(flagVerbose) {
		level.SetLevel(zap.DebugLevel)
	}

	baseURL := strings.TrimSuffix(viper.GetString(flagBaseURL), "/")
	gpsURL := baseURL + portal.GPSPath
	if viper.GetBool(flagLocal) {
		gpsURL = portal.LocalGPSURL
	}
	detailsURL := baseURL + portal.DetailsPath

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := speedometer.Config{
		GPSInterval:     viper.GetDuration(flagGPSInterval),
		DetailsInterval: viper.GetDuration(flagDetailsInterval),
		Reconciler:      speedometer.Reconciler{Policy: policy},
	}
	timeout := viper.GetDuration(flagTimeout)
	metricsAddr := viper.GetString(flagMetricsAddr)

	if viper.GetBool(flagHeadless) {
		zcfg := zap.NewDevelopmentConfig()
		zcfg.Level = level
		logger, err := zcfg.Build()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer logger.Sync()

		runHeadless(ctx, logger, portal.NewClient(logger, gpsURL, detailsURL, timeout), cfg, metricsAddr)
		return
	}

	app := tview.NewApplication()
	debug := widget.NewDebug(app)

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(NewWidgetSink(debug)),
		level,
	)
	logger := zap.New(core)

	var runner *speedometer.Runner
	menu := widget.NewMenuBar(app, func(action speedometer.Action, arg string) {
		go runner.HandleAction(action, arg)
	})
	menu.AddRow(debug, 2)

	var stopMetrics func()
	cfg.Metrics, stopMetrics = startMetrics(logger, metricsAddr, cfg)
	defer stopMetrics()

	runner = speedometer.NewRunner(logger, portal.NewClient(logger, gpsURL, detailsURL, timeout), menu, cfg)

	if err := serveUI(ctx, app, menu, runner); err != nil {
		// The debug widget is gone once the UI has stopped.
		fmt.Fprintln(os.Stderr, err)
	}
}

func runHeadless(ctx context.Context, logger *zap.Logger, poller speedometer.Poller, cfg speedometer.Config, metricsAddr string) {
	source := stream.NewSource(logger)
	sink := source.NewSink()
	defer sink.Close()

	var stopMetrics func()
	cfg.Metrics, stopMetrics = startMetrics(logger, metricsAddr, cfg)
	defer stopMetrics()
	cfg.Deltas = source

	runner := speedometer.NewRunner(logger, poller, nopDisplay{}, cfg)

	go func() {
		for msg := range sink.Messages() {
			fmt.Println(msg.String())
		}
	}()

	if err := runner.Run(ctx); err != nil {
		logger.Fatal("runner failed",
			zap.Error(err),
		)
	}
}

// startMetrics returns a nil Metrics when addr is empty.
func startMetrics(logger *zap.Logger, addr string, cfg speedometer.Config) (speedometer.Metrics, func()) {
	if addr == "" {
		return nil, func() {}
	}

	gpsInterval := cfg.GPSInterval
	if gpsInterval <= 0 {
		gpsInterval = speedometer.DefaultGPSInterval
	}
	detailsInterval := cfg.DetailsInterval
	if detailsInterval <= 0 {
		detailsInterval = speedometer.DefaultDetailsInterval
	}

	collector := metrics.NewCollector(logger, gpsInterval, detailsInterval)
	srv := collector.Serve(addr)
	return collector, func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

// nopDisplay discards display updates; headless mode reads them from the delta stream.
type nopDisplay struct{}

func (nopDisplay) SetTitle(string)                                 {}
func (nopDisplay) SetActionEnabled(speedometer.Action, bool)       {}
func (nopDisplay) RebuildStopMenu(string, []speedometer.StopEntry) {}
func (nopDisplay) ShowAlert(string, string)                        {}
