package daemon

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driptide/irrigationd/config"
	"github.com/driptide/irrigationd/internal/alerts"
	"github.com/driptide/irrigationd/internal/controller"
	"github.com/driptide/irrigationd/internal/engine"
	"github.com/driptide/irrigationd/internal/filter"
	"github.com/driptide/irrigationd/internal/hardware"
	"github.com/driptide/irrigationd/internal/history"
	"github.com/driptide/irrigationd/internal/interlock"
	"github.com/driptide/irrigationd/internal/params"
	"github.com/driptide/irrigationd/internal/telemetry"
	"github.com/driptide/irrigationd/services/console"
	"github.com/driptide/irrigationd/services/health"
	"github.com/driptide/irrigationd/services/status"
	"github.com/driptide/irrigationd/services/transitions"
	"github.com/driptide/irrigationd/utils"
	"github.com/joho/godotenv"
)

const (
	DEFAULT_SERVER_PORT          = "8080"
	DEFAULT_CONFIG_FILE_LOCATION = "./config/config.json"
)

// Used by "flag" to read command line arguments
var (
	cmdLineFlagMockHardware bool
	cmdLineFlagLogLevel     string
	cmdLineFlagStdioConsole bool
)

type DaemonConfig struct {
	mux                *http.ServeMux
	ServerPort         string
	UseMockHardware    bool
	StdioConsole       bool
	LogFileLocation    string
	ConfigFileLocation string
	LogFile            *os.File

	Settings    config.Settings
	Kit         hardware.Kit
	Thresholds  *params.Store
	Transitions history.Store
}

// init will read and initialize the global command line variables
func init() {
	flag.BoolVar(&cmdLineFlagMockHardware, "use_mock_hardware", false, "Indicate if we should use mock hardware for the daemon instance.")
	flag.StringVar(&cmdLineFlagLogLevel, "log_level", config.DefaultLogLevel.String(), "The log level to start the daemon at")
	flag.BoolVar(&cmdLineFlagStdioConsole, "console", false, "Attach an interactive command console to stdin/stdout.")
}

// Initialize wires the daemon together and runs it until a signal arrives.
func Initialize() error {
	slog.Debug(">>Initialize")
	defer slog.Debug("<<Initialize")

	dc, err := initializeDaemonConfig()
	if err != nil {
		return err
	}

	defer dc.LogFile.Close()
	defer dc.Kit.Close()
	defer dc.Transitions.Close()

	return dc.runDaemon()
}

func initializeDaemonConfig() (DaemonConfig, error) {
	slog.Info(">>initializeDaemonConfig")
	defer slog.Info("<<initializeDaemonConfig")

	dc := DaemonConfig{}

	// MUST BE FIRST
	dc.readEnvironmentVariables()

	// configure slog
	dc.configureLogger()

	settings, err := config.LoadSettings(dc.ConfigFileLocation)
	if err != nil {
		return dc, fmt.Errorf("failed to load config file: %w", err)
	}
	dc.Settings = settings

	kit, err := openHardware(settings.Hardware, dc.UseMockHardware)
	if err != nil {
		return dc, fmt.Errorf("failed to initialize hardware: %w", err)
	}
	dc.Kit = kit

	dc.Thresholds = params.NewStore(settings.Storage.ThresholdsPath)

	store, err := openTransitionStore(settings.Storage.TransitionsPath)
	if err != nil {
		kit.Close()
		return dc, fmt.Errorf("failed to open the transition store: %w", err)
	}
	dc.Transitions = store

	return dc, nil
}

func (dc *DaemonConfig) readEnvironmentVariables() {
	slog.Info(">>readEnvironmentVariables")
	defer slog.Info("<<readEnvironmentVariables")

	// load the environment
	err := godotenv.Load()
	if err != nil {
		slog.Warn("could not load .env file", "error", err)
	}

	dc.ServerPort = os.Getenv("PORT")
	if len(dc.ServerPort) == 0 {
		dc.ServerPort = DEFAULT_SERVER_PORT
	}

	dc.LogFileLocation = os.Getenv("LOG_FILE_LOCATION")

	dc.ConfigFileLocation = os.Getenv("CONFIG_FILE_LOCATION")
	if len(dc.ConfigFileLocation) == 0 {
		dc.ConfigFileLocation = DEFAULT_CONFIG_FILE_LOCATION
	}

	dc.UseMockHardware = cmdLineFlagMockHardware
	dc.StdioConsole = cmdLineFlagStdioConsole
}

// configureLogger will initialize slog to stderr or a log file and set the
// starting level from the command line.
func (dc *DaemonConfig) configureLogger() {
	slog.Info(">>configureLogger")
	defer slog.Info("<<configureLogger")

	currentLevel := new(slog.LevelVar)

	level, err := utils.ParseLogLevel(cmdLineFlagLogLevel)
	if err != nil {
		slog.Error("Failed to parse the log level, setting to DefaultLogLevel", "error", err, "log_level", cmdLineFlagLogLevel)
		level = config.DefaultLogLevel
	}

	currentLevel.Set(level)

	// by default we will write to stderr
	logFile := os.Stderr
	if len(dc.LogFileLocation) != 0 {
		slog.Info("Save to log file", "file", dc.LogFileLocation)
		logFile, err = os.OpenFile(dc.LogFileLocation, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			slog.Error("Failed to open log file", "error", err)
			os.Exit(1)
		}
	}

	fileHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: currentLevel})

	slog.SetDefault(slog.New(fileHandler))

	dc.LogFile = logFile
}

func openHardware(cfg hardware.Config, useMock bool) (hardware.Kit, error) {
	if useMock {
		slog.Warn("using mock hardware")
		return hardware.NewMockKit(), nil
	}

	return hardware.NewHardwareKit(cfg)
}

func openTransitionStore(path string) (history.Store, error) {
	if len(path) == 0 {
		slog.Warn("transition history disabled, no storage path configured")
		return history.NoopStore{}, nil
	}

	return history.NewSQLiteStore(path)
}

// runDaemon starts the control loop, the command transports and the HTTP
// surface, then blocks until shutdown.
func (dc *DaemonConfig) runDaemon() error {
	slog.Info(">>runDaemon")
	defer slog.Info("<<runDaemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := controllerConfigFromSettings(dc.Settings.Control)

	// saved thresholds trump the compiled-in defaults
	if limits, ok := dc.Thresholds.Load(); ok {
		cfg.DryThreshold = limits.Dry
		cfg.WetThreshold = limits.Wet
		slog.Info("loaded saved thresholds", "dry", limits.Dry, "wet", limits.Wet)
	}

	ctrl, err := controller.New(cfg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to initialize the controller: %w", err)
	}

	if ctrl.ThresholdsOverlap() {
		dry, wet := ctrl.Thresholds()
		slog.Warn("dry/wet thresholds overlap, watering may never complete normally", "dry", dry, "wet", wet)
	}

	soil, err := filter.NewMovingAverage(dc.Settings.Control.FilterWindow)
	if err != nil {
		return fmt.Errorf("failed to initialize the soil filter: %w", err)
	}

	tank := interlock.New(interlock.Config{
		Enabled:        dc.Settings.Tank.Enabled,
		HighMeansWater: dc.Settings.Tank.HighMeansWater,
	}, dc.Kit.ReadTankSignal)

	dry, wet := ctrl.Thresholds()
	tracker := telemetry.NewTracker(telemetry.Snapshot{
		State:        ctrl.State(),
		DryThreshold: dry,
		WetThreshold: wet,
		TankOK:       true,
		At:           time.Now(),
	})

	dispatcher, err := alerts.NewDispatcherFromEnv()
	if err != nil {
		return err
	}

	hub := console.NewHub()

	eng, err := engine.New(engine.Config{
		SampleInterval: dc.Settings.Sampling.SampleInterval(),
		StatusInterval: dc.Settings.Sampling.StatusInterval(),
	}, engine.Deps{
		Kit:         dc.Kit,
		Controller:  ctrl,
		Filter:      soil,
		Tank:        tank,
		Thresholds:  dc.Thresholds,
		Transitions: dc.Transitions,
		Tracker:     tracker,
		Broadcast:   hub,
		Alerts:      dispatcher,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize the engine: %w", err)
	}

	go dispatcher.Run(ctx)

	engineDone := make(chan error, 1)
	go func() {
		engineDone <- eng.Run(ctx)
	}()

	consoleServer := console.NewServer(dc.Settings.Console.ListenAddress, hub, eng)
	go func() {
		if err := consoleServer.Run(ctx); err != nil {
			slog.Error("console listener failed", "error", err)
		}
	}()

	if dc.StdioConsole {
		go runStdioConsole(ctx, hub, eng)
	}

	dc.mux = http.NewServeMux()

	healthHandler := health.NewHandler()
	healthHandler.RegisterRoutes(dc.mux)

	statusHandler := status.NewHandler(tracker, dc.Settings.Server.OriginPatterns)
	statusHandler.RegisterRoutes(dc.mux)

	transitionsHandler := transitions.NewHandler(dc.Transitions)
	transitionsHandler.RegisterRoutes(dc.mux)

	consoleHandler := console.NewHandler(hub, eng, dc.Settings.Server.OriginPatterns)
	consoleHandler.RegisterRoutes(dc.mux)

	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", dc.ServerPort),
		Handler: dc.mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting server", "port", dc.ServerPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
	}

	// make sure the control loop rested the pump before tearing down
	stop()
	return <-engineDone
}

func controllerConfigFromSettings(cs config.ControlSettings) controller.Config {
	return controller.Config{
		MaxReading:   cs.MaxReading,
		DryThreshold: cs.DryThreshold,
		WetThreshold: cs.WetThreshold,
		LowMeansDry:  cs.LowMeansDry,
		MinRun:       cs.MinRun(),
		MaxRun:       cs.MaxRun(),
		Cooldown:     cs.Cooldown(),
	}
}

func runStdioConsole(ctx context.Context, hub *console.Hub, exec console.Executor) {
	slog.Info("attaching a console to stdin/stdout")

	stdio := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}

	if err := console.Serve(ctx, stdio, hub, exec); err != nil {
		slog.Error("stdio console failed", "error", err)
	}
}
