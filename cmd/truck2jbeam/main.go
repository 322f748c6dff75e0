package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/truck2jbeam/truck2jbeam/internal/config"
	"github.com/truck2jbeam/truck2jbeam/internal/convert"
	"github.com/truck2jbeam/truck2jbeam/internal/logging"
	intOtel "github.com/truck2jbeam/truck2jbeam/internal/otel"
	"github.com/truck2jbeam/truck2jbeam/internal/worker"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "3.0.0"
	BuildDate      string = "unknown"

	ExtensionName string = "truck2jbeam"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	LogFilePath string
	LogFile     *os.File

	SessionStartTime time.Time = time.Now()
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, errHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if opts.Version {
		fmt.Fprintf(stdout, "%s %s (built %s)\n", ExtensionName, CurrentVersion, BuildDate)
		return 0
	}

	configErr := loadConfig(opts.ConfigFile)
	setupLogging(opts, stdout)
	defer shutdown()

	switch {
	case configErr == nil:
		Logger.Debug("Loaded config")
	case errors.Is(configErr, config.ErrNotFound) && opts.ConfigFile == "":
		Logger.Debug("No config file found, using defaults")
	default:
		SlogManager.WriteLog("loadConfig", fmt.Sprintf("Failed to load config, using defaults: %v", configErr), "WARN")
	}

	templates, err := config.GetTemplates()
	if err != nil {
		Logger.Warn("Failed to load custom templates", "error", err)
		templates = config.BuiltinTemplates()
	}
	if opts.ListTemplates {
		printTemplates(stdout, templates)
		return 0
	}

	files, rejected, err := collectFiles(opts)
	if err != nil {
		Logger.Error(err.Error())
		return 1
	}
	if len(files) == 0 && len(rejected) == 0 {
		newFlagSet(&cliOptions{}, stderr).Usage()
		return 1
	}
	if len(files) == 0 {
		Logger.Error("No valid rig files found to process")
		return 1
	}
	if len(rejected) > 0 {
		Logger.Warn(fmt.Sprintf("Skipping %d invalid files", len(rejected)), "files", rejected)
	}

	settings := config.GetConversionSettings()
	if opts.StrictValidation {
		settings.StrictValidation = true
	}
	if opts.IncludeStats {
		settings.IncludeStatistics = true
	}

	converter := convert.New(convert.Options{
		OutputDir:             opts.OutputDir,
		Backup:                opts.Backup,
		DryRun:                opts.DryRun,
		Force:                 opts.Force,
		Author:                opts.Author,
		MinMass:               opts.MinMass,
		Template:              opts.Template,
		Templates:             templates,
		NoTransformProperties: opts.NoTransformProperties,
		NoDuplicateResolution: opts.NoDuplicateResolution,
		DAEDir:                opts.ProcessDAE,
		DAEOutput:             opts.DAEOutput,
		Preview:               opts.Preview,
		PreviewConfig:         config.GetPreviewConfig(),
		Settings:              settings,
	}, Logger)

	history := initStorage()
	if history != nil {
		defer closeStorage(history)
	}
	metrics, closeMetrics := initInflux()
	defer closeMetrics()

	deps := worker.Dependencies{
		Converter: converter,
		History:   history,
		Logger:    Logger,
		Workers:   opts.Workers,
	}
	if metrics != nil {
		deps.Metrics = metrics
	}
	if OTelProvider != nil {
		deps.Meter = OTelProvider.Meter("truck2jbeam/worker")
	}
	stopProgress := func() {}
	if len(files) > 1 {
		deps.Progress, stopProgress = newProgress(len(files), opts.Verbose, stderr, Logger)
	}
	manager, err := worker.NewManager(deps)
	if err != nil {
		Logger.Error("Failed to start workers", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	Logger.Info(fmt.Sprintf("Processing %d files...", len(files)), "workers", manager.Workers())
	summary := manager.Run(ctx, files)
	stopProgress()

	if len(files) > 1 || opts.Verbose {
		printSummary(stdout, summary)
	}
	if summary.Run.Failed > 0 || summary.Cancelled {
		return 1
	}
	return 0
}

// loadConfig reads the explicit config file, or truck2jbeam.cfg.json from
// the working directory.
func loadConfig(path string) error {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

func setupLogging(opts cliOptions, stdout io.Writer) {
	level := viper.GetString("logLevel")
	if opts.Verbose {
		level = "debug"
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.RunContext = func() []slog.Attr {
		var attrs []slog.Attr
		if opts.Template != "" {
			attrs = append(attrs, slog.String("template", opts.Template))
		}
		if opts.DryRun {
			attrs = append(attrs, slog.Bool("dryRun", true))
		}
		return attrs
	}

	var logWriter io.Writer
	if logsDir := viper.GetString("logsDir"); logsDir != "" {
		var err error
		LogFilePath = logging.LogFilePath(logsDir, ExtensionName, SessionStartTime)
		LogFile, err = logging.OpenLogFile(logsDir, ExtensionName, SessionStartTime)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create/open log file %s: %v\n", LogFilePath, err)
		} else {
			logWriter = io.MultiWriter(LogFile, stdout)
		}
	}

	var extra []logging.Sink
	if viper.GetBool("graylog.enabled") {
		sink, closer, err := logging.NewGELFSink(viper.GetString("graylog.address"), level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set up Graylog: %v\n", err)
		} else {
			extra = append(extra, sink)
			SlogManager.AddCloser(closer)
		}
	}

	var otelErr error
	var otelLogProvider *sdklog.LoggerProvider
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var sink io.Writer
		if LogFile != nil {
			sink = LogFile
		}
		OTelProvider, otelErr = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: CurrentVersion,
			BatchTimeout:   otelCfg.BatchTimeout,
			MetricInterval: otelCfg.MetricInterval,
			LogWriter:      sink,
			MetricWriter:   sink,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if otelErr == nil {
			otelLogProvider = OTelProvider.LoggerProvider()
		}
	}

	if logWriter == nil {
		logWriter = stdout
	}
	SlogManager.Setup(logWriter, level, otelLogProvider, extra...)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)

	if LogFile != nil {
		Logger.Debug("Logging to file", "path", LogFilePath)
	}
	if otelErr != nil {
		Logger.Error("Failed to initialize OTel provider", "error", otelErr)
	} else if OTelProvider != nil {
		Logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
	}
}

func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Error("Failed to shut down OTel provider", "error", err)
		}
	}
	if SlogManager != nil {
		for sink, n := range SlogManager.Dropped() {
			fmt.Fprintf(os.Stderr, "%d log records could not be delivered to %s\n", n, sink)
		}
		_ = SlogManager.Close()
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}
