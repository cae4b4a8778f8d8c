// Package main implements the entry point for the log export pipeline. It
// reads structured log records from JetStream, normalizes them, and appends
// them row by row to an analytical table.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/kramano/log-export/config"
	"github.com/kramano/log-export/extract"
	"github.com/kramano/log-export/metric"
	"github.com/kramano/log-export/natsclient"
	"github.com/kramano/log-export/pipeline"
	"github.com/kramano/log-export/sink"
	"github.com/kramano/log-export/source"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "logexport"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	registry := metric.NewRegistry()
	metricsServer := startMetricsServer(cfg, registry)
	if metricsServer != nil {
		defer func() {
			if err := metricsServer.Stop(); err != nil {
				slog.Warn("metrics server stop failed", "error", err)
			}
		}()
	}

	natsClient, err := connectNATS(signalCtx, cfg, logger, registry.Metrics())
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
		defer cancel()
		if err := natsClient.Close(closeCtx); err != nil {
			slog.Warn("NATS close failed", "error", err)
		}
	}()

	writer, err := sink.NewPostgres(signalCtx, cfg.Sink, cfg.Pipeline.OutputTable,
		extract.NewExtractor().Schema(), logger)
	if err != nil {
		return fmt.Errorf("create sink: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
		defer cancel()
		if err := writer.Close(closeCtx); err != nil {
			slog.Warn("sink close failed", "error", err)
		}
	}()

	reader, err := source.NewReader(natsClient, source.Config{
		Stream:       cfg.Pipeline.Stream,
		Subscription: cfg.Pipeline.Subscription,
		Topic:        cfg.Pipeline.Topic,
		MaxMessages:  cfg.Pipeline.RunBoundedOver,
	}, logger)
	if err != nil {
		return fmt.Errorf("create reader: %w", err)
	}

	p, err := pipeline.New(cfg.Pipeline, cfg.Transform, pipeline.Dependencies{
		Source:    reader,
		Sink:      writer,
		Publisher: natsClient,
		Metrics:   registry.Metrics(),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	slog.Info("Starting log export run",
		"stream", cfg.Pipeline.Stream,
		"output_table", cfg.Pipeline.OutputTable)

	if err := p.Run(signalCtx); err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	slog.Info("Log export run complete")
	return nil
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting log export pipeline",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads the config file and applies CLI overrides.
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyOverrides(cfg, cliCfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyOverrides layers CLI source and destination flags over the file
// config. Selecting a source on the command line replaces the file's
// selection entirely so the two modes cannot end up combined.
func applyOverrides(cfg *config.Config, cliCfg *CLIConfig) {
	if cliCfg.Subscription != "" {
		cfg.Pipeline.Subscription = cliCfg.Subscription
		cfg.Pipeline.Topic = ""
	}
	if cliCfg.Topic != "" {
		cfg.Pipeline.Topic = cliCfg.Topic
		cfg.Pipeline.Subscription = ""
	}
	if cliCfg.RunBoundedOver > 0 {
		cfg.Pipeline.RunBoundedOver = cliCfg.RunBoundedOver
	}
	if cliCfg.OutputTable != "" {
		cfg.Pipeline.OutputTable = cliCfg.OutputTable
	}
}

// startMetricsServer starts the Prometheus endpoint when enabled.
func startMetricsServer(cfg *config.Config, registry *metric.Registry) *metric.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	go func() {
		slog.Info("Metrics server listening", "address", server.Address())
		if err := server.Start(); err != nil {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
	return server
}

// connectNATS establishes the NATS connection used by the source reader and
// the dead-letter publisher.
func connectNATS(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	metrics *metric.Metrics,
) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithName(appName),
		natsclient.WithLogger(logger),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
	}
	if cfg.NATS.ReconnectWait > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait))
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}

	natsClient, err := natsclient.NewClient(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("Connecting to NATS", "url", cfg.NATS.URL)
	if err := natsClient.Connect(connCtx); err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	metrics.RecordNATSStatus(true)

	return natsClient, nil
}
