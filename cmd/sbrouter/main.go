// Package main implements the entry point for the ServiceBus message
// router. The router accepts client connections over TCP, assigns each a
// unique cookie, and forwards wire frames between clients by target cookie.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/servicebus/component"
	"github.com/c360/servicebus/ipc"
	"github.com/c360/servicebus/metric"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "sbrouter"
)

func main() {
	// Add panic recovery
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
	cfg := parseFlags()
	if err := validateFlags(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting ServiceBus message router",
		"version", Version,
		"build_time", BuildTime,
		"host", cfg.Host,
		"port", cfg.Port)

	metricsRegistry := metric.NewMetricsRegistry()

	componentLogger, natsConn := setupRemoteLogging(cfg, logger)
	if natsConn != nil {
		defer natsConn.Close()
	}

	router := ipc.NewRouter(
		ipc.RouterConfig{
			Host:      cfg.Host,
			Port:      uint16(cfg.Port),
			Workers:   cfg.Workers,
			QueueSize: cfg.QueueSize,
		},
		ipc.WithRouterLogger(logger),
		ipc.WithRouterMetrics(metricsRegistry),
	)

	if cfg.MetricsPort > 0 {
		startMetricsServer(cfg.MetricsPort, metricsRegistry, logger)
	}

	return runWithSignalHandling(router, componentLogger, cfg.ShutdownTimeout)
}

// setupRemoteLogging connects to NATS for remote log streaming when a URL
// is configured. The router works without it.
func setupRemoteLogging(cfg *CLIConfig, logger *slog.Logger) (*component.Logger, *nats.Conn) {
	hostname, _ := os.Hostname()

	if cfg.NATSUrl == "" {
		return component.NewLogger(appName, hostname, nil, logger), nil
	}

	nc, err := nats.Connect(cfg.NATSUrl,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		slog.Warn("NATS connection failed, remote log streaming disabled",
			"url", cfg.NATSUrl, "error", err)
		return component.NewLogger(appName, hostname, nil, logger), nil
	}

	slog.Info("Remote log streaming enabled", "url", cfg.NATSUrl)
	return component.NewLogger(appName, hostname, nc, logger), nc
}

// startMetricsServer exposes the prometheus registry over HTTP.
func startMetricsServer(port int, registry *metric.MetricsRegistry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		registry.PrometheusRegistry(),
		promhttp.HandlerOpts{},
	))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
}

// runWithSignalHandling starts the router and blocks until a shutdown
// signal arrives.
func runWithSignalHandling(router *ipc.Router, logger *component.Logger, shutdownTimeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := router.Start(signalCtx); err != nil {
		return fmt.Errorf("start router: %w", err)
	}
	logger.Info("message router started")

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	if err := router.Stop(shutdownTimeout); err != nil {
		logger.Error("graceful shutdown failed", err)
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("message router shutdown complete")
	return nil
}
