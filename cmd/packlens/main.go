// Package main implements the packlens viewer entry point. The binary
// bridges a NATS-based decode service to browser viewers: it maintains one
// windowed session over the decoded entity stream and exposes it through a
// WebSocket gateway.
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

	"github.com/WeiyueSUN/packlens-audio-preview/gateway"
	"github.com/WeiyueSUN/packlens-audio-preview/health"
	"github.com/WeiyueSUN/packlens-audio-preview/metric"
	"github.com/WeiyueSUN/packlens-audio-preview/remote"
	"github.com/WeiyueSUN/packlens-audio-preview/session"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "packlens"
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
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := LoadConfig(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	mergeFlags(cfg, cliCfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	slog.Info("Starting packlens viewer",
		"version", Version,
		"build_time", BuildTime,
		"nats_url", cfg.NATS.URL,
		"listen", cfg.Viewer.ListenAddr,
		"page_size", cfg.Session.PageSize)

	// Metrics registry is created regardless; the HTTP exposition server
	// only starts when enabled.
	metricsRegistry := metric.NewMetricsRegistry()

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
	}

	conn, err := connectNATS(cfg, metricsRegistry, logger)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer conn.Close()

	svc, err := remote.New(conn,
		remote.WithSubjectPrefix(cfg.NATS.SubjectPrefix),
		remote.WithTimeout(cfg.RequestTimeout()),
		remote.WithLogger(logger.With("component", "remote")),
	)
	if err != nil {
		return fmt.Errorf("decode service: %w", err)
	}

	sessionOpts := []session.Option{
		session.WithLogger(logger.With("component", "session")),
		session.WithPageCapacity(cfg.Session.PageCapacity),
		session.WithMetricsRegistry(metricsRegistry),
	}
	if cfg.Session.FilterScript != "" {
		sessionOpts = append(sessionOpts, session.WithFilterScript(cfg.Session.FilterScript))
	}
	if cfg.Session.SourcePath != "" {
		sessionOpts = append(sessionOpts, session.WithSourceWatch(cfg.Session.SourcePath))
	}

	sess, err := session.New(svc, cfg.Session.PageSize, sessionOpts...)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	gw := gateway.New(sess, gateway.WithLogger(logger.With("component", "gateway")))

	mux := http.NewServeMux()
	gw.RegisterHTTPHandlers("/viewer", mux)
	mux.Handle("/healthz", health.NewHandler(appName,
		transportChecker(conn),
		sessionChecker(sess),
	))

	server := &http.Server{
		Addr:              cfg.Viewer.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Viewer endpoint listening", "addr", cfg.Viewer.ListenAddr, "path", "/viewer")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Block until a shutdown signal or a server failure.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("viewer server: %w", err)
	}

	return shutdown(server, sess, metricsServer, cliCfg.ShutdownTimeout)
}

// transportChecker reports the NATS connection state.
func transportChecker(conn *nats.Conn) health.Checker {
	return health.CheckerFunc(func() health.Status {
		switch conn.Status() {
		case nats.CONNECTED:
			return health.NewHealthy("transport", "connected")
		case nats.RECONNECTING:
			return health.NewDegraded("transport", "reconnecting")
		default:
			return health.NewUnhealthy("transport", conn.Status().String())
		}
	})
}

// sessionChecker reports window occupancy and blob pressure.
func sessionChecker(sess *session.Session) health.Checker {
	return health.CheckerFunc(func() health.Status {
		stats := sess.Stats()
		return health.NewHealthy("session", "ok").WithMetrics(&health.Metrics{
			PagesLoaded: int64(stats.MaxPage),
			BlobCount:   int64(stats.Blobs.Count),
			BlobBytes:   stats.Blobs.TotalBytes,
		})
	})
}

// connectNATS dials the decode bus with reconnect handling wired into the
// transport gauge.
func connectNATS(cfg *Config, registry *metric.MetricsRegistry, logger *slog.Logger) (*nats.Conn, error) {
	core := registry.CoreMetrics()

	return nats.Connect(cfg.NATS.URL,
		nats.Name(appName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ConnectHandler(func(*nats.Conn) {
			core.TransportConnected.Set(1)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			core.TransportConnected.Set(0)
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			core.TransportConnected.Set(1)
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
}

// shutdown tears the pieces down in dependency order: stop accepting
// viewer traffic, close the session (which disables loads and clears
// blobs), then stop the metrics server.
func shutdown(server *http.Server, sess *session.Session, metricsServer *metric.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Warn("viewer server shutdown", "error", err)
	}

	if err := sess.Close(); err != nil {
		slog.Warn("session close", "error", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(ctx); err != nil {
			slog.Warn("metrics server shutdown", "error", err)
		}
	}

	slog.Info("Shutdown complete")
	return nil
}
