package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/isitobservable/ynab-mcp/pkg/config"
	mcpserver "github.com/isitobservable/ynab-mcp/pkg/mcp"
	"github.com/isitobservable/ynab-mcp/pkg/ratelimit"
	"github.com/isitobservable/ynab-mcp/pkg/telemetry"
	"github.com/isitobservable/ynab-mcp/pkg/tools"
	"github.com/isitobservable/ynab-mcp/pkg/ynab"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// stdout carries the protocol in stdio mode, so logs always go to stderr.
	config.SetupLogging(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := telemetry.NewResource(version)
	if err != nil {
		return err
	}

	logHandler, loggerShutdown, err := telemetry.InitLogger(ctx, res)
	if err != nil {
		return fmt.Errorf("initializing log exporter: %w", err)
	}
	config.SetupLogging(cfg.LogLevel, os.Stderr, logHandler)

	slog.Info("starting ynab-mcp server", "version", version, "transport", cfg.Transport)

	tracerShutdown, err := telemetry.InitTracer(ctx, res)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}

	meterSetup, err := telemetry.InitMeterProvider(ctx, cfg.MetricsExporter, res)
	if err != nil {
		return fmt.Errorf("initializing meter provider: %w", err)
	}
	meters, err := telemetry.NewMeters(meterSetup.Provider)
	if err != nil {
		slog.Warn("failed to create OTel meters, metrics will be unavailable", "error", err)
		meters = nil
	}

	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	if meters != nil {
		if err := meters.ObserveRemaining(limiter.Remaining); err != nil {
			slog.Warn("failed to register rate-limit gauge", "error", err)
		}
	}

	rest, err := ynab.NewRESTService(ynab.RESTConfig{
		Token:   cfg.Token,
		BaseURL: cfg.APIURL,
		Timeout: cfg.HTTPTimeout,
	})
	if err != nil {
		return err
	}

	if err := tools.ValidateCatalog(tools.Catalog()); err != nil {
		return fmt.Errorf("invalid tool catalog: %w", err)
	}
	dispatcher := tools.NewDispatcher(ynab.NewClient(rest, limiter))

	srv, err := mcpserver.NewServer(dispatcher, meters, version)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	// Health and metrics run beside the HTTP transport. In stdio mode they are
	// only needed to expose a Prometheus scrape endpoint.
	if cfg.Transport == config.TransportHTTP || meterSetup.Handler != nil {
		health := &http.Server{
			Addr:              cfg.HealthAddr(),
			Handler:           healthMux(meterSetup.Handler),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			slog.Info("health check server listening", "addr", health.Addr)
			if err := health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return shutdownWithTimeout(health.Shutdown)
		})
	}

	switch cfg.Transport {
	case config.TransportStdio:
		g.Go(func() error {
			defer stop()
			err := srv.Run(gctx, &mcp.StdioTransport{})
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				return fmt.Errorf("stdio session: %w", err)
			}
			slog.Info("stdio session closed")
			return nil
		})
	case config.TransportHTTP:
		g.Go(func() error {
			return srv.Start(cfg.MCPAddr())
		})
		g.Go(func() error {
			<-gctx.Done()
			return shutdownWithTimeout(srv.Shutdown)
		})
	}

	slog.Info("server ready", "transport", cfg.Transport)
	runErr := g.Wait()
	slog.Info("shutting down")

	// Flush pending telemetry before exit.
	shutdownAll(telemetryShutdowns(tracerShutdown, meterSetup.Shutdown, loggerShutdown))

	slog.Info("server stopped")
	return runErr
}

type namedShutdown struct {
	name     string
	shutdown telemetry.ShutdownFunc
}

// telemetryShutdowns orders the providers for shutdown. The logger goes last
// so the other providers' shutdown errors still reach the collector.
func telemetryShutdowns(tracer, meter, logger telemetry.ShutdownFunc) []namedShutdown {
	return []namedShutdown{
		{"tracer", tracer},
		{"meter", meter},
		{"logger", logger},
	}
}

func shutdownAll(providers []namedShutdown) {
	for _, p := range providers {
		if err := shutdownWithTimeout(p.shutdown); err != nil {
			slog.Error("telemetry shutdown error", "provider", p.name, "error", err)
		}
	}
}

func shutdownWithTimeout(fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return fn(ctx)
}

func healthMux(metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}
