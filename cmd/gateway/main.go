package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/worldland/spark-gateway/internal/adapters/nvidiasmi"
	"github.com/worldland/spark-gateway/internal/adapters/nvml"
	"github.com/worldland/spark-gateway/internal/api"
	"github.com/worldland/spark-gateway/internal/availability"
	"github.com/worldland/spark-gateway/internal/config"
	"github.com/worldland/spark-gateway/internal/container"
	"github.com/worldland/spark-gateway/internal/domain"
	"github.com/worldland/spark-gateway/internal/logger"
	"github.com/worldland/spark-gateway/internal/middleware"
	"github.com/worldland/spark-gateway/internal/probe"
	"github.com/worldland/spark-gateway/internal/registry"
	"github.com/worldland/spark-gateway/internal/services"
	"github.com/worldland/spark-gateway/internal/setup"
	"github.com/worldland/spark-gateway/internal/status"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg := config.Load()

	// Command line flags override the environment
	flag.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "HTTP listen address")
	flag.StringVar(&cfg.RegistryFile, "registry", cfg.RegistryFile, "YAML service registry (built-in registry if empty)")
	flag.StringVar(&cfg.ServiceHost, "service-host", cfg.ServiceHost, "Host used for service health probes")
	flag.StringVar(&cfg.TelemetrySource, "telemetry", cfg.TelemetrySource, "Telemetry source: auto, nvml, nvidia-smi, mock")
	flag.DurationVar(&cfg.MonitorInterval, "monitor-interval", cfg.MonitorInterval, "Background fleet check period (0 disables)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.Parse()
	cfg.Normalize()

	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}

	slog.Info("Spark gateway starting", "addr", cfg.ListenAddr, "telemetry", cfg.TelemetrySource)

	reg, err := registry.Load(cfg.RegistryFile)
	if err != nil {
		slog.Error("failed to load service registry", "file", cfg.RegistryFile, "error", err)
		return 1
	}
	slog.Info("service registry loaded", "services", reg.Len(), "file", cfg.RegistryFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	setup.RunPreflight(ctx).LogStatus()

	telemetry, err := newTelemetryProvider(cfg)
	if err != nil {
		slog.Error("failed to initialize telemetry", "source", cfg.TelemetrySource, "error", err)
		return 1
	}
	defer telemetry.Shutdown()

	dockerService, err := container.NewDockerService(cfg.RuntimeTimeout)
	if err != nil {
		slog.Error("failed to initialize Docker service", "error", err)
		return 1
	}
	defer dockerService.Close()

	if cfg.DockerWait > 0 {
		if err := dockerService.WaitReady(ctx, cfg.DockerWait); err != nil {
			slog.Warn("Docker daemon not ready, services will report not running", "error", err)
		}
	}

	checker := status.NewChecker(dockerService, probe.NewHTTPProber(), cfg.ServiceHost, cfg.ProbeTimeout)
	fleet := status.NewFleet(reg, checker, cfg.MaxConcurrentProbes)
	engine := availability.NewEngine(telemetry, reg, checker)
	handler := api.NewGatewayHandler(telemetry, fleet, engine)

	var monitor *services.FleetMonitor
	if cfg.MonitorInterval > 0 {
		monitor = services.NewFleetMonitor(fleet, cfg.MonitorInterval)
		go monitor.Start(ctx)
		slog.Info("fleet monitor running", "interval", cfg.MonitorInterval)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           withMiddleware(handler.Routes().ServeHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP API listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		slog.Info("Shutting down...")
	case err := <-serverErr:
		slog.Error("HTTP server error", "error", err)
		exitCode = 1
	}

	if monitor != nil {
		monitor.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
	return exitCode
}

// newTelemetryProvider returns an initialized provider for the configured
// source. In auto mode NVML is preferred and nvidia-smi is the fallback.
func newTelemetryProvider(cfg config.Config) (domain.TelemetryProvider, error) {
	switch cfg.TelemetrySource {
	case config.TelemetryMock:
		slog.Warn("using mock telemetry provider")
		return nvml.NewMockTelemetryProvider(nvml.DevSnapshot()), nil

	case config.TelemetryNVML:
		p := nvml.NewNVMLProvider()
		if err := p.Init(); err != nil {
			return nil, err
		}
		return p, nil

	case config.TelemetryNvidiaSMI:
		p := nvidiasmi.NewProvider(cfg.TelemetryTimeout)
		if err := p.Init(); err != nil {
			slog.Warn("nvidia-smi unavailable, GPU queries will fail", "error", err)
		}
		return p, nil

	default:
		nv := nvml.NewNVMLProvider()
		err := nv.Init()
		if err == nil {
			slog.Info("telemetry via NVML")
			return nv, nil
		}
		slog.Info("NVML not available, falling back to nvidia-smi", "error", err)
		p := nvidiasmi.NewProvider(cfg.TelemetryTimeout)
		if err := p.Init(); err != nil {
			slog.Warn("nvidia-smi unavailable, GPU queries will fail", "error", err)
		}
		return p, nil
	}
}

// withMiddleware wraps the API routes. LogRequest is outermost so that a
// recovered panic is still logged and carries a request ID.
func withMiddleware(h http.HandlerFunc) http.HandlerFunc {
	return middleware.Chain(h,
		middleware.LogRequest,
		middleware.Recover,
		middleware.CORS,
	)
}
