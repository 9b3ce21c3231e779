package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/worldland/spark-gateway/internal/domain"
)

// ErrUnknownService is returned when a service name is not registered
var ErrUnknownService = errors.New("unknown service")

// Checker produces the status of a single service from the runtime probe
// and the health prober
type Checker struct {
	runtime      domain.RuntimeProbe
	prober       domain.HealthProber
	host         string
	probeTimeout time.Duration
}

// NewChecker creates a service checker. Health probes target host and are
// bounded by probeTimeout.
func NewChecker(runtime domain.RuntimeProbe, prober domain.HealthProber, host string, probeTimeout time.Duration) *Checker {
	return &Checker{
		runtime:      runtime,
		prober:       prober,
		host:         host,
		probeTimeout: probeTimeout,
	}
}

// Check returns the status of one service. A service whose workload is not
// running is never health-probed. Probe failures become status fields.
func (c *Checker) Check(ctx context.Context, d domain.ServiceDescriptor) domain.ServiceStatus {
	status := domain.NewServiceStatus(d)

	running, err := c.runtime.IsRunning(ctx, d.Container)
	if err != nil {
		slog.Debug("runtime probe failed, treating as not running",
			"service", d.Name, "container", d.Container, "error", err)
		running = false
	}
	if !running {
		return status
	}
	status.ContainerRunning = true

	result, err := c.prober.Probe(ctx, c.host, d.Port, d.HealthPath, c.probeTimeout)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	latency := domain.RoundTenth(float64(result.Elapsed) / float64(time.Millisecond))
	status.ResponseTimeMS = &latency
	status.Healthy = result.Healthy()
	if !status.Healthy {
		slog.Debug("health endpoint returned failure status",
			"service", d.Name, "status_code", result.StatusCode)
	}
	return status
}

// SafeCheck runs Check and converts a panic into a failed status
func (c *Checker) SafeCheck(ctx context.Context, d domain.ServiceDescriptor) (status domain.ServiceStatus) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("service check panicked",
				"service", d.Name, "panic", r, "stack", string(debug.Stack()))
			status = domain.NewServiceStatus(d)
			status.Error = fmt.Sprintf("status check failed: %v", r)
		}
	}()
	return c.Check(ctx, d)
}
