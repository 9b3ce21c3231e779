package domain

import (
	"context"
	"time"
)

// TelemetryProvider abstracts GPU telemetry collection for testing
type TelemetryProvider interface {
	// Init prepares the underlying instrumentation (NVML, nvidia-smi or mock)
	Init() error
	// Shutdown releases the instrumentation
	Shutdown() error
	// Snapshot returns current GPU metrics, or an error when the
	// instrumentation cannot be reached at all
	Snapshot(ctx context.Context) (*TelemetrySnapshot, error)
}

// RuntimeProbe reports whether a named workload unit is running
type RuntimeProbe interface {
	IsRunning(ctx context.Context, workload string) (bool, error)
}

// ProbeResult is the outcome of a completed health probe
type ProbeResult struct {
	StatusCode int
	Elapsed    time.Duration
}

// Healthy reports whether the status code is below the failure threshold
func (r ProbeResult) Healthy() bool {
	return r.StatusCode < 400
}

// HealthProber calls a service's liveness endpoint. An error means the probe
// could not be completed (timeout, refused connection); a completed probe
// with a failing status code is not an error.
type HealthProber interface {
	Probe(ctx context.Context, host string, port int, path string, timeout time.Duration) (ProbeResult, error)
}
