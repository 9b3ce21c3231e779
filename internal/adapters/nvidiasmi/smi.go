package nvidiasmi

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/worldland/spark-gateway/internal/domain"
)

// CommandRunner executes a binary and returns its stdout (mockable)
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Provider reads GPU telemetry by shelling out to nvidia-smi
type Provider struct {
	binary  string
	timeout time.Duration
	run     CommandRunner
}

// NewProvider creates an nvidia-smi backed provider. Each query is bounded by timeout.
func NewProvider(timeout time.Duration) *Provider {
	return NewProviderWithRunner(timeout, ExecRunner)
}

// NewProviderWithRunner creates a provider with a custom runner (for testing)
func NewProviderWithRunner(timeout time.Duration, run CommandRunner) *Provider {
	return &Provider{
		binary:  "nvidia-smi",
		timeout: timeout,
		run:     run,
	}
}

// Init verifies that nvidia-smi is on PATH
func (p *Provider) Init() error {
	if _, err := exec.LookPath(p.binary); err != nil {
		return fmt.Errorf("%s not found: %w", p.binary, err)
	}
	return nil
}

func (p *Provider) Shutdown() error {
	return nil
}

// Snapshot runs the GPU query and the compute process query. Failure of the
// GPU query fails the snapshot; failure of the process query only empties
// the process list.
func (p *Provider) Snapshot(ctx context.Context) (*domain.TelemetrySnapshot, error) {
	out, err := p.query(ctx,
		"--query-gpu="+strings.Join(gpuQueryFields, ","),
		"--format=csv,noheader,nounits",
	)
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi failed: %w", err)
	}
	snap, err := ParseGPU(string(out))
	if err != nil {
		return nil, err
	}

	procOut, err := p.query(ctx,
		"--query-compute-apps="+strings.Join(processQueryFields, ","),
		"--format=csv,noheader,nounits",
	)
	if err != nil {
		slog.Warn("nvidia-smi process query failed", "error", err)
		return snap, nil
	}
	procs, err := ParseProcesses(string(procOut))
	if err != nil {
		slog.Warn("nvidia-smi process output unreadable", "error", err)
		return snap, nil
	}
	snap.Processes = procs
	return snap, nil
}

func (p *Provider) query(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.run(ctx, p.binary, args...)
}

// Compile-time interface check
var _ domain.TelemetryProvider = (*Provider)(nil)
