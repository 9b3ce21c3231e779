package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/worldland/spark-gateway/internal/domain"
)

// FleetSource produces fleet snapshots
type FleetSource interface {
	Snapshot(ctx context.Context) domain.FleetSnapshot
}

// Transition records a change in one service between two fleet checks
type Transition struct {
	Service    string
	Running    bool
	Healthy    bool
	WasRunning bool
	WasHealthy bool
	Error      string
	FirstSeen  bool
}

// FleetMonitor periodically checks the fleet and logs health transitions.
// Only the previous check is kept in memory.
type FleetMonitor struct {
	fleet    FleetSource
	interval time.Duration
	last     map[string]domain.ServiceStatus
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewFleetMonitor creates a new fleet monitor
func NewFleetMonitor(fleet FleetSource, interval time.Duration) *FleetMonitor {
	return &FleetMonitor{
		fleet:    fleet,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the monitor loop until Stop is called or ctx is done.
// The first check runs immediately.
func (m *FleetMonitor) Start(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// Stop halts the monitor and waits for the loop to exit
func (m *FleetMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.doneCh
}

func (m *FleetMonitor) tick(ctx context.Context) []Transition {
	snap := m.fleet.Snapshot(ctx)
	transitions := Diff(m.last, snap)
	m.last = snap.Services

	for _, t := range transitions {
		switch {
		case t.FirstSeen:
			slog.Info("service observed",
				"service", t.Service, "running", t.Running, "healthy", t.Healthy)
		case t.WasHealthy && !t.Healthy:
			slog.Warn("service became unhealthy",
				"service", t.Service, "running", t.Running, "error", t.Error)
		default:
			slog.Info("service state changed",
				"service", t.Service,
				"running", t.Running, "was_running", t.WasRunning,
				"healthy", t.Healthy, "was_healthy", t.WasHealthy)
		}
	}

	slog.Debug("fleet check complete",
		"total", snap.Summary.Total,
		"running", snap.Summary.Running,
		"healthy", snap.Summary.Healthy)
	return transitions
}

// Diff reports services whose running or healthy flag changed between
// prev and next, in next's enumeration order. Services absent from prev
// are reported as first seen.
func Diff(prev map[string]domain.ServiceStatus, next domain.FleetSnapshot) []Transition {
	var out []Transition
	for _, name := range next.Order {
		cur := next.Services[name]

		old, ok := prev[name]
		if !ok {
			out = append(out, Transition{
				Service:   name,
				Running:   cur.ContainerRunning,
				Healthy:   cur.Healthy,
				Error:     cur.Error,
				FirstSeen: true,
			})
			continue
		}
		if old.ContainerRunning == cur.ContainerRunning && old.Healthy == cur.Healthy {
			continue
		}
		out = append(out, Transition{
			Service:    name,
			Running:    cur.ContainerRunning,
			Healthy:    cur.Healthy,
			WasRunning: old.ContainerRunning,
			WasHealthy: old.Healthy,
			Error:      cur.Error,
		})
	}
	return out
}
