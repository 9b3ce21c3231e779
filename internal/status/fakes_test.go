package status

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/worldland/spark-gateway/internal/domain"
)

// fakeRuntime reports containers listed in running as running
type fakeRuntime struct {
	mu      sync.Mutex
	running map[string]bool
	errs    map[string]error
	calls   []string
}

func (f *fakeRuntime) IsRunning(ctx context.Context, workload string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, workload)
	if err, ok := f.errs[workload]; ok {
		return false, err
	}
	return f.running[workload], nil
}

// fakeProber answers by port
type fakeProber struct {
	results map[int]domain.ProbeResult
	errs    map[int]error
	panics  map[int]bool
	delay   time.Duration

	calls       atomic.Int32
	inflight    atomic.Int32
	maxInflight atomic.Int32
	lastTimeout atomic.Int64
	lastHost    atomic.Value
}

func (f *fakeProber) Probe(ctx context.Context, host string, port int, path string, timeout time.Duration) (domain.ProbeResult, error) {
	f.calls.Add(1)
	f.lastTimeout.Store(int64(timeout))
	f.lastHost.Store(host)

	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.maxInflight.Load()
		if n <= peak || f.maxInflight.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if f.panics[port] {
		panic("prober exploded")
	}
	if err, ok := f.errs[port]; ok {
		return domain.ProbeResult{}, err
	}
	if r, ok := f.results[port]; ok {
		return r, nil
	}
	return domain.ProbeResult{}, errors.New("connection refused")
}

func descriptor(name string, t domain.CapabilityType, port int) domain.ServiceDescriptor {
	return domain.ServiceDescriptor{
		Name:        name,
		Container:   name + "-container",
		Type:        t,
		Port:        port,
		HealthPath:  "/health",
		VRAMGB:      4,
		Description: name + " service",
	}
}
