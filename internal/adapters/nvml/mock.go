package nvml

import (
	"context"

	"github.com/worldland/spark-gateway/internal/domain"
)

// MockTelemetryProvider serves a fixed snapshot for development and tests
type MockTelemetryProvider struct {
	Snap        domain.TelemetrySnapshot
	InitErr     error
	SnapshotErr error
}

func NewMockTelemetryProvider(snap domain.TelemetrySnapshot) *MockTelemetryProvider {
	return &MockTelemetryProvider{Snap: snap}
}

// DevSnapshot is the reading served in mock mode
func DevSnapshot() domain.TelemetrySnapshot {
	return domain.TelemetrySnapshot{
		GPUName:           "Mock GPU",
		GPUUtilization:    35,
		MemoryUsedMB:      8000,
		MemoryTotalMB:     24000,
		MemoryFreeMB:      16000,
		MemoryUtilization: domain.MemoryUtilization(8000, 24000),
		TemperatureC:      60,
		PowerDrawW:        120.5,
		Processes:         []domain.GPUProcess{},
	}
}

func (p *MockTelemetryProvider) Init() error {
	return p.InitErr
}

func (p *MockTelemetryProvider) Shutdown() error {
	return nil
}

func (p *MockTelemetryProvider) Snapshot(ctx context.Context) (*domain.TelemetrySnapshot, error) {
	if p.SnapshotErr != nil {
		return nil, p.SnapshotErr
	}
	snap := p.Snap
	snap.Processes = append([]domain.GPUProcess{}, p.Snap.Processes...)
	return &snap, nil
}

// Compile-time interface check
var _ domain.TelemetryProvider = (*MockTelemetryProvider)(nil)
