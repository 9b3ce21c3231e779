//go:build nonvml
// +build nonvml

package nvml

import (
	"context"
	"fmt"

	"github.com/worldland/spark-gateway/internal/domain"
)

// NVMLProvider stub - used when building without NVIDIA libraries
type NVMLProvider struct{}

func NewNVMLProvider() *NVMLProvider {
	return &NVMLProvider{}
}

func (p *NVMLProvider) Init() error {
	return fmt.Errorf("NVML not available (built with nonvml tag)")
}

func (p *NVMLProvider) Shutdown() error {
	return nil
}

func (p *NVMLProvider) Snapshot(ctx context.Context) (*domain.TelemetrySnapshot, error) {
	return nil, fmt.Errorf("NVML not available")
}

// Compile-time interface check
var _ domain.TelemetryProvider = (*NVMLProvider)(nil)
