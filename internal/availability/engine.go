package availability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/worldland/spark-gateway/internal/domain"
	"github.com/worldland/spark-gateway/internal/registry"
)

// ServiceChecker produces the status of one service
type ServiceChecker interface {
	SafeCheck(ctx context.Context, d domain.ServiceDescriptor) domain.ServiceStatus
}

// Engine decides whether a capability can be served locally
type Engine struct {
	telemetry domain.TelemetryProvider
	registry  *registry.Registry
	checker   ServiceChecker
}

// NewEngine creates a decision engine
func NewEngine(telemetry domain.TelemetryProvider, reg *registry.Registry, checker ServiceChecker) *Engine {
	return &Engine{
		telemetry: telemetry,
		registry:  reg,
		checker:   checker,
	}
}

// Decide returns a routing recommendation for capability. It always
// produces a decision; collaborator failures are folded into the result.
//
// Candidates are scanned in registry order and the first healthy one wins.
// Unknown GPU state is treated as saturation and routed to cloud.
func (e *Engine) Decide(ctx context.Context, capability string, mode domain.Mode) domain.AvailabilityDecision {
	gpu, err := e.telemetry.Snapshot(ctx)
	if err != nil {
		slog.Warn("telemetry unavailable, routing to cloud", "type", capability, "error", err)
		return domain.AvailabilityDecision{
			Available:      false,
			Service:        capability,
			Reason:         "cannot reach GPU (telemetry query failed)",
			GPUMemoryFree:  0,
			GPUUtilization: 100,
			Recommendation: domain.RecommendUseCloud,
		}
	}

	decision := domain.AvailabilityDecision{
		Service:        capability,
		GPUMemoryFree:  gpu.MemoryFreeMB,
		GPUUtilization: gpu.GPUUtilization,
	}

	candidates := e.registry.ByType(domain.CapabilityType(capability))
	if len(candidates) == 0 {
		decision.Reason = fmt.Sprintf("no registered service of type %q", capability)
		decision.Recommendation = domain.RecommendUseCloud
		return decision
	}

	for _, d := range candidates {
		status := e.checker.SafeCheck(ctx, d)
		if !status.Healthy {
			continue
		}
		decision.Available = true
		decision.Service = d.Name
		decision.Reason = fmt.Sprintf("%s is running and healthy%s", d.Name, formatLatency(status.ResponseTimeMS))
		decision.Recommendation = domain.RecommendUseLocal
		return decision
	}

	if mode == domain.ModeQueue {
		decision.Reason = fmt.Sprintf("no healthy service, but can queue (type %q)", capability)
		decision.Recommendation = domain.RecommendQueue
		return decision
	}
	decision.Reason = fmt.Sprintf("no healthy service available (type %q)", capability)
	decision.Recommendation = domain.RecommendUseCloud
	return decision
}

func formatLatency(ms *float64) string {
	if ms == nil {
		return ""
	}
	return fmt.Sprintf(" (%.1fms)", *ms)
}
