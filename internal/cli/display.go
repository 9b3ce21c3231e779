package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/worldland/spark-gateway/internal/domain"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
)

// PrintHeader prints a section header
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", titleStyle.Render("=== "+title+" ==="))
}

// PrintField prints a labeled field
func PrintField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-14s %s\n", label+":", value)
}

// PrintGPU displays GPU telemetry
func PrintGPU(w io.Writer, s *domain.TelemetrySnapshot) {
	PrintHeader(w, "GPU")
	PrintField(w, "Name", s.GPUName)
	PrintField(w, "Utilization", loadStyle(float64(s.GPUUtilization)).Render(fmt.Sprintf("%d%%", s.GPUUtilization)))
	PrintField(w, "Memory", fmt.Sprintf("%d / %d MB (%s, %d MB free)",
		s.MemoryUsedMB, s.MemoryTotalMB,
		loadStyle(s.MemoryUtilization).Render(fmt.Sprintf("%.1f%%", s.MemoryUtilization)),
		s.MemoryFreeMB))
	PrintField(w, "Temperature", fmt.Sprintf("%d°C", s.TemperatureC))
	PrintField(w, "Power", fmt.Sprintf("%.1f W", s.PowerDrawW))

	if len(s.Processes) == 0 {
		fmt.Fprintf(w, "  %s\n", mutedStyle.Render("(no GPU processes)"))
		return
	}

	fmt.Fprintf(w, "\n  %-8s %-10s %s\n", "PID", "Memory", "Process")
	for _, p := range s.Processes {
		fmt.Fprintf(w, "  %-8d %-10s %s\n", p.PID, fmt.Sprintf("%d MB", p.MemoryMB), p.ProcessName)
	}
}

// PrintServicesTable displays the fleet in registry order
func PrintServicesTable(w io.Writer, fleet *domain.FleetSnapshot) {
	PrintHeader(w, fmt.Sprintf("Services (%d healthy / %d running / %d total)",
		fleet.Summary.Healthy, fleet.Summary.Running, fleet.Summary.Total))

	if len(fleet.Order) == 0 {
		fmt.Fprintln(w, "  (no services registered)")
		return
	}

	fmt.Fprintf(w, "  %-18s %-18s %-6s %-10s %s\n", "Name", "Type", "Port", "Latency", "State")
	fmt.Fprintf(w, "  %-18s %-18s %-6s %-10s %s\n",
		strings.Repeat("-", 18), strings.Repeat("-", 18),
		strings.Repeat("-", 6), strings.Repeat("-", 10), strings.Repeat("-", 9))

	for _, name := range fleet.Order {
		s := fleet.Services[name]
		fmt.Fprintf(w, "  %-18s %-18s %-6d %-10s %s\n",
			truncate(s.Name, 18), truncate(string(s.Type), 18), s.Port, latency(s.ResponseTimeMS), stateLabel(s))
	}

	if !fleet.Timestamp.IsZero() {
		fmt.Fprintf(w, "\n  %s\n", mutedStyle.Render("checked "+fleet.Timestamp.Local().Format(time.RFC3339)))
	}
}

// PrintService displays one service status
func PrintService(w io.Writer, s *domain.ServiceStatus) {
	PrintHeader(w, "Service "+s.Name)
	PrintField(w, "Type", string(s.Type))
	PrintField(w, "State", stateLabel(*s))
	PrintField(w, "Port", fmt.Sprintf("%d", s.Port))
	PrintField(w, "VRAM", fmt.Sprintf("%d GB", s.VRAMGB))
	PrintField(w, "Latency", latency(s.ResponseTimeMS))
	if s.Description != "" {
		PrintField(w, "Description", s.Description)
	}
	if s.Error != "" {
		PrintField(w, "Error", badStyle.Render(s.Error))
	}
}

// PrintDecision displays an availability decision
func PrintDecision(w io.Writer, d *domain.AvailabilityDecision) {
	PrintHeader(w, "Availability")
	PrintField(w, "Recommend", recommendationStyle(d.Recommendation).Render(string(d.Recommendation)))
	PrintField(w, "Service", d.Service)
	PrintField(w, "Reason", d.Reason)
	PrintField(w, "GPU free", fmt.Sprintf("%d MB", d.GPUMemoryFree))
	PrintField(w, "GPU load", fmt.Sprintf("%d%%", d.GPUUtilization))
}

// PrintHealth displays gateway liveness
func PrintHealth(w io.Writer, gatewayURL string, h *HealthResponse) {
	PrintHeader(w, "Gateway")
	PrintField(w, "URL", gatewayURL)
	PrintField(w, "Status", okStyle.Render(h.Status))
	PrintField(w, "Time", h.Timestamp.Local().Format(time.RFC3339))
}

func stateLabel(s domain.ServiceStatus) string {
	switch {
	case s.Healthy:
		return okStyle.Render("healthy")
	case s.ContainerRunning:
		return warnStyle.Render("unhealthy")
	default:
		return mutedStyle.Render("stopped")
	}
}

func recommendationStyle(r domain.Recommendation) lipgloss.Style {
	switch r {
	case domain.RecommendUseLocal:
		return okStyle
	case domain.RecommendQueue:
		return warnStyle
	default:
		return badStyle
	}
}

func loadStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 90:
		return badStyle
	case pct >= 70:
		return warnStyle
	default:
		return okStyle
	}
}

func latency(ms *float64) string {
	if ms == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fms", *ms)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
