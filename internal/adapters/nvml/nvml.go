//go:build !nonvml
// +build !nonvml

package nvml

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/worldland/spark-gateway/internal/domain"
)

// NVMLProvider reads telemetry for GPU 0 through the NVIDIA management library
type NVMLProvider struct{}

func NewNVMLProvider() *NVMLProvider {
	return &NVMLProvider{}
}

func (p *NVMLProvider) Init() error {
	ret := nvml.Init()
	if ret != nvml.SUCCESS {
		return fmt.Errorf("NVML init failed: %v", nvml.ErrorString(ret))
	}
	return nil
}

func (p *NVMLProvider) Shutdown() error {
	ret := nvml.Shutdown()
	if ret != nvml.SUCCESS {
		return fmt.Errorf("NVML shutdown failed: %v", nvml.ErrorString(ret))
	}
	return nil
}

// Snapshot fails only when no device handle can be obtained. Individual
// metrics that the device does not support are reported as zero.
func (p *NVMLProvider) Snapshot(ctx context.Context) (*domain.TelemetrySnapshot, error) {
	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("failed to get device count: %v", nvml.ErrorString(ret))
	}
	if count == 0 {
		return nil, fmt.Errorf("no GPU devices found")
	}

	device, ret := nvml.DeviceGetHandleByIndex(0)
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("failed to get device handle: %v", nvml.ErrorString(ret))
	}

	snap := &domain.TelemetrySnapshot{Processes: []domain.GPUProcess{}}

	if name, ret := device.GetName(); ok(ret, "name") {
		snap.GPUName = name
	}
	if util, ret := device.GetUtilizationRates(); ok(ret, "utilization") {
		snap.GPUUtilization = int(util.Gpu)
	}
	if mem, ret := device.GetMemoryInfo(); ok(ret, "memory") {
		snap.MemoryTotalMB = int(mem.Total / (1024 * 1024))
		snap.MemoryUsedMB = int(mem.Used / (1024 * 1024))
		snap.MemoryFreeMB = int(mem.Free / (1024 * 1024))
	}
	snap.MemoryUtilization = domain.MemoryUtilization(snap.MemoryUsedMB, snap.MemoryTotalMB)
	if temp, ret := device.GetTemperature(nvml.TEMPERATURE_GPU); ok(ret, "temperature") {
		snap.TemperatureC = int(temp)
	}
	if milliwatts, ret := device.GetPowerUsage(); ok(ret, "power") {
		snap.PowerDrawW = domain.RoundTenth(float64(milliwatts) / 1000)
	}

	if procs, ret := device.GetComputeRunningProcesses(); ok(ret, "processes") {
		for _, proc := range procs {
			name, ret := nvml.SystemGetProcessName(int(proc.Pid))
			if ret != nvml.SUCCESS {
				name = ""
			}
			snap.Processes = append(snap.Processes, domain.GPUProcess{
				PID:         int(proc.Pid),
				MemoryMB:    int(proc.UsedGpuMemory / (1024 * 1024)),
				ProcessName: name,
			})
		}
	}

	return snap, nil
}

// ok reports success and logs unsupported fields
func ok(ret nvml.Return, field string) bool {
	if ret == nvml.SUCCESS {
		return true
	}
	slog.Debug("NVML field unavailable, using default", "field", field, "reason", nvml.ErrorString(ret))
	return false
}

// Compile-time interface check
var _ domain.TelemetryProvider = (*NVMLProvider)(nil)
