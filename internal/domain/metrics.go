package domain

import "math"

// TelemetrySnapshot is a point-in-time reading of the host GPU
type TelemetrySnapshot struct {
	GPUName           string       `json:"gpu_name"`
	GPUUtilization    int          `json:"gpu_utilization_pct"`
	MemoryUsedMB      int          `json:"memory_used_mb"`
	MemoryTotalMB     int          `json:"memory_total_mb"`
	MemoryFreeMB      int          `json:"memory_free_mb"`
	MemoryUtilization float64      `json:"memory_utilization_pct"`
	TemperatureC      int          `json:"temperature_c"`
	PowerDrawW        float64      `json:"power_draw_w"`
	Processes         []GPUProcess `json:"processes"`
}

// GPUProcess is a compute process holding GPU memory
type GPUProcess struct {
	PID         int    `json:"pid"`
	MemoryMB    int    `json:"gpu_memory_mb"`
	ProcessName string `json:"process_name"`
}

// MemoryUtilization returns used/total as a percentage rounded to one decimal.
// A zero total yields 0.
func MemoryUtilization(usedMB, totalMB int) float64 {
	if totalMB <= 0 {
		return 0
	}
	return RoundTenth(float64(usedMB) / float64(totalMB) * 100)
}

// RoundTenth rounds v to one decimal place
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
