package nvidiasmi

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/worldland/spark-gateway/internal/domain"
)

// gpuQueryFields is the --query-gpu column order
var gpuQueryFields = []string{
	"name",
	"utilization.gpu",
	"memory.used",
	"memory.total",
	"memory.free",
	"temperature.gpu",
	"power.draw",
}

// processQueryFields is the --query-compute-apps column order
var processQueryFields = []string{
	"pid",
	"used_gpu_memory",
	"process_name",
}

// normalizeField maps nvidia-smi placeholders for missing data to ""
func normalizeField(raw string) string {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "", "n/a", "[n/a]", "[not supported]", "not supported", "unknown", "-":
		return ""
	default:
		return v
	}
}

// parseInt returns the integer value of a field and whether it was present
// and numeric. Fractional values are truncated.
func parseInt(raw string) (int, bool) {
	v := normalizeField(raw)
	if v == "" {
		return 0, false
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// parseFloat returns the float value of a field and whether it was present
// and numeric
func parseFloat(raw string) (float64, bool) {
	v := normalizeField(raw)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// readCSV splits nvidia-smi csv,noheader,nounits output into trimmed rows
func readCSV(out string) ([][]string, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	reader := csv.NewReader(strings.NewReader(out))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return rows, nil
}

// ParseGPU builds a snapshot from --query-gpu output. Only the first GPU row
// is used. Missing or non-numeric metrics become zero; a row with too few
// columns is an error.
func ParseGPU(out string) (*domain.TelemetrySnapshot, error) {
	rows, err := readCSV(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPU query output: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("GPU query returned no rows")
	}
	row := rows[0]
	if len(row) < len(gpuQueryFields) {
		return nil, fmt.Errorf("GPU query returned %d fields, expected %d", len(row), len(gpuQueryFields))
	}

	intField := func(i int) int {
		v, ok := parseInt(row[i])
		if !ok {
			slog.Debug("nvidia-smi field unavailable, using default", "field", gpuQueryFields[i], "raw", row[i])
		}
		return v
	}
	floatField := func(i int) float64 {
		v, ok := parseFloat(row[i])
		if !ok {
			slog.Debug("nvidia-smi field unavailable, using default", "field", gpuQueryFields[i], "raw", row[i])
		}
		return v
	}

	snap := &domain.TelemetrySnapshot{
		GPUName:        normalizeField(row[0]),
		GPUUtilization: intField(1),
		MemoryUsedMB:   intField(2),
		MemoryTotalMB:  intField(3),
		MemoryFreeMB:   intField(4),
		TemperatureC:   intField(5),
		PowerDrawW:     floatField(6),
		Processes:      []domain.GPUProcess{},
	}
	snap.MemoryUtilization = domain.MemoryUtilization(snap.MemoryUsedMB, snap.MemoryTotalMB)
	return snap, nil
}

// ParseProcesses reads --query-compute-apps output. Rows with fewer than
// three columns are skipped.
func ParseProcesses(out string) ([]domain.GPUProcess, error) {
	rows, err := readCSV(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse process query output: %w", err)
	}
	procs := make([]domain.GPUProcess, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(processQueryFields) {
			continue
		}
		pid, _ := parseInt(row[0])
		mem, _ := parseInt(row[1])
		procs = append(procs, domain.GPUProcess{
			PID:         pid,
			MemoryMB:    mem,
			ProcessName: row[2],
		})
	}
	return procs, nil
}
