package nvidiasmi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGPU_FullRow(t *testing.T) {
	snap, err := ParseGPU("NVIDIA GB10, 42, 8000, 16000, 8000, 55, 87.25\n")

	require.NoError(t, err)
	assert.Equal(t, "NVIDIA GB10", snap.GPUName)
	assert.Equal(t, 42, snap.GPUUtilization)
	assert.Equal(t, 8000, snap.MemoryUsedMB)
	assert.Equal(t, 16000, snap.MemoryTotalMB)
	assert.Equal(t, 8000, snap.MemoryFreeMB)
	assert.Equal(t, 50.0, snap.MemoryUtilization)
	assert.Equal(t, 55, snap.TemperatureC)
	assert.Equal(t, 87.25, snap.PowerDrawW)
	assert.NotNil(t, snap.Processes)
}

func TestParseGPU_UnsupportedFieldsDefaultToZero(t *testing.T) {
	snap, err := ParseGPU("NVIDIA GB10, [N/A], [N/A], [N/A], [N/A], 48, [Not Supported]")

	require.NoError(t, err)
	assert.Equal(t, "NVIDIA GB10", snap.GPUName)
	assert.Equal(t, 0, snap.GPUUtilization)
	assert.Equal(t, 0, snap.MemoryTotalMB)
	assert.Equal(t, 0.0, snap.MemoryUtilization)
	assert.Equal(t, 48, snap.TemperatureC)
	assert.Equal(t, 0.0, snap.PowerDrawW)
}

func TestParseGPU_UsesFirstRow(t *testing.T) {
	snap, err := ParseGPU("GPU A, 10, 1, 2, 1, 30, 50\nGPU B, 90, 1, 2, 1, 70, 250\n")

	require.NoError(t, err)
	assert.Equal(t, "GPU A", snap.GPUName)
	assert.Equal(t, 10, snap.GPUUtilization)
}

func TestParseGPU_ShortRowIsError(t *testing.T) {
	_, err := ParseGPU("NVIDIA GB10, 42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 7")
}

func TestParseGPU_EmptyOutputIsError(t *testing.T) {
	_, err := ParseGPU("  \n")
	assert.Error(t, err)
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"42", 42, true},
		{" 7 ", 7, true},
		{"12.9", 12, true},
		{"[N/A]", 0, false},
		{"N/A", 0, false},
		{"Not Supported", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseInt(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestParseFloat_Placeholder(t *testing.T) {
	v, ok := parseFloat("[N/A]")
	assert.False(t, ok)
	assert.Equal(t, 0.0, v)

	v, ok = parseFloat("112.47")
	assert.True(t, ok)
	assert.Equal(t, 112.47, v)
}

func TestParseProcesses(t *testing.T) {
	procs, err := ParseProcesses("1234, 15800, /usr/bin/python3\n5678, [N/A], comfyui\nbroken\n")

	require.NoError(t, err)
	require.Len(t, procs, 2)
	assert.Equal(t, 1234, procs[0].PID)
	assert.Equal(t, 15800, procs[0].MemoryMB)
	assert.Equal(t, "/usr/bin/python3", procs[0].ProcessName)
	assert.Equal(t, 5678, procs[1].PID)
	assert.Equal(t, 0, procs[1].MemoryMB)
}

func TestParseProcesses_Empty(t *testing.T) {
	procs, err := ParseProcesses("")
	require.NoError(t, err)
	assert.Empty(t, procs)
}
