package nvidiasmi

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner answers GPU and process queries with canned output
type fakeRunner struct {
	gpuOut  string
	gpuErr  error
	procOut string
	procErr error
	calls   []string
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, strings.Join(args, " "))
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("query without deadline")
	}
	if strings.HasPrefix(args[0], "--query-gpu=") {
		return []byte(f.gpuOut), f.gpuErr
	}
	return []byte(f.procOut), f.procErr
}

func TestSnapshot_CombinesGPUAndProcesses(t *testing.T) {
	fake := &fakeRunner{
		gpuOut:  "NVIDIA GB10, 30, 4000, 16000, 12000, 50, 60.5\n",
		procOut: "100, 4000, vllm\n",
	}
	p := NewProviderWithRunner(5*time.Second, fake.run)

	snap, err := p.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 25.0, snap.MemoryUtilization)
	require.Len(t, snap.Processes, 1)
	assert.Equal(t, "vllm", snap.Processes[0].ProcessName)
	require.Len(t, fake.calls, 2)
	assert.Contains(t, fake.calls[0], "--query-gpu=name,utilization.gpu,memory.used,memory.total,memory.free,temperature.gpu,power.draw")
	assert.Contains(t, fake.calls[1], "--query-compute-apps=pid,used_gpu_memory,process_name")
}

func TestSnapshot_GPUQueryFailureFails(t *testing.T) {
	fake := &fakeRunner{gpuErr: errors.New("exit status 9")}
	p := NewProviderWithRunner(5*time.Second, fake.run)

	_, err := p.Snapshot(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nvidia-smi failed")
	assert.Len(t, fake.calls, 1)
}

func TestSnapshot_ProcessQueryFailureKeepsGPUData(t *testing.T) {
	fake := &fakeRunner{
		gpuOut:  "NVIDIA GB10, 30, 4000, 16000, 12000, 50, 60.5\n",
		procErr: errors.New("timeout"),
	}
	p := NewProviderWithRunner(5*time.Second, fake.run)

	snap, err := p.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 30, snap.GPUUtilization)
	assert.Empty(t, snap.Processes)
}
