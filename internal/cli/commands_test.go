package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldland/spark-gateway/internal/domain"
)

func fakeGateway(t *testing.T, decision domain.AvailabilityDecision) *httptest.Server {
	t.Helper()
	latency := 3.2
	mux := http.NewServeMux()
	mux.HandleFunc("/gpu", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.TelemetrySnapshot{
			GPUName:       "NVIDIA GB10",
			MemoryUsedMB:  8000,
			MemoryTotalMB: 16000,
			MemoryFreeMB:  8000,
			Processes:     []domain.GPUProcess{{PID: 4242, MemoryMB: 6000, ProcessName: "python3"}},
		})
	})
	mux.HandleFunc("/services", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.NewFleetSnapshot([]domain.ServiceStatus{
			{Name: "nemotron", Type: domain.CapabilityLLM, Port: 8000, ContainerRunning: true, Healthy: true, ResponseTimeMS: &latency},
			{Name: "comfyui", Type: domain.CapabilityImageGeneration, Port: 8188},
		}, time.Now()))
	})
	mux.HandleFunc("/services/{name}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") != "comfyui" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"service '` + r.PathValue("name") + `' not found","code":"SERVICE_NOT_FOUND"}`))
			return
		}
		json.NewEncoder(w).Encode(domain.ServiceStatus{Name: "comfyui", Type: domain.CapabilityImageGeneration, Port: 8188})
	})
	mux.HandleFunc("/available/{type}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(decision)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(HealthResponse{Status: "healthy", Timestamp: time.Now()})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var buf bytes.Buffer
	code := -1
	root := NewRootCommand(&buf, &code)
	root.SetArgs(args)
	root.SetErr(&buf)
	require.NoError(t, root.Execute())
	return code, buf.String()
}

func TestGPUCommand(t *testing.T) {
	server := fakeGateway(t, domain.AvailabilityDecision{})

	code, out := execute(t, "gpu", "--url", server.URL)

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "NVIDIA GB10")
	assert.Contains(t, out, "python3")
}

func TestServicesCommand_Table(t *testing.T) {
	server := fakeGateway(t, domain.AvailabilityDecision{})

	code, out := execute(t, "services", "--url", server.URL)

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "1 healthy / 1 running / 2 total")
	assert.Contains(t, out, "3.2ms")
	assert.Less(t, bytes.Index([]byte(out), []byte("nemotron")), bytes.Index([]byte(out), []byte("comfyui")))
}

func TestServicesCommand_OneService(t *testing.T) {
	server := fakeGateway(t, domain.AvailabilityDecision{})

	code, out := execute(t, "services", "comfyui", "--url", server.URL)

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Service comfyui")
	assert.Contains(t, out, "stopped")
}

func TestServicesCommand_UnknownService(t *testing.T) {
	server := fakeGateway(t, domain.AvailabilityDecision{})

	code, out := execute(t, "services", "ghost", "--url", server.URL)

	assert.Equal(t, ExitError, code)
	assert.Contains(t, out, "service 'ghost' not found")
}

func TestAvailableCommand_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		decision domain.AvailabilityDecision
		expected int
	}{
		{
			name:     "use local",
			decision: domain.AvailabilityDecision{Available: true, Service: "nemotron", Recommendation: domain.RecommendUseLocal},
			expected: ExitOK,
		},
		{
			name:     "use cloud",
			decision: domain.AvailabilityDecision{Service: "llm", Recommendation: domain.RecommendUseCloud},
			expected: ExitNotAvailable,
		},
		{
			name:     "queue",
			decision: domain.AvailabilityDecision{Service: "llm", Recommendation: domain.RecommendQueue},
			expected: ExitNotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := fakeGateway(t, tt.decision)

			code, out := execute(t, "available", "llm", "--mode", "queue", "--url", server.URL)

			assert.Equal(t, tt.expected, code)
			assert.Contains(t, out, string(tt.decision.Recommendation))
		})
	}
}

func TestAvailableCommand_JSON(t *testing.T) {
	server := fakeGateway(t, domain.AvailabilityDecision{Available: true, Service: "nemotron", Recommendation: domain.RecommendUseLocal})

	code, out := execute(t, "available", "llm", "--json", "--url", server.URL)

	assert.Equal(t, ExitOK, code)

	var d domain.AvailabilityDecision
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "nemotron", d.Service)
}

func TestHealthCommand_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	code, out := execute(t, "health", "--url", url, "--timeout", "500ms")

	assert.Equal(t, ExitError, code)
	assert.Contains(t, out, "Error:")
}

func TestGatewayURL_Precedence(t *testing.T) {
	t.Setenv("SPARK_GATEWAY_URL", "")
	opts := &options{}
	assert.Equal(t, defaultGatewayURL, opts.gatewayURL())

	t.Setenv("SPARK_GATEWAY_URL", "http://spark:9000")
	assert.Equal(t, "http://spark:9000", opts.gatewayURL())

	opts.url = "http://override:1"
	assert.Equal(t, "http://override:1", opts.gatewayURL())
}
