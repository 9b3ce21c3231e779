package registry

import "github.com/worldland/spark-gateway/internal/domain"

// DefaultDescriptors are the services deployed on the Spark host
func DefaultDescriptors() []domain.ServiceDescriptor {
	return []domain.ServiceDescriptor{
		{
			Name:        "nemotron",
			Container:   "vllm-nemotron",
			Type:        domain.CapabilityLLM,
			Port:        8000,
			HealthPath:  "/health",
			VRAMGB:      16,
			Description: "Nemotron via vLLM",
		},
		{
			Name:        "comfyui",
			Container:   "comfyui-optimized",
			Type:        domain.CapabilityImageGeneration,
			Port:        8188,
			HealthPath:  "/",
			VRAMGB:      8,
			Description: "ComfyUI image generation",
		},
		{
			Name:        "claude-runner",
			Container:   "claude-runner",
			Type:        domain.CapabilityCodeRunner,
			Port:        8789,
			HealthPath:  "/health",
			VRAMGB:      0,
			Description: "Claude agent runner",
		},
		{
			Name:        "gemini-runner",
			Container:   "gemini-runner",
			Type:        domain.CapabilityCodeRunner,
			Port:        8790,
			HealthPath:  "/health",
			VRAMGB:      0,
			Description: "Gemini agent runner",
		},
	}
}

// Default returns the built-in registry
func Default() *Registry {
	r, err := New(DefaultDescriptors())
	if err != nil {
		panic("built-in registry is invalid: " + err.Error())
	}
	return r
}
