package domain

// Mode selects how the caller wants an unavailable answer handled
type Mode string

const (
	// ModeWaterfall needs an answer now and falls back to cloud
	ModeWaterfall Mode = "waterfall"
	// ModeQueue can wait for a local service
	ModeQueue Mode = "queue"
)

// ParseMode maps a query value to a Mode. Anything other than "queue"
// is treated as waterfall.
func ParseMode(s string) Mode {
	if Mode(s) == ModeQueue {
		return ModeQueue
	}
	return ModeWaterfall
}

// Recommendation is the routing advice returned to the caller
type Recommendation string

const (
	RecommendUseLocal Recommendation = "use_local"
	RecommendUseCloud Recommendation = "use_cloud"
	RecommendQueue    Recommendation = "queue"
)

// AvailabilityDecision answers whether a capability can be served locally
type AvailabilityDecision struct {
	Available      bool           `json:"available"`
	Service        string         `json:"service"`
	Reason         string         `json:"reason"`
	GPUMemoryFree  int            `json:"gpu_memory_free_mb"`
	GPUUtilization int            `json:"gpu_utilization_pct"`
	Recommendation Recommendation `json:"recommendation"`
}
