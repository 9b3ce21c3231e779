package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// CapabilityType is the category of work a service performs.
// The set is open; registries may declare types not listed here.
type CapabilityType string

const (
	CapabilityLLM             CapabilityType = "llm"
	CapabilityImageGeneration CapabilityType = "image-generation"
	CapabilityCodeRunner      CapabilityType = "code-runner"
	CapabilityImageProcessing CapabilityType = "image-processing"
)

// ServiceDescriptor is the static configuration of one known service
type ServiceDescriptor struct {
	Name        string
	Container   string // runtime workload identifier
	Type        CapabilityType
	Port        int
	HealthPath  string
	VRAMGB      int
	Description string
}

// ServiceStatus is the observed state of one service.
// When ContainerRunning is false, Healthy is false and ResponseTimeMS/Error are unset.
type ServiceStatus struct {
	Name             string         `json:"name"`
	Type             CapabilityType `json:"type"`
	ContainerRunning bool           `json:"container_running"`
	Healthy          bool           `json:"healthy"`
	Port             int            `json:"port"`
	VRAMGB           int            `json:"vram_gb"`
	Description      string         `json:"description"`
	ResponseTimeMS   *float64       `json:"response_time_ms,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// NewServiceStatus returns the not-running status for a descriptor
func NewServiceStatus(d ServiceDescriptor) ServiceStatus {
	return ServiceStatus{
		Name:        d.Name,
		Type:        d.Type,
		Port:        d.Port,
		VRAMGB:      d.VRAMGB,
		Description: d.Description,
	}
}

// FleetSummary counts over a fleet snapshot
type FleetSummary struct {
	Total   int `json:"total"`
	Healthy int `json:"healthy"`
	Running int `json:"running"`
}

// FleetSnapshot holds the status of every registered service, keyed by name.
// Order records registry order and drives JSON enumeration.
type FleetSnapshot struct {
	Services  map[string]ServiceStatus
	Order     []string
	Summary   FleetSummary
	Timestamp time.Time
}

// NewFleetSnapshot builds a snapshot from statuses given in registry order
func NewFleetSnapshot(statuses []ServiceStatus, at time.Time) FleetSnapshot {
	snap := FleetSnapshot{
		Services:  make(map[string]ServiceStatus, len(statuses)),
		Order:     make([]string, 0, len(statuses)),
		Timestamp: at,
	}
	for _, s := range statuses {
		snap.Services[s.Name] = s
		snap.Order = append(snap.Order, s.Name)
	}
	snap.Summary = Summarize(snap.Services)
	return snap
}

// Summarize counts total, healthy and running services
func Summarize(services map[string]ServiceStatus) FleetSummary {
	summary := FleetSummary{Total: len(services)}
	for _, s := range services {
		if s.Healthy {
			summary.Healthy++
		}
		if s.ContainerRunning {
			summary.Running++
		}
	}
	return summary
}

// MarshalJSON writes services in registry order
func (f FleetSnapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"services":{`)
	written := 0
	for _, name := range f.Order {
		s, ok := f.Services[name]
		if !ok {
			continue
		}
		if written > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		written++
	}
	buf.WriteString(`},"summary":`)
	summary, err := json.Marshal(f.Summary)
	if err != nil {
		return nil, err
	}
	buf.Write(summary)
	buf.WriteString(`,"timestamp":`)
	ts, err := json.Marshal(f.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	buf.Write(ts)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a snapshot produced by MarshalJSON
func (f *FleetSnapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Services  json.RawMessage `json:"services"`
		Summary   FleetSummary    `json:"summary"`
		Timestamp time.Time       `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	services := map[string]ServiceStatus{}
	if len(raw.Services) > 0 {
		if err := json.Unmarshal(raw.Services, &services); err != nil {
			return err
		}
	}
	order, err := objectKeys(raw.Services)
	if err != nil {
		return err
	}
	f.Services = services
	f.Order = order
	f.Summary = raw.Summary
	f.Timestamp = raw.Timestamp
	return nil
}

// objectKeys returns the keys of a JSON object in document order
func objectKeys(data json.RawMessage) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
