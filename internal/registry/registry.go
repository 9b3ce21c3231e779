package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/worldland/spark-gateway/internal/domain"
)

// ErrInvalidDescriptor is wrapped by every validation failure
var ErrInvalidDescriptor = errors.New("invalid service descriptor")

// Registry is the immutable, ordered set of known services.
// Registry order is the priority order used by availability decisions.
type Registry struct {
	descriptors []domain.ServiceDescriptor
	byName      map[string]int
}

// entry is the YAML form of a descriptor
type entry struct {
	Name        string `yaml:"name"`
	Container   string `yaml:"container"`
	Type        string `yaml:"type"`
	Port        int    `yaml:"port"`
	Health      string `yaml:"health"`
	VRAMGB      int    `yaml:"vram_gb"`
	Description string `yaml:"description"`
}

type file struct {
	Services []entry `yaml:"services"`
}

// New validates descriptors and builds a registry.
// The input slice is copied; later changes to it are not observed.
func New(descriptors []domain.ServiceDescriptor) (*Registry, error) {
	r := &Registry{
		descriptors: make([]domain.ServiceDescriptor, 0, len(descriptors)),
		byName:      make(map[string]int, len(descriptors)),
	}
	for i, d := range descriptors {
		if err := validate(d); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("entry %d: %w: duplicate name %q", i, ErrInvalidDescriptor, d.Name)
		}
		r.byName[d.Name] = len(r.descriptors)
		r.descriptors = append(r.descriptors, d)
	}
	return r, nil
}

// Load reads a YAML registry file. An empty path returns the built-in registry.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML registry document
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	if len(f.Services) == 0 {
		return nil, fmt.Errorf("%w: registry declares no services", ErrInvalidDescriptor)
	}

	descriptors := make([]domain.ServiceDescriptor, 0, len(f.Services))
	for _, e := range f.Services {
		descriptors = append(descriptors, domain.ServiceDescriptor{
			Name:        strings.TrimSpace(e.Name),
			Container:   strings.TrimSpace(e.Container),
			Type:        domain.CapabilityType(strings.TrimSpace(e.Type)),
			Port:        e.Port,
			HealthPath:  strings.TrimSpace(e.Health),
			VRAMGB:      e.VRAMGB,
			Description: e.Description,
		})
	}
	return New(descriptors)
}

func validate(d domain.ServiceDescriptor) error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	case d.Container == "":
		return fmt.Errorf("%w: %s: container is required", ErrInvalidDescriptor, d.Name)
	case d.Type == "":
		return fmt.Errorf("%w: %s: type is required", ErrInvalidDescriptor, d.Name)
	case d.Port < 1 || d.Port > 65535:
		return fmt.Errorf("%w: %s: port %d out of range", ErrInvalidDescriptor, d.Name, d.Port)
	case !strings.HasPrefix(d.HealthPath, "/"):
		return fmt.Errorf("%w: %s: health path %q must start with /", ErrInvalidDescriptor, d.Name, d.HealthPath)
	case d.VRAMGB < 0:
		return fmt.Errorf("%w: %s: vram_gb must be >= 0", ErrInvalidDescriptor, d.Name)
	}
	return nil
}

// All returns every descriptor in registry order
func (r *Registry) All() []domain.ServiceDescriptor {
	out := make([]domain.ServiceDescriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Lookup finds a descriptor by service name
func (r *Registry) Lookup(name string) (domain.ServiceDescriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return domain.ServiceDescriptor{}, false
	}
	return r.descriptors[i], true
}

// ByType returns descriptors of the given capability type in registry order
func (r *Registry) ByType(t domain.CapabilityType) []domain.ServiceDescriptor {
	var out []domain.ServiceDescriptor
	for _, d := range r.descriptors {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of registered services
func (r *Registry) Len() int {
	return len(r.descriptors)
}
