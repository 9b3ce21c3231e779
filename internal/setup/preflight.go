package setup

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ComponentStatus represents the installation status of a host tool the
// gateway's collaborators depend on
type ComponentStatus struct {
	Name      string
	Installed bool
	Version   string
}

// PreflightResult contains the results of the preflight check
type PreflightResult struct {
	Components []ComponentStatus
	OSId       string // "ubuntu", "debian", etc.
	OSVersion  string // "22.04", "12", etc.
	GPUFound   bool
	GPUName    string
}

// Preflight inspects the host. Lookups and commands are replaceable for tests.
type Preflight struct {
	LookPath  func(file string) (string, error)
	Run       func(ctx context.Context, name string, args ...string) ([]byte, error)
	OSRelease string
	Timeout   time.Duration
}

// NewPreflight returns a preflight that inspects the real host
func NewPreflight() *Preflight {
	return &Preflight{
		LookPath: exec.LookPath,
		Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		OSRelease: "/etc/os-release",
		Timeout:   3 * time.Second,
	}
}

// RunPreflight checks for the gateway's host tools and system info
func RunPreflight(ctx context.Context) *PreflightResult {
	return NewPreflight().Check(ctx)
}

// Check runs every probe. It never fails; missing tools are reported in
// the result.
func (p *Preflight) Check(ctx context.Context) *PreflightResult {
	result := &PreflightResult{}

	result.OSId, result.OSVersion = p.detectOS()
	result.GPUFound, result.GPUName = p.detectNvidiaGPU(ctx)

	result.Components = []ComponentStatus{
		p.checkComponent(ctx, "nvidia-smi", "nvidia-smi", "--query-gpu=driver_version", "--format=csv,noheader"),
		p.checkComponent(ctx, "docker", "docker", "--version"),
	}

	return result
}

// MissingComponents returns the names of components that are not installed
func (r *PreflightResult) MissingComponents() []string {
	var missing []string
	for _, c := range r.Components {
		if !c.Installed {
			missing = append(missing, c.Name)
		}
	}
	return missing
}

// LogStatus logs the preflight results. Missing tools are warnings.
func (r *PreflightResult) LogStatus() {
	for _, c := range r.Components {
		if c.Installed {
			slog.Info("preflight component found", "component", c.Name, "version", c.Version)
		} else {
			slog.Warn("preflight component missing", "component", c.Name)
		}
	}
	slog.Info("preflight host", "os", r.OSId, "os_version", r.OSVersion, "gpu_found", r.GPUFound, "gpu", r.GPUName)
}

func (p *Preflight) checkComponent(ctx context.Context, name, binary string, versionArgs ...string) ComponentStatus {
	cs := ComponentStatus{Name: name}

	if _, err := p.LookPath(binary); err != nil {
		return cs
	}
	cs.Installed = true

	out, err := p.output(ctx, binary, versionArgs...)
	if err != nil {
		// Binary exists but version command failed
		cs.Version = "(version unknown)"
		return cs
	}

	cs.Version = firstLine(string(out))
	if len(cs.Version) > 60 {
		cs.Version = cs.Version[:60]
	}
	return cs
}

func (p *Preflight) detectOS() (id, version string) {
	f, err := os.Open(p.OSRelease)
	if err != nil {
		return "unknown", ""
	}
	defer f.Close()
	return parseOSRelease(f)
}

func parseOSRelease(r io.Reader) (id, version string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "ID=") {
			id = strings.Trim(strings.TrimPrefix(line, "ID="), "\"")
		}
		if strings.HasPrefix(line, "VERSION_ID=") {
			version = strings.Trim(strings.TrimPrefix(line, "VERSION_ID="), "\"")
		}
	}
	return id, version
}

func (p *Preflight) detectNvidiaGPU(ctx context.Context) (found bool, name string) {
	out, err := p.output(ctx, "nvidia-smi", "--query-gpu=name", "--format=csv,noheader")
	if err != nil {
		return false, ""
	}
	gpuName := firstLine(string(out))
	if gpuName == "" {
		return false, ""
	}
	return true, gpuName
}

func (p *Preflight) output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	return p.Run(ctx, name, args...)
}

// firstLine takes the first line of multi-GPU output
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
