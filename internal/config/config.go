package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Telemetry sources
const (
	TelemetryAuto      = "auto"
	TelemetryNVML      = "nvml"
	TelemetryNvidiaSMI = "nvidia-smi"
	TelemetryMock      = "mock"
)

// Config holds gateway settings
type Config struct {
	ListenAddr   string
	RegistryFile string // empty means the built-in registry
	ServiceHost  string // host used for health probes

	TelemetrySource  string
	TelemetryTimeout time.Duration
	RuntimeTimeout   time.Duration
	ProbeTimeout     time.Duration

	MaxConcurrentProbes int
	MonitorInterval     time.Duration // 0 disables the fleet monitor
	DockerWait          time.Duration
	ShutdownTimeout     time.Duration

	LogLevel  string
	LogFormat string
}

// LoadEnvFile loads variables from a dotenv file without overriding the
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from the environment. Callers apply flag
// overrides and then call Validate.
func Load() Config {
	cfg := Config{
		ListenAddr:   env("SPARK_LISTEN_ADDR", ":8787"),
		RegistryFile: env("SPARK_REGISTRY_FILE", ""),
		ServiceHost:  env("SPARK_SERVICE_HOST", "localhost"),

		TelemetrySource:  env("SPARK_TELEMETRY_SOURCE", TelemetryAuto),
		TelemetryTimeout: envDuration("SPARK_TELEMETRY_TIMEOUT", 5*time.Second),
		RuntimeTimeout:   envDuration("SPARK_RUNTIME_TIMEOUT", 3*time.Second),
		ProbeTimeout:     envDuration("SPARK_PROBE_TIMEOUT", 3*time.Second),

		MaxConcurrentProbes: envInt("SPARK_MAX_CONCURRENT_PROBES", 8),
		MonitorInterval:     envDuration("SPARK_MONITOR_INTERVAL", 0),
		DockerWait:          envDuration("SPARK_DOCKER_WAIT", 10*time.Second),
		ShutdownTimeout:     envDuration("SPARK_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  env("SPARK_LOG_LEVEL", "info"),
		LogFormat: env("SPARK_LOG_FORMAT", "text"),
	}
	cfg.Normalize()
	return cfg
}

// Normalize lowercases the enumerated settings. Call it again after
// applying flag overrides.
func (c *Config) Normalize() {
	c.TelemetrySource = strings.ToLower(strings.TrimSpace(c.TelemetrySource))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("SPARK_LISTEN_ADDR is required")
	}
	if strings.TrimSpace(c.ServiceHost) == "" {
		return errors.New("SPARK_SERVICE_HOST is required")
	}
	switch c.TelemetrySource {
	case TelemetryAuto, TelemetryNVML, TelemetryNvidiaSMI, TelemetryMock:
	default:
		return fmt.Errorf("unsupported telemetry source %q", c.TelemetrySource)
	}
	if c.TelemetryTimeout <= 0 || c.RuntimeTimeout <= 0 || c.ProbeTimeout <= 0 {
		return errors.New("telemetry, runtime and probe timeouts must be > 0")
	}
	if c.MaxConcurrentProbes < 1 {
		return errors.New("SPARK_MAX_CONCURRENT_PROBES must be >= 1")
	}
	if c.MonitorInterval < 0 {
		return errors.New("SPARK_MONITOR_INTERVAL must be >= 0")
	}
	if c.DockerWait < 0 {
		return errors.New("SPARK_DOCKER_WAIT must be >= 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SPARK_SHUTDOWN_TIMEOUT must be > 0")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	return nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
