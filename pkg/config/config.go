// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all LocLint configuration.
type Config struct {
	Version int `yaml:"version"`

	Engine    EngineConfig    `yaml:"engine"`
	Rules     RulesConfig     `yaml:"rules"`
	Output    OutputConfig    `yaml:"output"`
	Baseline  BaselineConfig  `yaml:"baseline"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Watch     WatchConfig     `yaml:"watch"`
}

// EngineConfig controls analysis execution.
type EngineConfig struct {
	Workers int  `yaml:"workers"` // 0 = NumCPU
	Record  bool `yaml:"record"`  // record new findings into the baseline
}

// RulesConfig controls rule resolution and building.
type RulesConfig struct {
	References  []string          `yaml:"references"`   // builtin names, file paths, or bare names
	Sources     []string          `yaml:"sources"`      // rule source files compiled into one bundle
	BuildDir    string            `yaml:"build_dir"`    // must be absolute when set
	SearchPaths []string          `yaml:"search_paths"` // directories scanned for bare references
	Macros      map[string]string `yaml:"macros"`       // ${NAME} expansions, env as fallback
}

// OutputConfig controls report sinks.
type OutputConfig struct {
	Path       string   `yaml:"path"`
	SchemaPath string   `yaml:"schema_path"`
	Properties []string `yaml:"properties"` // empty = all enabled properties
	Sinks      []string `yaml:"sinks"`      // xml | xlsx | s3 | log
}

// BaselineConfig controls finding suppression.
type BaselineConfig struct {
	Enabled bool        `yaml:"enabled"`
	File    string      `yaml:"file"` // JSON store, ignored when redis is set
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig for the shared baseline backend.
type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	Database int           `yaml:"database"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// TelemetryConfig for optional tracing.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
	Insecure    bool    `yaml:"insecure"`
}

// WatchConfig for continuous re-analysis.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Paths    []string      `yaml:"paths"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	loclintDir := filepath.Join(homeDir, ".loclint")

	return &Config{
		Version: 1,
		Engine: EngineConfig{
			Workers: 0, // auto
		},
		Rules: RulesConfig{
			References: []string{"core"},
		},
		Output: OutputConfig{
			Path:  "loclint-report.xml",
			Sinks: []string{"xml"},
		},
		Baseline: BaselineConfig{
			File: filepath.Join(loclintDir, "baseline.json"),
			Redis: RedisConfig{
				Prefix: "loclint:baseline:",
				TTL:    30 * 24 * time.Hour,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName: "loclint",
			SampleRate:  1.0,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string // Paths that were loaded
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{
		config: Default(),
	}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Start with defaults
	m.config = Default()

	// Load from paths in order (later overrides earlier)
	paths := m.getConfigPaths()
	for _, path := range paths {
		if err := m.loadFile(path); err != nil {
			// Ignore missing files, but surface errors for existing files
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	// Override with environment variables
	m.loadEnv()

	return nil
}

// LoadFile loads a single explicit config file on top of the current
// state. Used for the --config flag.
func (m *Manager) LoadFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadFile(path); err != nil {
		return err
	}
	m.paths = append(m.paths, path)
	return nil
}

// getConfigPaths returns config file paths in priority order.
func (m *Manager) getConfigPaths() []string {
	var paths []string

	// System config
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/loclint/config.yaml")
	}

	// User config
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".loclint", "config.yaml"))
	}

	// Project config (current directory)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".loclint.yaml"))
	}

	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}

	// Merge non-zero values
	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	// Engine
	if src.Engine.Workers != 0 {
		m.config.Engine.Workers = src.Engine.Workers
	}
	if src.Engine.Record {
		m.config.Engine.Record = true
	}

	// Rules
	if len(src.Rules.References) > 0 {
		m.config.Rules.References = src.Rules.References
	}
	if len(src.Rules.Sources) > 0 {
		m.config.Rules.Sources = src.Rules.Sources
	}
	if src.Rules.BuildDir != "" {
		m.config.Rules.BuildDir = src.Rules.BuildDir
	}
	if len(src.Rules.SearchPaths) > 0 {
		m.config.Rules.SearchPaths = src.Rules.SearchPaths
	}
	if len(src.Rules.Macros) > 0 {
		if m.config.Rules.Macros == nil {
			m.config.Rules.Macros = make(map[string]string, len(src.Rules.Macros))
		}
		for k, v := range src.Rules.Macros {
			m.config.Rules.Macros[k] = v
		}
	}

	// Output
	if src.Output.Path != "" {
		m.config.Output.Path = src.Output.Path
	}
	if src.Output.SchemaPath != "" {
		m.config.Output.SchemaPath = src.Output.SchemaPath
	}
	if len(src.Output.Properties) > 0 {
		m.config.Output.Properties = src.Output.Properties
	}
	if len(src.Output.Sinks) > 0 {
		m.config.Output.Sinks = src.Output.Sinks
	}

	// Baseline
	if src.Baseline.Enabled {
		m.config.Baseline.Enabled = true
	}
	if src.Baseline.File != "" {
		m.config.Baseline.File = src.Baseline.File
	}
	if src.Baseline.Redis.Address != "" {
		m.config.Baseline.Redis.Address = src.Baseline.Redis.Address
	}
	if src.Baseline.Redis.Password != "" {
		m.config.Baseline.Redis.Password = src.Baseline.Redis.Password
	}
	if src.Baseline.Redis.Database != 0 {
		m.config.Baseline.Redis.Database = src.Baseline.Redis.Database
	}
	if src.Baseline.Redis.Prefix != "" {
		m.config.Baseline.Redis.Prefix = src.Baseline.Redis.Prefix
	}
	if src.Baseline.Redis.TTL != 0 {
		m.config.Baseline.Redis.TTL = src.Baseline.Redis.TTL
	}

	// Telemetry
	if src.Telemetry.Enabled {
		m.config.Telemetry.Enabled = true
	}
	if src.Telemetry.Endpoint != "" {
		m.config.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
	if src.Telemetry.ServiceName != "" {
		m.config.Telemetry.ServiceName = src.Telemetry.ServiceName
	}
	if src.Telemetry.SampleRate != 0 {
		m.config.Telemetry.SampleRate = src.Telemetry.SampleRate
	}
	if src.Telemetry.Insecure {
		m.config.Telemetry.Insecure = true
	}

	// Watch
	if src.Watch.Debounce != 0 {
		m.config.Watch.Debounce = src.Watch.Debounce
	}
	if len(src.Watch.Paths) > 0 {
		m.config.Watch.Paths = src.Watch.Paths
	}
}

// loadEnv loads configuration from environment variables.
func (m *Manager) loadEnv() {
	// LOCLINT_WORKERS
	if v := os.Getenv("LOCLINT_WORKERS"); v != "" {
		var workers int
		if _, err := fmt.Sscanf(v, "%d", &workers); err == nil {
			m.config.Engine.Workers = workers
		}
	}

	// LOCLINT_BUILD_DIR
	if v := os.Getenv("LOCLINT_BUILD_DIR"); v != "" {
		m.config.Rules.BuildDir = v
	}

	// LOCLINT_OUTPUT
	if v := os.Getenv("LOCLINT_OUTPUT"); v != "" {
		m.config.Output.Path = v
	}

	// LOCLINT_BASELINE_REDIS
	if v := os.Getenv("LOCLINT_BASELINE_REDIS"); v != "" {
		m.config.Baseline.Enabled = true
		m.config.Baseline.Redis.Address = v
	}

	// LOCLINT_OTLP_ENDPOINT
	if v := os.Getenv("LOCLINT_OTLP_ENDPOINT"); v != "" {
		m.config.Telemetry.Enabled = true
		m.config.Telemetry.Endpoint = v
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}
