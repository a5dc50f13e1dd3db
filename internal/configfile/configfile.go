// Package configfile reads and writes the per-project foolery settings
// file (.foolery/config.yaml).
package configfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the settings file inside the foolery directory.
const ConfigFileName = "config.yaml"

// DirName is the per-project data directory.
const DirName = ".foolery"

// Config selects and configures the backend for a project.
type Config struct {
	// Backend is the adapter name: "jsonl", "bd", or "stub".
	Backend string `yaml:"backend"`

	// JSONLFile is the bead log for the jsonl backend, relative to the
	// foolery directory.
	JSONLFile string `yaml:"jsonl_file,omitempty"`

	// BDBinary is the bd executable for the bd backend.
	BDBinary string `yaml:"bd_binary,omitempty"`
	// BDDBPath is passed to bd via --db when set.
	BDDBPath string `yaml:"bd_db_path,omitempty"`

	// TimeoutSeconds bounds each subprocess invocation (bd backend).
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`

	// Actor is recorded as the creator of new beads.
	Actor string `yaml:"actor,omitempty"`

	// IDPrefix prefixes generated bead ids.
	IDPrefix string `yaml:"id_prefix,omitempty"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Backend:        "jsonl",
		JSONLFile:      "beads.jsonl",
		BDBinary:       "bd",
		TimeoutSeconds: 30,
		IDPrefix:       "fl",
	}
}

// ConfigPath returns the settings file path inside fooleryDir.
func ConfigPath(fooleryDir string) string {
	return filepath.Join(fooleryDir, ConfigFileName)
}

// Load reads the config from fooleryDir. A missing file returns (nil, nil).
func Load(fooleryDir string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(fooleryDir)) // #nosec G304 - controlled path
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes the config into fooleryDir, creating the directory if needed.
func (c *Config) Save(fooleryDir string) error {
	if err := os.MkdirAll(fooleryDir, 0o750); err != nil {
		return fmt.Errorf("creating foolery dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(fooleryDir), data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.JSONLFile == "" {
		c.JSONLFile = def.JSONLFile
	}
	if c.BDBinary == "" {
		c.BDBinary = def.BDBinary
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
	if c.IDPrefix == "" {
		c.IDPrefix = def.IDPrefix
	}
}

// JSONLPath returns the absolute bead log path for the jsonl backend.
func (c *Config) JSONLPath(fooleryDir string) string {
	if filepath.IsAbs(c.JSONLFile) {
		return c.JSONLFile
	}
	return filepath.Join(fooleryDir, c.JSONLFile)
}

// Timeout returns the subprocess timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
