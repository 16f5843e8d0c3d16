package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/avelot/fleetdispatch/core/dispatch"
	"github.com/avelot/fleetdispatch/core/workload"
	"github.com/avelot/fleetdispatch/infra/notify"
)

// Config is the root configuration of the dispatch service.
type Config struct {
	Dispatch dispatch.Config `json:"dispatch"`
	Workload workload.Config `json:"workload"`
	Audit    AuditConfig     `json:"audit"`
	Metrics  MetricsConfig   `json:"metrics"`
	Notifier NotifierConfig  `json:"notifier"`
	Store    StoreConfig     `json:"store"`
}

// AuditConfig defines settings for the assignment audit log.
type AuditConfig struct {
	// Enabled turns audit logging on.
	Enabled bool `json:"enabled"`
	// Path is the JSONL file location.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *AuditConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "assignments.log"
	}
}

// Validate checks mandatory fields.
func (c AuditConfig) Validate() error {
	if c.Enabled && c.Path == "" {
		return fmt.Errorf("audit path is required")
	}
	return nil
}

// MetricsConfig selects observability sinks.
type MetricsConfig struct {
	Prometheus bool         `json:"prometheus"`
	Influx     InfluxConfig `json:"influx"`
}

// InfluxConfig configures the InfluxDB sink. An empty URL disables it.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// NotifierConfig configures the MQTT driver notifier. When disabled the
// backend's own notification support is used, if any.
type NotifierConfig struct {
	Enabled bool          `json:"enabled"`
	MQTT    notify.Config `json:"mqtt"`
}

// StoreConfig selects the backend. Only the seeded in-memory backend is
// built in; production deployments inject their own port implementation.
type StoreConfig struct {
	// SeedPath is the JSON fixture the in-memory backend loads.
	SeedPath string `json:"seed_path"`
}

// Load reads the configuration file at path, with K_-prefixed environment
// variables overriding file values.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Dispatch.SetDefaults()
	cfg.Workload.SetDefaults()
	cfg.Audit.SetDefaults()
	cfg.Notifier.MQTT.SetDefaults()
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
