package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the bridge daemon.
// All configuration is loaded from YAML; a few fields (see applyEnvOverrides)
// can be overridden by environment variables.
type Config struct {
	KLF200   KLF200Config   `yaml:"klf200"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Polling  PollingConfig  `yaml:"polling"`
	Features FeaturesConfig `yaml:"features"`
	Logging  LoggingConfig  `yaml:"logging"`
	DataDir  string         `yaml:"dataDir"`
}

// KLF200Config contains GW connection settings.
type KLF200Config struct {
	Host               string `yaml:"host"`
	Password           string `yaml:"password"`
	Port               int    `yaml:"port"`
	TLSFingerprint     string `yaml:"tlsFingerprint"`
	ConnectionTimeout  int    `yaml:"connectionTimeoutMs"`
	KeepaliveInterval  int    `yaml:"keepaliveIntervalMs"`
	ReconnectBaseDelay int    `yaml:"reconnectBaseDelayMs"`
	ReconnectMaxDelay  int    `yaml:"reconnectMaxDelayMs"`
}

// MQTTConfig contains BUS topic and QoS settings. The broker address itself
// is not here — it comes from the operator broker file (brokerfile.go).
type MQTTConfig struct {
	TopicPrefix string `yaml:"topicPrefix"`
	Retain      bool   `yaml:"retain"`
	QoS         int    `yaml:"qos"`
}

// PollingConfig contains the periodic device re-query settings.
type PollingConfig struct {
	Enabled  bool `yaml:"enabled"`
	Interval int  `yaml:"intervalMs"`
}

// FeaturesConfig toggles optional daemon behavior.
type FeaturesConfig struct {
	AutoDiscovery    bool `yaml:"autoDiscovery"`
	PublishOnStartup bool `yaml:"publishOnStartup"`

	// HomeAssistantDiscovery is accepted but currently unused by the core;
	// carried through so existing config files do not fail to parse.
	HomeAssistantDiscovery bool `yaml:"homeAssistantDiscovery"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	MaxSize  int    `yaml:"maxSize"`
	MaxFiles int    `yaml:"maxFiles"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: KLF200BRIDGE_SECTION_KEY
// For example: KLF200BRIDGE_KLF200_HOST, KLF200BRIDGE_KLF200_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with the defaults named in spec.md §6.
func defaultConfig() *Config {
	return &Config{
		KLF200: KLF200Config{
			Port:               51200,
			ConnectionTimeout:  10_000,
			KeepaliveInterval:  600_000,
			ReconnectBaseDelay: 5_000,
			ReconnectMaxDelay:  60_000,
		},
		MQTT: MQTTConfig{
			TopicPrefix: "klf200",
			Retain:      true,
			QoS:         1,
		},
		Polling: PollingConfig{
			Enabled:  false,
			Interval: 30_000,
		},
		Features: FeaturesConfig{
			AutoDiscovery:    true,
			PublishOnStartup: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		DataDir: "./data",
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: KLF200BRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KLF200BRIDGE_KLF200_HOST"); v != "" {
		cfg.KLF200.Host = v
	}
	if v := os.Getenv("KLF200BRIDGE_KLF200_PASSWORD"); v != "" {
		cfg.KLF200.Password = v
	}
	if v := os.Getenv("KLF200BRIDGE_KLF200_TLS_FINGERPRINT"); v != "" {
		cfg.KLF200.TLSFingerprint = v
	}
	if v := os.Getenv("KLF200BRIDGE_MQTT_TOPIC_PREFIX"); v != "" {
		cfg.MQTT.TopicPrefix = v
	}
	if v := os.Getenv("KLF200BRIDGE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("KLF200BRIDGE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration against the rules in spec.md §4.E step 1:
// fail fast on a missing host, missing password, an out-of-range port, or an
// invalid QoS, before any external connection is opened.
func (c *Config) Validate() error {
	var errs []string

	if c.KLF200.Host == "" {
		errs = append(errs, "klf200.host is required")
	}
	if c.KLF200.Password == "" {
		errs = append(errs, "klf200.password is required")
	}
	if c.KLF200.Port < 1 || c.KLF200.Port > 65535 {
		errs = append(errs, "klf200.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.DataDir == "" {
		errs = append(errs, "dataDir is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// ConnectionTimeoutDuration returns klf200.connectionTimeoutMs as a Duration.
func (c *Config) ConnectionTimeoutDuration() time.Duration {
	return time.Duration(c.KLF200.ConnectionTimeout) * time.Millisecond
}

// KeepaliveIntervalDuration returns klf200.keepaliveIntervalMs as a Duration.
func (c *Config) KeepaliveIntervalDuration() time.Duration {
	return time.Duration(c.KLF200.KeepaliveInterval) * time.Millisecond
}

// ReconnectBaseDelayDuration returns klf200.reconnectBaseDelayMs as a Duration.
func (c *Config) ReconnectBaseDelayDuration() time.Duration {
	return time.Duration(c.KLF200.ReconnectBaseDelay) * time.Millisecond
}

// ReconnectMaxDelayDuration returns klf200.reconnectMaxDelayMs as a Duration.
func (c *Config) ReconnectMaxDelayDuration() time.Duration {
	return time.Duration(c.KLF200.ReconnectMaxDelay) * time.Millisecond
}

// PollingIntervalDuration returns polling.intervalMs as a Duration.
func (c *Config) PollingIntervalDuration() time.Duration {
	return time.Duration(c.Polling.Interval) * time.Millisecond
}
