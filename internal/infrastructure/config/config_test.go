package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
klf200:
  host: "10.0.0.5"
  password: "secret"
mqtt:
  topicPrefix: "klf200"
  qos: 1
dataDir: "/tmp/klf200bridge"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.KLF200.Host != "10.0.0.5" {
		t.Errorf("KLF200.Host = %q, want %q", cfg.KLF200.Host, "10.0.0.5")
	}
	if cfg.KLF200.Port != 51200 {
		t.Errorf("KLF200.Port = %d, want default 51200", cfg.KLF200.Port)
	}
	if cfg.MQTT.TopicPrefix != "klf200" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "klf200")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
klf200:
  host: ""
  password: "secret"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty klf200.host, got nil")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want wrapping ErrInvalidConfig", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		c := defaultConfig()
		c.KLF200.Host = "10.0.0.5"
		c.KLF200.Password = "secret"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}, wantErr: false},
		{name: "missing host", mutate: func(c *Config) { c.KLF200.Host = "" }, wantErr: true},
		{name: "missing password", mutate: func(c *Config) { c.KLF200.Password = "" }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.KLF200.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.KLF200.Port = 70000 }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "missing dataDir", mutate: func(c *Config) { c.DataDir = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.ConnectionTimeoutDuration().Seconds(); got != 10 {
		t.Errorf("ConnectionTimeoutDuration() = %vs, want 10s", got)
	}
	if got := cfg.KeepaliveIntervalDuration().Minutes(); got != 10 {
		t.Errorf("KeepaliveIntervalDuration() = %vm, want 10m", got)
	}
	if got := cfg.ReconnectBaseDelayDuration().Seconds(); got != 5 {
		t.Errorf("ReconnectBaseDelayDuration() = %vs, want 5s", got)
	}
	if got := cfg.ReconnectMaxDelayDuration().Seconds(); got != 60 {
		t.Errorf("ReconnectMaxDelayDuration() = %vs, want 60s", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("KLF200BRIDGE_KLF200_HOST", "10.0.0.9")
	t.Setenv("KLF200BRIDGE_KLF200_PASSWORD", "envpass")
	t.Setenv("KLF200BRIDGE_DATA_DIR", "/custom/data")

	applyEnvOverrides(cfg)

	if cfg.KLF200.Host != "10.0.0.9" {
		t.Errorf("KLF200.Host = %q, want %q", cfg.KLF200.Host, "10.0.0.9")
	}
	if cfg.KLF200.Password != "envpass" {
		t.Errorf("KLF200.Password = %q, want %q", cfg.KLF200.Password, "envpass")
	}
	if cfg.DataDir != "/custom/data" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "/custom/data")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.KLF200.Port != 51200 {
		t.Errorf("defaultConfig KLF200.Port = %d, want 51200", cfg.KLF200.Port)
	}
	if cfg.MQTT.TopicPrefix != "klf200" {
		t.Errorf("defaultConfig MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "klf200")
	}
	if !cfg.Features.AutoDiscovery {
		t.Error("defaultConfig should enable AutoDiscovery")
	}
}
