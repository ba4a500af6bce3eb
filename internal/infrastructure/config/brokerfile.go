package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BrokerFile is the shape of the operator-maintained broker file named in
// spec.md §6: broker address, credentials, and TLS flag live outside the
// main config file so they can be rotated independently of it.
type BrokerFile struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	TLS      bool   `yaml:"tls"`
}

// defaultBrokerFile matches spec.md §6's fallback: localhost:1883, no
// credentials, no TLS.
func defaultBrokerFile() BrokerFile {
	return BrokerFile{Host: "localhost", Port: 1883}
}

// LoadBrokerFile reads dataDir/mqtt-broker.yaml. A missing file is not an
// error: it falls back to defaultBrokerFile.
func LoadBrokerFile(dataDir string) (BrokerFile, error) {
	path := filepath.Join(dataDir, "mqtt-broker.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultBrokerFile(), nil
		}
		return BrokerFile{}, fmt.Errorf("reading broker file: %w", err)
	}

	bf := defaultBrokerFile()
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return BrokerFile{}, fmt.Errorf("parsing broker file: %w", err)
	}

	return bf, nil
}
