package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBrokerFile_Missing(t *testing.T) {
	bf, err := LoadBrokerFile(t.TempDir())
	if err != nil {
		t.Fatalf("LoadBrokerFile() error = %v", err)
	}
	if bf.Host != "localhost" || bf.Port != 1883 {
		t.Errorf("LoadBrokerFile() = %+v, want localhost:1883 fallback", bf)
	}
}

func TestLoadBrokerFile_Present(t *testing.T) {
	dir := t.TempDir()
	content := `
host: "mqtt.internal"
port: 8883
username: "bridge"
password: "secret"
tls: true
`
	if err := os.WriteFile(filepath.Join(dir, "mqtt-broker.yaml"), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write broker file: %v", err)
	}

	bf, err := LoadBrokerFile(dir)
	if err != nil {
		t.Fatalf("LoadBrokerFile() error = %v", err)
	}
	if bf.Host != "mqtt.internal" || bf.Port != 8883 || !bf.TLS {
		t.Errorf("LoadBrokerFile() = %+v, want mqtt.internal:8883 tls", bf)
	}
}
