// klf200bridge bridges one Velux KLF200-class gateway to an MQTT broker.
//
// It connects to the gateway over authenticated TLS, discovers actuators
// and scenes, and keeps their state mirrored onto retained MQTT topics
// while translating commands published on the broker back into gateway
// requests.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/tobsch/loxberry-velux/internal/bus"
	"github.com/tobsch/loxberry-velux/internal/daemon"
	"github.com/tobsch/loxberry-velux/internal/gwsession"
	"github.com/tobsch/loxberry-velux/internal/infrastructure/config"
	"github.com/tobsch/loxberry-velux/internal/infrastructure/logging"
	"github.com/tobsch/loxberry-velux/internal/registry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting klf200bridge", "version", version, "commit", commit, "build_date", date)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	broker, err := config.LoadBrokerFile(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("loading broker file: %w", err)
	}
	log.Info("broker configuration loaded", "host", broker.Host, "port", broker.Port)

	reg := registry.New(filepath.Join(cfg.DataDir, "devices.json"))
	reg.SetLogger(log)
	if err := reg.Load(); err != nil {
		return fmt.Errorf("loading device registry snapshot: %w", err)
	}
	log.Info("device registry loaded", "devices", len(reg.List()))

	gw := gwsession.New(gwsession.Config{
		Host:              cfg.KLF200.Host,
		Port:              cfg.KLF200.Port,
		Password:          cfg.KLF200.Password,
		TLSFingerprint:    cfg.KLF200.TLSFingerprint,
		ConnectTimeout:    cfg.ConnectionTimeoutDuration(),
		KeepaliveInterval: cfg.KeepaliveIntervalDuration(),
		ReconnectBase:     cfg.ReconnectBaseDelayDuration(),
		ReconnectMax:      cfg.ReconnectMaxDelayDuration(),
	})
	gw.SetLogger(log)

	busc := bus.New(bus.Config{
		Host:        broker.Host,
		Port:        broker.Port,
		Username:    broker.Username,
		Password:    broker.Password,
		TLS:         broker.TLS,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		Retain:      cfg.MQTT.Retain,
		QoS:         byte(cfg.MQTT.QoS),
	})
	busc.SetLogger(log)

	d := daemon.New(daemon.Options{
		AutoDiscovery:    cfg.Features.AutoDiscovery,
		PublishOnStartup: cfg.Features.PublishOnStartup,
		PollingEnabled:   cfg.Polling.Enabled,
		PollingInterval:  cfg.PollingIntervalDuration(),
	}, reg, gw, busc, log)

	log.Info("initialisation complete, starting daemon")

	if err := d.Run(ctx); err != nil {
		return fmt.Errorf("running daemon: %w", err)
	}

	log.Info("klf200bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses KLF200BRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("KLF200BRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
