package bus

import (
	"crypto/tls"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	tlsMinVersion         = tls.VersionTLS12
)

// Config holds everything the bus client needs to reach the broker and
// name its topics. TopicPrefix/Retain/QoS come from spec.md §6's `mqtt`
// config section; Host/Port/Username/Password/TLS come from the external
// operator broker file (falling back to localhost:1883, no credentials).
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool

	TopicPrefix string
	Retain      bool
	QoS         byte
}

// clientCounter gives each client instance within this process a
// monotonically increasing suffix, per spec.md §4.D's
// "<prefix>-plugin-<monotonic>" client identifier.
var clientCounter atomic.Uint64

func nextClientID(prefix string) string {
	n := clientCounter.Add(1)
	return fmt.Sprintf("%s-plugin-%d", prefix, n)
}

func buildClientOptions(cfg Config, topics Topics) *mqtt.ClientOptions {
	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
	}
	broker := fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(nextClientID(cfg.TopicPrefix))
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(1 * time.Minute)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(60 * time.Second)

	configureLWT(opts, topics, cfg.QoS)
	return opts
}

// configureLWT sets the will message that the broker publishes on the
// bridge's behalf if the connection drops without a clean close, per
// spec.md §4.D: plain "offline", retained, at the configured QoS.
func configureLWT(opts *mqtt.ClientOptions, topics Topics, qos byte) {
	opts.SetWill(topics.Status(), "offline", qos, true)
}
