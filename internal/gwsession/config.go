package gwsession

import "time"

// defaults mirror spec.md §4.C/§6: connectionTimeout 10s, keepaliveInterval
// 10 min (floor 1 min), reconnectBaseDelay/reconnectMaxDelay.
const (
	defaultConnectTimeout    = 10 * time.Second
	defaultKeepaliveInterval = 10 * time.Minute
	minKeepaliveInterval     = 1 * time.Minute
	defaultReconnectBase     = 5 * time.Second
	defaultReconnectMax      = 60 * time.Second
	defaultReadTimeout       = 30 * time.Second
	defaultWriteTimeout      = 5 * time.Second
)

// Config holds everything the session needs to reach and authenticate to
// the GW. Zero-value durations are replaced with the defaults above by
// Connect.
type Config struct {
	Host           string
	Port           int
	Password       string
	TLSFingerprint string // hex SHA-256, empty to accept any self-signed cert

	ConnectTimeout    time.Duration
	KeepaliveInterval time.Duration
	ReconnectBase     time.Duration
	ReconnectMax      time.Duration
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = defaultKeepaliveInterval
	}
	if c.KeepaliveInterval < minKeepaliveInterval {
		c.KeepaliveInterval = minKeepaliveInterval
	}
	if c.ReconnectBase <= 0 {
		c.ReconnectBase = defaultReconnectBase
	}
	if c.ReconnectMax <= 0 {
		c.ReconnectMax = defaultReconnectMax
	}
	return c
}
