package bus

import (
	"encoding/json"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tobsch/loxberry-velux/internal/registry"
)

// Logger is the minimal logging surface the client needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client owns the bridge's single connection to the BUS broker.
type Client struct {
	cfg    Config
	topics Topics
	router *Router

	client mqtt.Client

	connMu    sync.Mutex
	connected bool

	loggerMu sync.RWMutex
	logger   Logger

	onEvent func(Event)
}

// New creates a Client for cfg. Connect must be called before Publish.
func New(cfg Config) *Client {
	topics := Topics{Prefix: cfg.TopicPrefix}
	return &Client{
		cfg:    cfg,
		topics: topics,
		router: NewRouter(cfg.TopicPrefix),
		logger: noopLogger{},
	}
}

func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.loggerMu.Lock()
	c.logger = l
	c.loggerMu.Unlock()
}

func (c *Client) log() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// SetOnEvent registers the callback invoked for every parsed incoming
// command (device, scene, or global). Unparseable payloads never reach it.
func (c *Client) SetOnEvent(fn func(Event)) {
	c.onEvent = fn
}

// Topics exposes the client's topic builder, for components that need to
// format a topic name without publishing (tests, logging).
func (c *Client) Topics() Topics { return c.topics }

// Connect dials the broker, publishes the birth message, and subscribes
// to command topics, per spec.md §4.D.
func (c *Client) Connect() error {
	opts := buildClientOptions(c.cfg, c.topics)
	opts.SetOnConnectHandler(c.handleConnect)
	opts.SetConnectionLostHandler(c.handleConnectionLost)

	c.client = mqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return fmt.Errorf("bus: connect timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("bus: connect: %w", err)
	}
	return nil
}

func (c *Client) handleConnect(client mqtt.Client) {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	if err := c.subscribeAll(); err != nil {
		c.log().Error("bus subscribe failed", "error", err)
	}
	if err := c.PublishStatus("online"); err != nil {
		c.log().Error("bus publish online status failed", "error", err)
	}
}

func (c *Client) handleConnectionLost(_ mqtt.Client, err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()
	c.log().Warn("bus connection lost", "error", err)
}

func (c *Client) IsConnected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.connected
}

// Close publishes status=offline synchronously, then disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	if err := c.PublishStatus("offline"); err != nil {
		c.log().Warn("bus publish offline status on close failed", "error", err)
	}
	c.client.Disconnect(250)
	return nil
}

func (c *Client) wrapHandler(fn func(string, []byte)) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.log().Error("bus message handler panicked", "panic", r)
			}
		}()
		fn(msg.Topic(), msg.Payload())
	}
}

func (c *Client) handleIncoming(topic string, payload []byte) {
	ev := c.router.Route(topic, payload)
	if ev.Kind == EventNone {
		c.log().Warn("unparseable bus payload, discarding", "topic", topic, "payload", string(payload))
		return
	}
	if c.onEvent != nil {
		c.onEvent(ev)
	}
}

// marshalDevice encodes d with the device JSON schema in spec.md §6 —
// registry.Device's own JSON tags already match it, so it is marshalled
// directly.
func marshalDevice(d *registry.Device) ([]byte, error) {
	return json.Marshal(d)
}
