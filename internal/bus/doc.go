// Package bus owns the bridge's session to the MQTT broker: connect with a
// last-will-and-testament, topic subscription, payload parsing into typed
// commands, and retained publication of device/scene/status/error topics.
package bus
