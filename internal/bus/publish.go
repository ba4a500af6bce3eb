package bus

import (
	"fmt"
	"strconv"

	"github.com/tobsch/loxberry-velux/internal/registry"
)

// Publish sends payload to topic, waiting for broker acknowledgement.
// Callers that are not connected get ErrNotConnected immediately rather
// than blocking on a publish that cannot complete.
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	token := c.client.Publish(topic, c.cfg.QoS, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timed out publishing %s", ErrPublishFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublishFailed, topic, err)
	}
	return nil
}

// PublishStatus publishes "online" or "offline" to {prefix}/status, at the
// configured QoS and retained flag (mqtt.retain, default true per
// spec.md §6).
func (c *Client) PublishStatus(status string) error {
	return c.Publish(c.topics.Status(), []byte(status), c.cfg.Retain)
}

// PublishDevice publishes the device's state, position, and moving topics,
// per spec.md §4.D, retained per mqtt.retain.
func (c *Client) PublishDevice(d *registry.Device) error {
	state, err := marshalDevice(d)
	if err != nil {
		return fmt.Errorf("bus: marshal device %d: %w", d.NodeID, err)
	}
	if err := c.Publish(c.topics.DeviceState(d.NodeID), state, c.cfg.Retain); err != nil {
		return err
	}
	if err := c.Publish(c.topics.DevicePosition(d.NodeID), []byte(strconv.Itoa(d.Position)), c.cfg.Retain); err != nil {
		return err
	}
	moving := "false"
	if d.Moving {
		moving = "true"
	}
	return c.Publish(c.topics.DeviceMoving(d.NodeID), []byte(moving), c.cfg.Retain)
}

// PublishScene publishes the scene's state topic, retained per mqtt.retain.
func (c *Client) PublishScene(s *registry.Scene) error {
	payload, err := marshalScene(s)
	if err != nil {
		return fmt.Errorf("bus: marshal scene %d: %w", s.SceneID, err)
	}
	return c.Publish(c.topics.SceneState(s.SceneID), payload, c.cfg.Retain)
}

// PublishError publishes a JSON error record to {prefix}/errors, not
// retained, per spec.md §4.D/§7.
func (c *Client) PublishError(rec ErrorRecord) error {
	payload, err := marshalErrorRecord(rec)
	if err != nil {
		return fmt.Errorf("bus: marshal error record: %w", err)
	}
	return c.Publish(c.topics.Errors(), payload, false)
}

func (c *Client) subscribeAll() error {
	subs := []struct {
		topic string
	}{
		{c.topics.AllDeviceCmds()},
		{c.topics.AllDevicePositionSets()},
		{c.topics.AllSceneCmds()},
		{c.topics.Cmd()},
	}
	for _, sub := range subs {
		token := c.client.Subscribe(sub.topic, c.cfg.QoS, c.wrapHandler(c.handleIncoming))
		if !token.WaitTimeout(defaultConnectTimeout) {
			return fmt.Errorf("%w: %s: timed out", ErrSubscribeFailed, sub.topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSubscribeFailed, sub.topic, err)
		}
	}
	return nil
}
