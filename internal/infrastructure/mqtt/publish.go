package mqtt

import (
	"fmt"
)

// maxPayloadSize bounds a single message (1MB), aligning with typical
// broker limits.
const maxPayloadSize = 1 << 20

// Publish sends a message to the specified MQTT topic.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishStatus implements the device runtime's status publisher: the
// payload lands retained on the device's status topic. It runs the
// publish asynchronously and swallows failures deliberately: a slow or
// absent broker must never stall a device handler, and the retained
// topic heals on the next update.
func (c *Client) PublishStatus(device, field string, payload []byte) {
	topic := Topics{}.DeviceStatus(device, field)
	go func() {
		_ = c.Publish(topic, payload, byte(c.cfg.QoS), true)
	}()
}
