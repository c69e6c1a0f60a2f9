// Package actuator relays validated commands to physical actuators over MQTT.
//
// The HTTP layer accepts a command, the relay checks it against the known
// command set, and the bare command string is published to the topic the
// actuator firmware subscribes to (e.g. /actuators/sg90). The server never
// tracks actuator state; the device is the source of truth.
package actuator

import (
	"errors"
	"fmt"
)

// Commands understood by the SG90 servo firmware.
const (
	CommandOpen  = "open"
	CommandClose = "close"
)

// Sentinel errors for relay operations.
var (
	ErrUnknownCommand = errors.New("actuator: unknown command")
	ErrPublishFailed  = errors.New("actuator: relay failed")
)

// Publisher is the MQTT surface the relay needs. Satisfied by mqtt.Client.
type Publisher interface {
	PublishString(topic, payload string, qos byte, retained bool) error
}

// Relay forwards actuator commands to a configured MQTT topic.
type Relay struct {
	publisher Publisher
	topic     string
	qos       byte
}

// NewRelay creates a relay bound to one actuator topic.
func NewRelay(publisher Publisher, topic string, qos byte) *Relay {
	return &Relay{publisher: publisher, topic: topic, qos: qos}
}

// Topic returns the topic this relay publishes to.
func (r *Relay) Topic() string {
	return r.topic
}

// ValidCommand reports whether the command is in the known set.
func ValidCommand(command string) bool {
	return command == CommandOpen || command == CommandClose
}

// Send validates and publishes a command. Unknown commands are rejected
// before anything reaches the broker. Commands are not retained: a servo
// that reconnects should not replay the last movement.
func (r *Relay) Send(command string) error {
	if !ValidCommand(command) {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	if err := r.publisher.PublishString(r.topic, command, r.qos, false); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
