// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/headlamp/internal/logic"
)

// DefaultTopicPrefix is the topic root used when none is configured.
const DefaultTopicPrefix = "home/headlamp"

// Topics are the MQTT topics used by the daemon.
type Topics struct {
	Events  string // lamp state changes
	System  string // lifecycle events and LWT
	Command string // remote clicks
}

// TopicsFor derives the topic set from a prefix.
func TopicsFor(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return Topics{
		Events:  prefix + "/events",
		System:  prefix + "/system",
		Command: prefix + "/command",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a lamp event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Commander delivers remote clicks received from the broker.
type Commander interface {
	Commands() <-chan Command
}

// Command is a remote click request.
type Command struct {
	Click    logic.Click
	Received time.Time
}

// ParseCommand maps a command payload to a click. Accepted payloads are
// SHORT (or CLICK) and LONG (or POWER), case-insensitive.
func ParseCommand(payload []byte) (logic.Click, error) {
	switch strings.ToUpper(strings.TrimSpace(string(payload))) {
	case "SHORT", "CLICK":
		return logic.ClickShort, nil
	case "LONG", "POWER":
		return logic.ClickLong, nil
	}
	return logic.ClickNone, fmt.Errorf("unknown command %q", payload)
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Lamp LampPayload `json:"lamp"`
}

// LampPayload contains the lamp event details.
type LampPayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	Source     string `json:"source"`
	On         bool   `json:"on"`
	Brightness int    `json:"brightness"`
}

// FormatPayload creates the JSON payload for a lamp event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Lamp: LampPayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Event:      string(event.Type),
			Source:     string(event.Source),
			On:         event.On,
			Brightness: event.Brightness,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is the last-will message the broker publishes if the daemon
// disappears. It carries no timestamp since it is registered at connect time.
func WillPayload() []byte {
	data, _ := json.Marshal(SystemPayload{System: SystemPayloadInner{Event: "OFFLINE"}})
	return data
}
