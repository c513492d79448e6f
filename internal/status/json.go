package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Lamp          LampJSON    `json:"lamp"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	LastEvent     *EventJSON  `json:"last_event,omitempty"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Counts        CountsJSON  `json:"event_counts"`
	Config        *ConfigJSON `json:"config,omitempty"`
}

// LampJSON is the JSON representation of the lamp state.
type LampJSON struct {
	On            bool   `json:"on"`
	Brightness    int    `json:"brightness"`
	Levels        int    `json:"levels"`
	Phase         string `json:"pulse_phase"`
	Pending       int    `json:"pending_pulses"`
	ButtonPressed bool   `json:"button_pressed"`
}

// EventJSON is the JSON representation of the last lamp event.
type EventJSON struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Source    string `json:"source"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	ShortClicks     int `json:"short_clicks"`
	LongClicks      int `json:"long_clicks"`
	Bounces         int `json:"bounces"`
	RemoteCommands  int `json:"remote_commands"`
	PowerOn         int `json:"power_on"`
	PowerOff        int `json:"power_off"`
	BrightnessSteps int `json:"brightness_steps"`
	Pulses          int `json:"pulses"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs          int64  `json:"poll_ms"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	Broker          string `json:"broker"`
	HTTPAddr        string `json:"http_addr"`
	AssertMs        uint32 `json:"assert_ms"`
	CycleMs         uint32 `json:"cycle_ms"`
	DebounceMs      uint32 `json:"debounce_ms"`
	LongThresholdMs uint32 `json:"long_threshold_ms"`
	PowerSettleMs   uint32 `json:"power_settle_ms"`
	PinButton       int    `json:"pin_button"`
	PinPower        int    `json:"pin_power"`
	PinClick        int    `json:"pin_click"`
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Counts
	inner := StatusInner{
		Lamp: LampJSON{
			On:            snap.Lamp.On,
			Brightness:    snap.Lamp.Brightness,
			Levels:        snap.Config.Timings.BrightnessLevels,
			Phase:         snap.Lamp.Phase.String(),
			Pending:       snap.Lamp.Pending,
			ButtonPressed: snap.Lamp.ButtonPressed,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			ShortClicks:     c.ShortClicks,
			LongClicks:      c.LongClicks,
			Bounces:         c.Bounces,
			RemoteCommands:  c.RemoteCommands,
			PowerOn:         c.PowerOn,
			PowerOff:        c.PowerOff,
			BrightnessSteps: c.BrightnessSteps,
			Pulses:          c.Pulses,
		},
	}
	if ev := snap.LastEvent; ev != nil {
		inner.LastEvent = &EventJSON{
			Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(ev.Type),
			Source:    string(ev.Source),
		}
	}
	return inner
}

func buildConfig(snap Snapshot) *ConfigJSON {
	cfg := snap.Config
	return &ConfigJSON{
		PollMs:          cfg.PollMs,
		HeartbeatMs:     cfg.HeartbeatMs,
		Broker:          cfg.Broker,
		HTTPAddr:        cfg.HTTPAddr,
		AssertMs:        uint32(cfg.Timings.AssertMs),
		CycleMs:         uint32(cfg.Timings.CycleMs),
		DebounceMs:      uint32(cfg.Timings.DebounceMs),
		LongThresholdMs: uint32(cfg.Timings.LongThresholdMs),
		PowerSettleMs:   uint32(cfg.Timings.PowerSettleMs),
		PinButton:       cfg.PinButton,
		PinPower:        cfg.PinPower,
		PinClick:        cfg.PinClick,
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	inner.Config = buildConfig(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
// Config is only included at startup.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	if event == "STARTUP" {
		inner.Config = buildConfig(snap)
	}

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
