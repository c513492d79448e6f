// Package config holds the daemon configuration and resolves it from, in
// increasing order of precedence: defaults, a TOML file, HEADLAMP_* environment
// variables, and explicitly set command-line flags.
package config

import (
	"bytes"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/sweeney/headlamp/internal/gpio"
	"github.com/sweeney/headlamp/internal/logic"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "HEADLAMP_"

// Config is the full daemon configuration.
type Config struct {
	LogLevel  string   `toml:"log_level"`
	Poll      Duration `toml:"poll"`
	Heartbeat Duration `toml:"heartbeat"`
	Pins      Pins     `toml:"pins"`
	Timings   Timings  `toml:"timings"`
	MQTT      MQTT     `toml:"mqtt"`
	HTTP      HTTP     `toml:"http"`
}

// Pins selects the GPIO chip and line offsets.
type Pins struct {
	Chip   string `toml:"chip"`
	Button int    `toml:"button"`
	Power  int    `toml:"power"`
	Click  int    `toml:"click"`
}

// Timings are the state machine tunables, in milliseconds.
type Timings struct {
	AssertMs         uint32 `toml:"assert_ms"`
	CycleMs          uint32 `toml:"cycle_ms"`
	DebounceMs       uint32 `toml:"debounce_ms"`
	LongThresholdMs  uint32 `toml:"long_threshold_ms"`
	PowerSettleMs    uint32 `toml:"power_settle_ms"`
	BrightnessLevels int    `toml:"brightness_levels"`
}

// Logic converts to the state machine representation.
func (t Timings) Logic() logic.Timings {
	return logic.Timings{
		AssertMs:         logic.Millis(t.AssertMs),
		CycleMs:          logic.Millis(t.CycleMs),
		DebounceMs:       logic.Millis(t.DebounceMs),
		LongThresholdMs:  logic.Millis(t.LongThresholdMs),
		PowerSettleMs:    logic.Millis(t.PowerSettleMs),
		BrightnessLevels: t.BrightnessLevels,
	}
}

// MQTT configures the broker connection. An empty Broker disables MQTT.
type MQTT struct {
	Broker      string `toml:"broker"`
	ClientID    string `toml:"client_id"`
	TopicPrefix string `toml:"topic_prefix"`
	BufferSize  int    `toml:"buffer_size"`
}

// HTTP configures the status server. An empty Addr disables it.
type HTTP struct {
	Addr string `toml:"addr"`
}

// Default returns the stock configuration.
func Default() Config {
	t := logic.DefaultTimings()
	return Config{
		LogLevel:  "info",
		Poll:      Duration(5 * time.Millisecond),
		Heartbeat: Duration(15 * time.Minute),
		Pins: Pins{
			Chip:   gpio.DefaultChip,
			Button: gpio.DefaultPinButton,
			Power:  gpio.DefaultPinPower,
			Click:  gpio.DefaultPinClick,
		},
		Timings: Timings{
			AssertMs:         uint32(t.AssertMs),
			CycleMs:          uint32(t.CycleMs),
			DebounceMs:       uint32(t.DebounceMs),
			LongThresholdMs:  uint32(t.LongThresholdMs),
			PowerSettleMs:    uint32(t.PowerSettleMs),
			BrightnessLevels: t.BrightnessLevels,
		},
		MQTT: MQTT{
			Broker:      "tcp://192.168.1.200:1883",
			ClientID:    "headlamp",
			TopicPrefix: "home/headlamp",
			BufferSize:  100,
		},
		HTTP: HTTP{Addr: ":8080"},
	}
}

// LoadFile decodes a TOML file over cfg. Keys absent from the file keep their
// current value; unknown keys are an error.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return errors.Errorf("unknown keys in config file %s:\n%s", path, strict.String())
		}
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return nil
}

var envSetters = map[string]func(c *Config, v string) error{
	"LOG_LEVEL":  func(c *Config, v string) error { c.LogLevel = v; return nil },
	"POLL":       func(c *Config, v string) error { return c.Poll.Set(v) },
	"HEARTBEAT":  func(c *Config, v string) error { return c.Heartbeat.Set(v) },
	"BROKER":     func(c *Config, v string) error { c.MQTT.Broker = v; return nil },
	"HTTP":       func(c *Config, v string) error { c.HTTP.Addr = v; return nil },
	"CHIP":       func(c *Config, v string) error { c.Pins.Chip = v; return nil },
	"PIN_BUTTON": func(c *Config, v string) error { return setInt(&c.Pins.Button, v) },
	"PIN_POWER":  func(c *Config, v string) error { return setInt(&c.Pins.Power, v) },
	"PIN_CLICK":  func(c *Config, v string) error { return setInt(&c.Pins.Click, v) },
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

// ApplyEnv overrides cfg from HEADLAMP_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for name, set := range envSetters {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			continue
		}
		if err := set(cfg, v); err != nil {
			return errors.Wrapf(err, "invalid %s%s", EnvPrefix, name)
		}
	}
	return nil
}

// flagFields copies the field behind each flag from src to dst.
var flagFields = map[string]func(dst, src *Config){
	"log-level":   func(d, s *Config) { d.LogLevel = s.LogLevel },
	"poll":        func(d, s *Config) { d.Poll = s.Poll },
	"heartbeat":   func(d, s *Config) { d.Heartbeat = s.Heartbeat },
	"broker":      func(d, s *Config) { d.MQTT.Broker = s.MQTT.Broker },
	"client-id":   func(d, s *Config) { d.MQTT.ClientID = s.MQTT.ClientID },
	"http":        func(d, s *Config) { d.HTTP.Addr = s.HTTP.Addr },
	"chip":        func(d, s *Config) { d.Pins.Chip = s.Pins.Chip },
	"pin-button":  func(d, s *Config) { d.Pins.Button = s.Pins.Button },
	"pin-power":   func(d, s *Config) { d.Pins.Power = s.Pins.Power },
	"pin-click":   func(d, s *Config) { d.Pins.Click = s.Pins.Click },
	"assert-ms":   func(d, s *Config) { d.Timings.AssertMs = s.Timings.AssertMs },
	"cycle-ms":    func(d, s *Config) { d.Timings.CycleMs = s.Timings.CycleMs },
	"debounce-ms": func(d, s *Config) { d.Timings.DebounceMs = s.Timings.DebounceMs },
	"long-ms":     func(d, s *Config) { d.Timings.LongThresholdMs = s.Timings.LongThresholdMs },
	"settle-ms":   func(d, s *Config) { d.Timings.PowerSettleMs = s.Timings.PowerSettleMs },
	"levels":      func(d, s *Config) { d.Timings.BrightnessLevels = s.Timings.BrightnessLevels },
}

// BindFlags registers every configurable flag on fs, storing parsed values in
// c. The current contents of c become the flag defaults.
func BindFlags(fs *pflag.FlagSet, c *Config) {
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (trace, debug, info, warn, error)")
	fs.Var(&c.Poll, "poll", "GPIO polling interval")
	fs.Var(&c.Heartbeat, "heartbeat", "heartbeat interval (0 to disable)")
	fs.StringVar(&c.MQTT.Broker, "broker", c.MQTT.Broker, "MQTT broker address (empty to disable)")
	fs.StringVar(&c.MQTT.ClientID, "client-id", c.MQTT.ClientID, "MQTT client ID")
	fs.StringVar(&c.HTTP.Addr, "http", c.HTTP.Addr, "HTTP status address (empty to disable)")
	fs.StringVar(&c.Pins.Chip, "chip", c.Pins.Chip, "GPIO chip name")
	fs.IntVar(&c.Pins.Button, "pin-button", c.Pins.Button, "button input line offset")
	fs.IntVar(&c.Pins.Power, "pin-power", c.Pins.Power, "lamp power output line offset")
	fs.IntVar(&c.Pins.Click, "pin-click", c.Pins.Click, "brightness click output line offset")
	fs.Uint32Var(&c.Timings.AssertMs, "assert-ms", c.Timings.AssertMs, "click pulse HIGH duration in ms")
	fs.Uint32Var(&c.Timings.CycleMs, "cycle-ms", c.Timings.CycleMs, "click pulse period in ms")
	fs.Uint32Var(&c.Timings.DebounceMs, "debounce-ms", c.Timings.DebounceMs, "presses shorter than this are ignored")
	fs.Uint32Var(&c.Timings.LongThresholdMs, "long-ms", c.Timings.LongThresholdMs, "presses at least this long toggle power")
	fs.Uint32Var(&c.Timings.PowerSettleMs, "settle-ms", c.Timings.PowerSettleMs, "wait after power on before replaying brightness")
	fs.IntVar(&c.Timings.BrightnessLevels, "levels", c.Timings.BrightnessLevels, "number of brightness levels")
}

// ApplyFlags copies into dst every flag explicitly set on fs, reading values
// from src (the Config passed to BindFlags).
func ApplyFlags(dst *Config, src *Config, fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		if copyField, ok := flagFields[f.Name]; ok {
			copyField(dst, src)
		}
	})
}

// Resolve builds the effective configuration: defaults, then the file at path
// (if non-empty), then environment, then flags explicitly set on fs.
func Resolve(path string, flagged *Config, fs *pflag.FlagSet, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if fs != nil {
		ApplyFlags(&cfg, flagged, fs)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the state machines cannot run with.
func (c Config) Validate() error {
	if c.Poll <= 0 {
		return errors.Errorf("poll interval must be positive, got %v", c.Poll)
	}
	if c.Heartbeat < 0 {
		return errors.Errorf("heartbeat interval must not be negative, got %v", c.Heartbeat)
	}
	t := c.Timings
	if t.AssertMs == 0 {
		return errors.New("assert_ms must be positive")
	}
	if t.CycleMs <= t.AssertMs {
		return errors.Errorf("cycle_ms (%d) must exceed assert_ms (%d)", t.CycleMs, t.AssertMs)
	}
	if t.LongThresholdMs < t.DebounceMs {
		return errors.Errorf("long_threshold_ms (%d) must not be below debounce_ms (%d)", t.LongThresholdMs, t.DebounceMs)
	}
	if t.BrightnessLevels < 1 {
		return errors.Errorf("brightness_levels must be at least 1, got %d", t.BrightnessLevels)
	}
	p := c.Pins
	if p.Button < 0 || p.Power < 0 || p.Click < 0 {
		return errors.New("pin offsets must not be negative")
	}
	if p.Button == p.Power || p.Button == p.Click || p.Power == p.Click {
		return errors.Errorf("pins must be distinct: button=%d power=%d click=%d", p.Button, p.Power, p.Click)
	}
	if c.MQTT.Broker != "" && c.MQTT.BufferSize < 1 {
		return errors.Errorf("mqtt buffer_size must be at least 1, got %d", c.MQTT.BufferSize)
	}
	return nil
}
