// Package logic contains the pure control logic for the headlamp.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injected: Millis for state machine timing, time.Time for
// wall-clock stamps. The single blocking wait goes through Sleeper.
package logic

import "time"

// Millis is a monotonic millisecond timestamp since an arbitrary epoch.
// It wraps at 2^32; elapsed time is always computed as now-start.
type Millis uint32

// Since returns the milliseconds elapsed from start to m.
// Correct across a single wraparound of the counter.
func (m Millis) Since(start Millis) Millis {
	return m - start
}

// Level is a digital pin level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "HIGH"
	}
	return "LOW"
}

// Output drives a single digital output pin.
// Implementations are assumed immediate and non-blocking.
type Output interface {
	SetLevel(Level)
}

// Sleeper blocks for the given duration.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Clock reads the monotonic millisecond counter.
type Clock interface {
	NowMs() Millis
}

// Phase is the position of the pulser within one pulse's timing cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAsserting
	PhaseSettling
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseAsserting:
		return "ASSERTING"
	case PhaseSettling:
		return "SETTLING"
	}
	return "UNKNOWN"
}

// Click is the classification of one completed press/release cycle.
type Click int

const (
	ClickNone Click = iota
	// ClickBounce is a release shorter than the debounce window. It triggers
	// no action.
	ClickBounce
	ClickShort
	ClickLong
)

func (c Click) String() string {
	switch c {
	case ClickNone:
		return "NONE"
	case ClickBounce:
		return "BOUNCE"
	case ClickShort:
		return "SHORT"
	case ClickLong:
		return "LONG"
	}
	return "UNKNOWN"
}

// Timings holds every tunable of the state machines.
// AssertMs and LongThresholdMs share a default but are unrelated.
type Timings struct {
	AssertMs         Millis // pulse HIGH duration
	CycleMs          Millis // total pulse period, measured from pulse start
	DebounceMs       Millis // releases shorter than this are bounce
	LongThresholdMs  Millis // releases at or beyond this are long clicks
	PowerSettleMs    Millis // blocking wait after driving power HIGH
	BrightnessLevels int
}

// DefaultTimings returns the stock headlamp timings.
func DefaultTimings() Timings {
	return Timings{
		AssertMs:         250,
		CycleMs:          1000,
		DebounceMs:       50,
		LongThresholdMs:  250,
		PowerSettleMs:    50,
		BrightnessLevels: 5,
	}
}

// EventType is a lamp state change to be published.
type EventType string

const (
	EventPowerOn    EventType = "POWER_ON"
	EventPowerOff   EventType = "POWER_OFF"
	EventBrightness EventType = "BRIGHTNESS"
)

// Source identifies what produced a click.
type Source string

const (
	SourceButton Source = "button"
	SourceRemote Source = "remote"
)

// Event is a lamp state change.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	Source     Source
	On         bool
	Brightness int
}

// Input is a single poll of the button.
type Input struct {
	Button Level     // raw pin level; HIGH = released (pull-up)
	Now    Millis    // monotonic timestamp of the button sample
	Time   time.Time // wall-clock stamp copied into events
}

// LampState is a point-in-time view of the lamp and its pulser.
type LampState struct {
	On            bool
	Brightness    int
	Phase         Phase
	Pending       int
	ButtonPressed bool
}

// EventCounts tracks activity since startup.
type EventCounts struct {
	ShortClicks     int
	LongClicks      int
	Bounces         int
	RemoteCommands  int
	PowerOn         int
	PowerOff        int
	BrightnessSteps int
	Pulses          int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	State     LampState
	Counts    EventCounts
}
