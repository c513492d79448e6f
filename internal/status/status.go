// Package status provides a thread-safe status tracker for the headlamp daemon.
// The run loop writes it; HTTP handlers and the metrics collector read it.
package status

import (
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/sweeney/headlamp/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Timings     logic.Timings
	PinButton   int
	PinPower    int
	PinClick    int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Lamp          logic.LampState
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	LastEvent     *logic.Event
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	clock clock.PassiveClock

	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker whose uptime counts from clk's current time.
func NewTracker(clk clock.PassiveClock, cfg Config) *Tracker {
	return &Tracker{
		clock: clk,
		snap: Snapshot{
			StartTime: clk.Now(),
			Config:    cfg,
		},
	}
}

// Update sets the lamp state and counters. Called from the run loop on every
// poll.
func (t *Tracker) Update(lamp logic.LampState, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Lamp = lamp
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordEvent remembers the most recent lamp event.
func (t *Tracker) RecordEvent(ev logic.Event) {
	t.mu.Lock()
	t.snap.LastEvent = &ev
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set from the tracker's clock at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.LastEvent != nil {
		ev := *s.LastEvent
		s.LastEvent = &ev
	}
	s.Now = t.clock.Now()
	return s
}
