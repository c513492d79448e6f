package logic

import "time"

// Lamp owns the power output and the brightness pulser of a two-stage lamp.
// The external brightness stage is a stepped counter advanced by one pulse per
// step; the lamp tracks the level it believes that counter is at.
type Lamp struct {
	power   Output
	pulser  *ClickPulser
	sleeper Sleeper

	settle time.Duration
	levels int

	on         bool
	brightness int
}

// NewLamp creates a lamp that is off at brightness 0 and drives both outputs
// LOW.
func NewLamp(power, click Output, sleeper Sleeper, t Timings) *Lamp {
	l := &Lamp{
		power:   power,
		pulser:  NewClickPulser(click, t.AssertMs, t.CycleMs),
		sleeper: sleeper,
		settle:  time.Duration(t.PowerSettleMs) * time.Millisecond,
		levels:  t.BrightnessLevels,
	}
	click.SetLevel(Low)
	power.SetLevel(Low)
	return l
}

// PowerToggle switches the lamp off or on.
//
// Switching on blocks for the power settle delay so the output stage is
// powered before the stored brightness is replayed as pulses.
func (l *Lamp) PowerToggle() {
	if l.on {
		l.pulser.Cancel()
		l.power.SetLevel(Low)
		l.on = false
		return
	}
	l.power.SetLevel(High)
	l.sleeper.Sleep(l.settle)
	l.pulser.Enqueue(l.brightness)
	l.on = true
}

// BrightnessStep enqueues one pulse and advances the brightness level,
// wrapping to 0. It reports false and does nothing while the lamp is off.
func (l *Lamp) BrightnessStep() bool {
	if !l.on {
		return false
	}
	l.pulser.Enqueue(1)
	l.brightness = (l.brightness + 1) % l.levels
	return true
}

// Poll advances the pulser.
func (l *Lamp) Poll(now Millis) {
	l.pulser.Advance(now)
}

// ForceOff aborts any pulse sequence and drives power LOW without touching
// the stored brightness. Used on shutdown.
func (l *Lamp) ForceOff() {
	l.pulser.Cancel()
	l.power.SetLevel(Low)
	l.on = false
}

func (l *Lamp) IsOn() bool      { return l.on }
func (l *Lamp) Brightness() int { return l.brightness }

// Pulser returns the lamp's pulser for inspection.
func (l *Lamp) Pulser() *ClickPulser { return l.pulser }
