package logic

import "time"

// Controller routes button classifications to lamp actions.
// Short clicks step brightness, long clicks toggle power, bounces do nothing.
type Controller struct {
	button *ButtonReader
	lamp   *Lamp
	clock  Clock

	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewController creates a controller over the given button and lamp.
// The clock must be the one the lamp's sleeper advances.
// The startTime is used for calculating uptime in heartbeat events.
func NewController(button *ButtonReader, lamp *Lamp, clock Clock, startTime time.Time) *Controller {
	return &Controller{
		button:        button,
		lamp:          lamp,
		clock:         clock,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process samples the button, dispatches any completed click, then advances
// the lamp's pulser. It returns the lamp events produced by this poll.
//
// The pulser is advanced at a fresh clock reading: a power-on dispatch blocks
// for the settle delay, and input.Now predates it.
func (c *Controller) Process(input Input) []Event {
	click := c.button.Advance(input.Now, input.Button)
	events := c.dispatch(click, SourceButton, input.Time)
	c.lamp.Poll(c.clock.NowMs())
	return events
}

// Apply dispatches a click that did not come from the button.
// The pulser is advanced on the next Process call.
func (c *Controller) Apply(click Click, src Source, ts time.Time) []Event {
	if src != SourceButton && click != ClickNone {
		c.eventCounts.RemoteCommands++
	}
	return c.dispatch(click, src, ts)
}

func (c *Controller) dispatch(click Click, src Source, ts time.Time) []Event {
	var ev Event

	switch click {
	case ClickBounce:
		c.eventCounts.Bounces++
		return nil
	case ClickShort:
		c.eventCounts.ShortClicks++
		if !c.lamp.BrightnessStep() {
			return nil
		}
		c.eventCounts.BrightnessSteps++
		ev.Type = EventBrightness
	case ClickLong:
		c.eventCounts.LongClicks++
		c.lamp.PowerToggle()
		if c.lamp.IsOn() {
			c.eventCounts.PowerOn++
			ev.Type = EventPowerOn
		} else {
			c.eventCounts.PowerOff++
			ev.Type = EventPowerOff
		}
	default:
		return nil
	}

	ev.Timestamp = ts
	ev.Source = src
	ev.On = c.lamp.IsOn()
	ev.Brightness = c.lamp.Brightness()
	return []Event{ev}
}

// Shutdown forces the lamp outputs LOW.
func (c *Controller) Shutdown() {
	c.lamp.ForceOff()
}

// State returns the current lamp state.
func (c *Controller) State() LampState {
	p := c.lamp.Pulser()
	return LampState{
		On:            c.lamp.IsOn(),
		Brightness:    c.lamp.Brightness(),
		Phase:         p.Phase(),
		Pending:       p.Pending(),
		ButtonPressed: c.button.Pressed(),
	}
}

// EventCountsSnapshot returns a copy of the activity counters.
func (c *Controller) EventCountsSnapshot() EventCounts {
	counts := c.eventCounts
	counts.Pulses = c.lamp.Pulser().Completed()
	return counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		State:     c.State(),
		Counts:    c.EventCountsSnapshot(),
	}
}
