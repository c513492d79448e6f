package logic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type controllerRig struct {
	*lampRig
	ctrl *Controller
}

func newControllerRig(t *testing.T) *controllerRig {
	t.Helper()
	r := &controllerRig{lampRig: newLampRig(t)}
	r.ctrl = NewController(NewButtonReader(50, 250), r.lamp, r.lampRig, epoch)
	return r
}

func (r *controllerRig) sample(level Level) []Event {
	return r.ctrl.Process(Input{
		Button: level,
		Now:    r.now,
		Time:   epoch.Add(time.Duration(r.now) * time.Millisecond),
	})
}

// press holds the button for held ms, sampling every 10ms, and returns the
// events from every poll.
func (r *controllerRig) press(held Millis) []Event {
	var events []Event
	end := r.now + held
	events = append(events, r.sample(Low)...)
	for r.now+10 < end {
		r.now += 10
		events = append(events, r.sample(Low)...)
	}
	r.now = end
	events = append(events, r.sample(High)...)
	r.now += 10
	events = append(events, r.sample(High)...)
	return events
}

func TestShortClickWhileOffDoesNothing(t *testing.T) {
	r := newControllerRig(t)

	events := r.press(100)

	assert.Empty(t, events)
	assert.False(t, r.lamp.IsOn())
	counts := r.ctrl.EventCountsSnapshot()
	assert.Equal(t, 1, counts.ShortClicks)
	assert.Equal(t, 0, counts.BrightnessSteps)
}

func TestLongClickTogglesPower(t *testing.T) {
	r := newControllerRig(t)

	events := r.press(400)
	require.Len(t, events, 1)
	assert.Equal(t, EventPowerOn, events[0].Type)
	assert.Equal(t, SourceButton, events[0].Source)
	assert.True(t, events[0].On)
	assert.Equal(t, High, r.power.level)
	assert.Equal(t, epoch.Add(400*time.Millisecond), events[0].Timestamp)

	r.now += 500
	events = r.press(300)
	require.Len(t, events, 1)
	assert.Equal(t, EventPowerOff, events[0].Type)
	assert.False(t, events[0].On)
	assert.Equal(t, Low, r.power.level)

	counts := r.ctrl.EventCountsSnapshot()
	assert.Equal(t, 2, counts.LongClicks)
	assert.Equal(t, 1, counts.PowerOn)
	assert.Equal(t, 1, counts.PowerOff)
}

func TestShortClickStepsBrightness(t *testing.T) {
	r := newControllerRig(t)
	r.press(400)

	for want := 1; want <= 5; want++ {
		r.now += 100
		events := r.press(120)
		require.Len(t, events, 1)
		assert.Equal(t, EventBrightness, events[0].Type)
		assert.Equal(t, want%5, events[0].Brightness)
	}

	assert.Equal(t, 5, r.ctrl.EventCountsSnapshot().BrightnessSteps)
}

func TestBounceProducesNoAction(t *testing.T) {
	r := newControllerRig(t)
	r.press(400)

	events := r.press(20)

	assert.Empty(t, events)
	assert.Equal(t, 0, r.lamp.Brightness())
	assert.Equal(t, 1, r.ctrl.EventCountsSnapshot().Bounces)
}

func TestProcessAdvancesPulserOnSamePoll(t *testing.T) {
	r := newControllerRig(t)
	r.lamp.brightness = 2

	r.press(300)

	st := r.ctrl.State()
	assert.True(t, st.On)
	assert.Equal(t, PhaseAsserting, st.Phase)
	assert.Equal(t, 1, st.Pending)
	assert.False(t, st.ButtonPressed)
}

func TestEndToEndReplayAfterPowerOn(t *testing.T) {
	r := newControllerRig(t)
	r.lamp.brightness = 2

	events := r.press(300)
	require.Len(t, events, 1)
	require.Equal(t, EventPowerOn, events[0].Type)
	assert.Equal(t, High, r.power.level)

	for i := 0; i < 500; i++ {
		r.now += 10
		r.sample(High)
	}

	st := r.ctrl.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, 0, st.Pending)
	spans := r.click.highSpans()
	assert.Len(t, spans, 2)
	assertFullAssert(t, spans, DefaultTimings().AssertMs)
	assert.Equal(t, 2, r.ctrl.EventCountsSnapshot().Pulses)
}

// assertFullAssert checks that every HIGH span outlasts the assert duration.
func assertFullAssert(t *testing.T, spans []span, assertMs Millis) {
	t.Helper()
	for i, s := range spans {
		assert.Greater(t, int(s.End-s.Start), int(assertMs), "pulse %d held HIGH %d..%d", i, s.Start, s.End)
	}
}

func TestReplayedPulseStartsAfterSettle(t *testing.T) {
	r := newControllerRig(t)
	r.lamp.brightness = 3

	r.press(300)
	powerOn := r.power.changes[len(r.power.changes)-1]
	require.Equal(t, High, powerOn.Level)

	for i := 0; i < 400; i++ {
		r.now += 10
		r.sample(High)
	}

	spans := r.click.highSpans()
	require.Len(t, spans, 3)
	settle := DefaultTimings().PowerSettleMs
	assert.GreaterOrEqual(t, int(spans[0].Start), int(powerOn.At+settle),
		"first pulse must start after the settle delay")
	assertFullAssert(t, spans, DefaultTimings().AssertMs)
}

func TestApplyRemoteClick(t *testing.T) {
	r := newControllerRig(t)
	ts := epoch.Add(time.Minute)

	events := r.ctrl.Apply(ClickLong, SourceRemote, ts)
	require.Len(t, events, 1)
	assert.Equal(t, EventPowerOn, events[0].Type)
	assert.Equal(t, SourceRemote, events[0].Source)
	assert.Equal(t, ts, events[0].Timestamp)

	events = r.ctrl.Apply(ClickShort, SourceRemote, ts)
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Brightness)

	assert.Empty(t, r.ctrl.Apply(ClickNone, SourceRemote, ts))

	counts := r.ctrl.EventCountsSnapshot()
	assert.Equal(t, 2, counts.RemoteCommands)
	assert.Equal(t, 1, counts.PowerOn)
	assert.Equal(t, 1, counts.BrightnessSteps)
}

func TestShutdownForcesOutputsLow(t *testing.T) {
	r := newControllerRig(t)
	r.lamp.brightness = 3
	r.press(300)
	require.Equal(t, High, r.click.level)

	r.ctrl.Shutdown()

	assert.Equal(t, Low, r.power.level)
	assert.Equal(t, Low, r.click.level)
	assert.False(t, r.ctrl.State().On)
}

func TestCheckHeartbeat(t *testing.T) {
	r := newControllerRig(t)
	interval := 15 * time.Minute

	assert.Nil(t, r.ctrl.CheckHeartbeat(epoch.Add(time.Minute), interval))
	assert.Nil(t, r.ctrl.CheckHeartbeat(epoch.Add(time.Hour), 0), "zero interval disables")

	hb := r.ctrl.CheckHeartbeat(epoch.Add(interval), interval)
	require.NotNil(t, hb)
	assert.Equal(t, interval, hb.Uptime)
	assert.Equal(t, epoch.Add(interval), hb.Timestamp)

	// Next heartbeat counts from the last one.
	assert.Nil(t, r.ctrl.CheckHeartbeat(epoch.Add(interval+time.Minute), interval))
	hb = r.ctrl.CheckHeartbeat(epoch.Add(2*interval), interval)
	require.NotNil(t, hb)
	assert.Equal(t, 2*interval, hb.Uptime)
}
