package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"

	"github.com/sweeney/headlamp/internal/logic"
)

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		PollMs:      5,
		HeartbeatMs: 900000,
		Broker:      "tcp://broker:1883",
		HTTPAddr:    ":8080",
		Timings:     logic.DefaultTimings(),
		PinButton:   7,
		PinPower:    10,
		PinClick:    11,
	}
}

func TestTrackerSnapshot(t *testing.T) {
	fc := testclock.NewFakeClock(start)
	tr := NewTracker(fc, testConfig())

	tr.Update(logic.LampState{On: true, Brightness: 2, Phase: logic.PhaseAsserting, Pending: 1},
		logic.EventCounts{LongClicks: 1, PowerOn: 1})
	tr.SetMQTTConnected(true)
	fc.Step(90 * time.Second)

	snap := tr.Snapshot()
	assert.True(t, snap.Lamp.On)
	assert.Equal(t, 2, snap.Lamp.Brightness)
	assert.Equal(t, 1, snap.Counts.PowerOn)
	assert.True(t, snap.MQTTConnected)
	assert.Equal(t, 90*time.Second, snap.Uptime())
	assert.Nil(t, snap.LastEvent)
}

func TestTrackerLastEventIsCopied(t *testing.T) {
	tr := NewTracker(testclock.NewFakeClock(start), testConfig())
	tr.RecordEvent(logic.Event{Type: logic.EventPowerOn, Timestamp: start})

	snap := tr.Snapshot()
	require.NotNil(t, snap.LastEvent)
	snap.LastEvent.Type = logic.EventPowerOff

	assert.Equal(t, logic.EventPowerOn, tr.Snapshot().LastEvent.Type)
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker(testclock.NewFakeClock(start), testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Update(logic.LampState{Brightness: j % 5}, logic.EventCounts{Pulses: n + j})
				tr.RecordEvent(logic.Event{Type: logic.EventBrightness})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = FormatJSON(tr.Snapshot())
			}
		}()
	}
	wg.Wait()
}

func TestFormatJSON(t *testing.T) {
	snap := Snapshot{
		Lamp:          logic.LampState{On: true, Brightness: 3, Phase: logic.PhaseSettling, Pending: 2},
		Counts:        logic.EventCounts{ShortClicks: 4, Pulses: 3},
		StartTime:     start,
		Now:           start.Add(61500 * time.Millisecond),
		MQTTConnected: true,
		Config:        testConfig(),
		LastEvent:     &logic.Event{Timestamp: start.Add(time.Minute), Type: logic.EventBrightness, Source: logic.SourceRemote},
	}

	var parsed StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(snap), &parsed))

	s := parsed.Status
	assert.Empty(t, s.Event)
	assert.Equal(t, LampJSON{On: true, Brightness: 3, Levels: 5, Phase: "SETTLING", Pending: 2}, s.Lamp)
	assert.Equal(t, int64(61), s.UptimeSeconds)
	assert.Equal(t, "2026-01-01T12:00:00Z", s.StartTime)
	assert.Equal(t, 4, s.Counts.ShortClicks)
	assert.Equal(t, 3, s.Counts.Pulses)
	require.NotNil(t, s.LastEvent)
	assert.Equal(t, "BRIGHTNESS", s.LastEvent.Event)
	assert.Equal(t, "remote", s.LastEvent.Source)
	require.NotNil(t, s.Config)
	assert.Equal(t, uint32(250), s.Config.AssertMs)
	assert.Equal(t, 11, s.Config.PinClick)
	assert.True(t, s.MQTT.Connected)
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start, Config: testConfig()}

	var startup StatusJSON
	require.NoError(t, json.Unmarshal(FormatStatusEvent(snap, "STARTUP", ""), &startup))
	assert.Equal(t, "STARTUP", startup.Status.Event)
	assert.NotNil(t, startup.Status.Config)

	raw := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")
	var shutdown StatusJSON
	require.NoError(t, json.Unmarshal(raw, &shutdown))
	assert.Equal(t, "SIGTERM", shutdown.Status.Reason)
	assert.Nil(t, shutdown.Status.Config)
	assert.NotContains(t, string(raw), "last_event")
}
