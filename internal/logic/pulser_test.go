package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type levelChange struct {
	At    Millis
	Level Level
}

// pinRecorder is an Output that stamps every write with the test's clock.
type pinRecorder struct {
	now     *Millis
	level   Level
	changes []levelChange
}

func newPinRecorder(now *Millis) *pinRecorder {
	return &pinRecorder{now: now}
}

func (r *pinRecorder) SetLevel(l Level) {
	r.level = l
	r.changes = append(r.changes, levelChange{At: *r.now, Level: l})
}

type span struct {
	Start, End Millis
}

// highSpans collapses the recorded writes into HIGH periods.
func (r *pinRecorder) highSpans() []span {
	var spans []span
	high := false
	var start Millis
	for _, c := range r.changes {
		switch {
		case c.Level == High && !high:
			high = true
			start = c.At
		case c.Level == Low && high:
			high = false
			spans = append(spans, span{Start: start, End: c.At})
		}
	}
	return spans
}

func TestNewClickPulserIdle(t *testing.T) {
	var now Millis
	p := NewClickPulser(newPinRecorder(&now), 250, 1000)

	assert.Equal(t, PhaseIdle, p.Phase())
	assert.Equal(t, 0, p.Pending())
	assert.Equal(t, 0, p.Completed())
}

func TestPulserSinglePulseTiming(t *testing.T) {
	var now Millis
	out := newPinRecorder(&now)
	p := NewClickPulser(out, 250, 1000)

	p.Enqueue(1)
	assert.Equal(t, 1, p.Pending())
	assert.Empty(t, out.changes, "enqueue must not touch the output")

	p.Advance(now)
	require.Equal(t, PhaseAsserting, p.Phase())
	assert.Equal(t, 0, p.Pending())
	assert.Equal(t, High, out.level)

	// Strict comparison: exactly AssertMs elapsed is not enough.
	now = 250
	p.Advance(now)
	assert.Equal(t, PhaseAsserting, p.Phase())
	assert.Equal(t, High, out.level)

	now = 251
	p.Advance(now)
	assert.Equal(t, PhaseSettling, p.Phase())
	assert.Equal(t, Low, out.level)

	now = 1000
	p.Advance(now)
	assert.Equal(t, PhaseSettling, p.Phase())

	now = 1001
	p.Advance(now)
	assert.Equal(t, PhaseIdle, p.Phase())
	assert.Equal(t, 1, p.Completed())
	assert.Equal(t, []span{{Start: 0, End: 251}}, out.highSpans())
}

func TestPulserEnqueueZeroIsNoop(t *testing.T) {
	var now Millis
	out := newPinRecorder(&now)
	p := NewClickPulser(out, 250, 1000)

	p.Enqueue(0)
	for now = 0; now < 3000; now += 10 {
		p.Advance(now)
	}

	assert.Equal(t, PhaseIdle, p.Phase())
	assert.Empty(t, out.changes)
}

func TestPulserEmitsExactlyQueuedPulses(t *testing.T) {
	const assertMs, cycleMs = 250, 1000

	for _, n := range []int{0, 1, 2, 3, 5, 13} {
		var now Millis = 10
		out := newPinRecorder(&now)
		p := NewClickPulser(out, assertMs, cycleMs)
		p.Enqueue(n)

		// Uneven but strictly increasing poll times.
		steps := []Millis{1, 7, 3, 11, 2}
		for i := 0; i < 100000; i++ {
			p.Advance(now)
			if p.Phase() == PhaseIdle && p.Pending() == 0 {
				break
			}
			now += steps[i%len(steps)]
		}

		spans := out.highSpans()
		require.Len(t, spans, n, "n=%d", n)
		assert.Equal(t, n, p.Completed(), "n=%d", n)
		assert.Equal(t, Low, out.level, "n=%d", n)

		for i, s := range spans {
			assert.Greater(t, int(s.End-s.Start), assertMs, "n=%d pulse %d high too short", n, i)
			if i > 0 {
				prev := spans[i-1]
				assert.Greater(t, int(s.Start-prev.Start), cycleMs, "n=%d pulse %d starts inside previous cycle", n, i)
				assert.GreaterOrEqual(t, int(s.Start), int(prev.End), "n=%d pulses overlap", n)
			}
		}
	}
}

func TestPulserNextPulseStartsRightAfterSettle(t *testing.T) {
	var now Millis
	out := newPinRecorder(&now)
	p := NewClickPulser(out, 250, 1000)
	p.Enqueue(2)

	p.Advance(0)
	p.Advance(251)
	p.Advance(1001)
	require.Equal(t, PhaseIdle, p.Phase())
	assert.Equal(t, 1, p.Pending())

	now = 1002
	p.Advance(now)
	assert.Equal(t, PhaseAsserting, p.Phase())
	assert.Equal(t, 0, p.Pending())
	assert.Equal(t, High, out.level)
}

func TestPulserAdvanceWithoutProgressIsNoop(t *testing.T) {
	var now Millis = 500
	out := newPinRecorder(&now)
	p := NewClickPulser(out, 250, 1000)
	p.Enqueue(3)
	p.Advance(now)

	writes := len(out.changes)
	for i := 0; i < 10; i++ {
		p.Advance(now)
		p.Advance(now + 250)
	}

	assert.Equal(t, PhaseAsserting, p.Phase())
	assert.Equal(t, 2, p.Pending())
	assert.Len(t, out.changes, writes)
}

func TestPulserCancel(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *ClickPulser)
	}{
		{"idle with pending", func(p *ClickPulser) {
			p.Enqueue(4)
		}},
		{"asserting", func(p *ClickPulser) {
			p.Enqueue(4)
			p.Advance(0)
		}},
		{"settling", func(p *ClickPulser) {
			p.Enqueue(4)
			p.Advance(0)
			p.Advance(300)
		}},
		{"idle empty", func(p *ClickPulser) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var now Millis
			out := newPinRecorder(&now)
			p := NewClickPulser(out, 250, 1000)
			tt.setup(p)

			p.Cancel()
			assert.Equal(t, Low, out.level)
			assert.Equal(t, 0, p.Pending())
			assert.Equal(t, PhaseIdle, p.Phase())

			// A fresh pulse times from its own start, not the cancelled one.
			now = 400
			p.Enqueue(1)
			p.Advance(now)
			require.Equal(t, PhaseAsserting, p.Phase())
			assert.Equal(t, High, out.level)

			p.Advance(650)
			assert.Equal(t, PhaseAsserting, p.Phase())
			p.Advance(651)
			assert.Equal(t, PhaseSettling, p.Phase())
			p.Advance(1401)
			assert.Equal(t, PhaseIdle, p.Phase())
			assert.Equal(t, 0, p.Pending())
		})
	}
}

func TestPulserWraparound(t *testing.T) {
	start := Millis(1<<32 - 100)
	now := start
	out := newPinRecorder(&now)
	p := NewClickPulser(out, 250, 1000)
	p.Enqueue(1)

	p.Advance(now)
	require.Equal(t, PhaseAsserting, p.Phase())

	now = 150 // 250ms after start, across the wrap
	p.Advance(now)
	assert.Equal(t, PhaseAsserting, p.Phase())

	now = 151
	p.Advance(now)
	assert.Equal(t, PhaseSettling, p.Phase())

	now = 901
	p.Advance(now)
	assert.Equal(t, PhaseIdle, p.Phase())
	assert.Equal(t, 1, p.Completed())
}

func TestMillisSince(t *testing.T) {
	assert.Equal(t, Millis(10), Millis(20).Since(10))
	assert.Equal(t, Millis(20), Millis(10).Since(1<<32-10))
	assert.Equal(t, Millis(0), Millis(7).Since(7))
}
