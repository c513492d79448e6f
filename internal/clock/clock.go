// Package clock adapts a wall clock into the monotonic millisecond counter
// and blocking delay used by the control loop.
package clock

import (
	"time"

	kclock "k8s.io/utils/clock"

	"github.com/sweeney/headlamp/internal/logic"
)

// Monotonic reports milliseconds elapsed since it was created.
// The counter is 32 bits wide and wraps after about 49.7 days.
type Monotonic struct {
	c     kclock.Clock
	start time.Time
}

// NewMonotonic creates a counter starting at zero now.
func NewMonotonic(c kclock.Clock) *Monotonic {
	return &Monotonic{c: c, start: c.Now()}
}

// NowMs returns the current counter value.
func (m *Monotonic) NowMs() logic.Millis {
	return logic.Millis(uint32(m.c.Since(m.start).Milliseconds()))
}

// Now returns the wall-clock time.
func (m *Monotonic) Now() time.Time {
	return m.c.Now()
}

// Start returns the wall-clock time the counter was zero.
func (m *Monotonic) Start() time.Time {
	return m.start
}

// Sleep blocks for d. It is the settle delay used when powering the lamp on.
func (m *Monotonic) Sleep(d time.Duration) {
	m.c.Sleep(d)
}
