package logic

// ClickPulser turns a queued pulse count into timed output transitions.
// Each pulse holds the output HIGH for the assert window, then LOW until the
// cycle window (measured from pulse start) has elapsed. It never blocks;
// Advance must be called on every poll.
type ClickPulser struct {
	out      Output
	assertMs Millis
	cycleMs  Millis

	phase      Phase
	pulseStart Millis
	pending    int
	completed  int
}

// NewClickPulser creates an idle pulser driving out.
func NewClickPulser(out Output, assertMs, cycleMs Millis) *ClickPulser {
	return &ClickPulser{
		out:      out,
		assertMs: assertMs,
		cycleMs:  cycleMs,
	}
}

// Enqueue adds n pulses to the queue. n must be non-negative.
func (p *ClickPulser) Enqueue(n int) {
	p.pending += n
}

// Advance performs at most one phase transition based on the time elapsed
// since the current pulse started.
func (p *ClickPulser) Advance(now Millis) {
	switch p.phase {
	case PhaseIdle:
		if p.pending > 0 {
			p.pending--
			p.out.SetLevel(High)
			p.pulseStart = now
			p.phase = PhaseAsserting
		}
	case PhaseAsserting:
		if now.Since(p.pulseStart) > p.assertMs {
			p.out.SetLevel(Low)
			p.phase = PhaseSettling
		}
	case PhaseSettling:
		if now.Since(p.pulseStart) > p.cycleMs {
			p.phase = PhaseIdle
			p.completed++
		}
	}
}

// Cancel drops every queued pulse and forces the output LOW, whatever the
// current phase.
func (p *ClickPulser) Cancel() {
	p.out.SetLevel(Low)
	p.pending = 0
	p.phase = PhaseIdle
}

// Phase returns the current phase.
func (p *ClickPulser) Phase() Phase { return p.phase }

// Pending returns the number of pulses queued but not yet started.
func (p *ClickPulser) Pending() int { return p.pending }

// Completed returns the number of pulses that ran their full cycle.
func (p *ClickPulser) Completed() int { return p.completed }
