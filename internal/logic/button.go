package logic

// ButtonReader classifies raw samples of a pull-up button into clicks.
// A classification is produced only on the release edge.
type ButtonReader struct {
	debounceMs Millis
	longMs     Millis

	last       Level
	pressStart Millis
}

// NewButtonReader creates a reader that starts in the released state.
func NewButtonReader(debounceMs, longThresholdMs Millis) *ButtonReader {
	return &ButtonReader{
		debounceMs: debounceMs,
		longMs:     longThresholdMs,
		last:       High,
	}
}

// Advance records a sample taken at now and returns the classification of a
// completed press, or ClickNone.
func (b *ButtonReader) Advance(now Millis, level Level) Click {
	prev := b.last
	b.last = level

	switch {
	case prev == High && level == Low:
		b.pressStart = now
	case prev == Low && level == High:
		held := now.Since(b.pressStart)
		switch {
		case held < b.debounceMs:
			return ClickBounce
		case held < b.longMs:
			return ClickShort
		default:
			return ClickLong
		}
	}
	return ClickNone
}

// Pressed reports whether the last sample was LOW.
func (b *ButtonReader) Pressed() bool {
	return b.last == Low
}
