package gpio

import "errors"

// FakeReader is a test double that returns scripted line levels.
type FakeReader struct {
	// Samples contains scripted levels (true = HIGH) to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []bool) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeWriter records every level driven onto an output line.
type FakeWriter struct {
	// Levels contains every value passed to Set, in order.
	Levels []bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set() and the level not recorded.
	SetError error
}

// NewFakeWriter creates an empty FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Set records the level.
func (f *FakeWriter) Set(high bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Levels = append(f.Levels, high)
	return nil
}

// Close drives the line LOW and marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.Levels = append(f.Levels, false)
	f.Closed = true
	return nil
}

// High reports the last level driven; false if never driven.
func (f *FakeWriter) High() bool {
	if len(f.Levels) == 0 {
		return false
	}
	return f.Levels[len(f.Levels)-1]
}

// Pulses counts completed HIGH-then-LOW cycles. Repeated writes of the same
// level are not edges.
func (f *FakeWriter) Pulses() int {
	n := 0
	high := false
	for _, l := range f.Levels {
		if l && !high {
			high = true
		} else if !l && high {
			high = false
			n++
		}
	}
	return n
}
