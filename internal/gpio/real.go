//go:build linux

package gpio

import (
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// Chip is an open GPIO character device from which lines are requested.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named GPIO chip, e.g. "gpiochip0".
func OpenChip(name string) (*Chip, error) {
	c, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open gpio chip %s", name)
	}
	return &Chip{chip: c}, nil
}

// Input requests pin as an input with the internal pull-up enabled.
func (c *Chip) Input(pin int) (*RealReader, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithConsumer("headlamp"))
	if err != nil {
		return nil, errors.Wrapf(err, "request input pin %d", pin)
	}
	return &RealReader{line: line, pin: pin}, nil
}

// Output requests pin as an output driven LOW.
func (c *Chip) Output(pin int) (*RealWriter, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("headlamp"))
	if err != nil {
		return nil, errors.Wrapf(err, "request output pin %d", pin)
	}
	return &RealWriter{line: line, pin: pin}, nil
}

// Close closes the chip. Lines requested from it stay valid until closed.
func (c *Chip) Close() error {
	if err := c.chip.Close(); err != nil {
		return errors.Wrap(err, "close chip")
	}
	return nil
}

// RealReader reads a button line from actual hardware.
type RealReader struct {
	line *gpiocdev.Line
	pin  int
}

// Read returns the raw line level.
func (r *RealReader) Read() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, errors.Wrapf(err, "read pin %d", r.pin)
	}
	return v != 0, nil
}

// Close releases the line.
func (r *RealReader) Close() error {
	if err := r.line.Close(); err != nil {
		return errors.Wrapf(err, "close pin %d", r.pin)
	}
	return nil
}

// RealWriter drives an output line on actual hardware.
type RealWriter struct {
	line *gpiocdev.Line
	pin  int
}

// Set drives the line.
func (w *RealWriter) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	if err := w.line.SetValue(v); err != nil {
		return errors.Wrapf(err, "set pin %d", w.pin)
	}
	return nil
}

// Close drives the line LOW, then returns it to an input with pull-down to
// match the Raspberry Pi boot default so the relay cannot latch on.
func (w *RealWriter) Close() error {
	var errs []error

	if err := w.line.SetValue(0); err != nil {
		errs = append(errs, errors.Wrapf(err, "drive pin %d low", w.pin))
	}
	if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, errors.Wrapf(err, "reconfigure pin %d", w.pin))
	}
	if err := w.line.Close(); err != nil {
		errs = append(errs, errors.Wrapf(err, "close pin %d", w.pin))
	}

	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}
