//go:build !linux

package gpio

import "github.com/pkg/errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, errUnsupported
}

// Input is not implemented on non-Linux platforms.
func (c *Chip) Input(pin int) (*RealReader, error) { return nil, errUnsupported }

// Output is not implemented on non-Linux platforms.
func (c *Chip) Output(pin int) (*RealWriter, error) { return nil, errUnsupported }

// Close is a no-op on non-Linux platforms.
func (c *Chip) Close() error { return nil }

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (bool, error) { return false, errUnsupported }

// Close is a no-op on non-Linux platforms.
func (r *RealReader) Close() error { return nil }

// RealWriter is not available on non-Linux platforms.
type RealWriter struct{}

// Set is not implemented on non-Linux platforms.
func (w *RealWriter) Set(high bool) error { return errUnsupported }

// Close is a no-op on non-Linux platforms.
func (w *RealWriter) Close() error { return nil }
