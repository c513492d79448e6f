// Package gpio provides GPIO line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Reader reads a digital input line.
type Reader interface {
	// Read returns the raw line level: true = HIGH.
	// The button is wired to ground with a pull-up, so HIGH = released.
	Read() (bool, error)

	// Close releases the line.
	Close() error
}

// Writer drives a digital output line.
type Writer interface {
	// Set drives the line HIGH (true) or LOW (false).
	Set(high bool) error

	// Close drives the line LOW and releases it.
	Close() error
}

// Default chip and line offsets.
const (
	DefaultChip      = "gpiochip0"
	DefaultPinButton = 7  // pushbutton to ground
	DefaultPinPower  = 10 // lamp power stage
	DefaultPinClick  = 11 // brightness click relay
)
