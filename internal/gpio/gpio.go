// Package gpio drives the host's health indicator LED with hardware
// abstraction. The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Indicator is a single on/off output.
type Indicator interface {
	// Set drives the output. Implementations skip redundant writes.
	Set(on bool) error

	// Close turns the output off and releases it.
	Close() error
}

// DefaultPinLED is the BCM pin used for the health LED; -1 disables it.
const DefaultPinLED = -1

// Chip is the GPIO character device the indicator line is requested from.
const Chip = "gpiochip0"

// Nop is an Indicator that does nothing. Used when no pin is configured.
type Nop struct{}

func (Nop) Set(bool) error { return nil }
func (Nop) Close() error   { return nil }
