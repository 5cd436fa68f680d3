//go:build !linux

package input

import "errors"

// GPIOConfig selects the chip, line offsets and electrical options.
type GPIOConfig struct {
	Chip      string
	Offsets   []int
	PullUp    bool
	ActiveLow bool
}

// GPIOReader is not available on non-Linux platforms.
type GPIOReader struct{}

// NewGPIOReader returns an error on non-Linux platforms.
func NewGPIOReader(cfg GPIOConfig) (*GPIOReader, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (r *GPIOReader) Read() ([]bool, error) {
	return nil, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *GPIOReader) Close() error {
	return nil
}
