// Package input provides raw input line reading with hardware abstraction.
// The GPIO implementation uses the Linux GPIO character device, the serial
// implementation reads samples streamed by an attached touch controller, and
// the fake implementation allows testing without hardware.
package input

import "errors"

// ErrStreamEnded is returned by Read once the source can never produce
// another sample.
var ErrStreamEnded = errors.New("input stream ended")

// Reader reads the logical level of every configured line at once.
type Reader interface {
	// Read returns one level per line, in configuration order.
	// true means the line is active (touched / pressed).
	Read() ([]bool, error)

	// Close releases the underlying device.
	Close() error
}

// Default BCM offsets for the two pads on the reference board.
const (
	DefaultPinPad1 = 17
	DefaultPinPad2 = 27
)
