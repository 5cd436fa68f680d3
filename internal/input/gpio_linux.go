//go:build linux

package input

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOConfig selects the chip, line offsets and electrical options.
type GPIOConfig struct {
	Chip      string
	Offsets   []int
	PullUp    bool // pull-down otherwise
	ActiveLow bool // touched when the raw line reads 0
}

// GPIOReader reads lines from actual hardware using the Linux GPIO character device.
type GPIOReader struct {
	chip   *gpiocdev.Chip
	lines  *gpiocdev.Lines
	values []int
}

// NewGPIOReader requests the configured offsets as inputs.
func NewGPIOReader(cfg GPIOConfig) (*GPIOReader, error) {
	if len(cfg.Offsets) == 0 {
		return nil, errors.New("no gpio offsets configured")
	}

	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithConsumer("touch-sensor")}
	if cfg.PullUp {
		opts = append(opts, gpiocdev.WithPullUp)
	} else {
		opts = append(opts, gpiocdev.WithPullDown)
	}
	// The kernel inverts for us, so Values already reports logical levels.
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	lines, err := chip.RequestLines(cfg.Offsets, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request lines %v: %w", cfg.Offsets, err)
	}

	return &GPIOReader{
		chip:   chip,
		lines:  lines,
		values: make([]int, len(cfg.Offsets)),
	}, nil
}

// Read returns the logical level of every requested line.
func (r *GPIOReader) Read() ([]bool, error) {
	if err := r.lines.Values(r.values); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}

	levels := make([]bool, len(r.values))
	for i, v := range r.values {
		levels[i] = v != 0
	}
	return levels, nil
}

// Close releases GPIO resources.
// Reconfigures lines to input with pull-down (matching Pi boot defaults) before
// closing so external touch controllers see a known state across reboots.
func (r *GPIOReader) Close() error {
	var errs []error

	if r.lines != nil {
		if err := r.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure lines: %w", err))
		}
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close lines: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}
