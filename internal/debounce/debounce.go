// Package debounce turns a noisy two-valued input into a stable state.
// It has no dependencies, does not allocate and never blocks, so a
// Debouncer can be driven from a poll loop, a timer callback or an
// interrupt handler. A Debouncer is not safe for concurrent use.
package debounce

// Debouncer accepts a new stable state only after threshold consecutive
// samples disagree with the current one. Any agreeing sample clears the run.
type Debouncer struct {
	threshold uint
	// Consecutive samples that disagree with state, always < threshold.
	samples uint
	state   State
}

// New returns a Debouncer in the Released state. A threshold of 1 disables
// debouncing. New panics if threshold is 0.
func New(threshold uint) Debouncer {
	if threshold == 0 {
		panic("debounce: threshold must be at least 1")
	}
	return Debouncer{
		threshold: threshold,
		state:     Released,
	}
}

// State returns the current stable state.
func (d *Debouncer) State() State {
	return d.state
}

// Threshold returns the number of consecutive disagreeing samples needed
// to change state.
func (d *Debouncer) Threshold() uint {
	return d.threshold
}

// Update feeds one raw sample and reports whether the stable state changed.
// While a disagreeing run is still short of the threshold the returned
// NoChange carries the old stable state.
func (d *Debouncer) Update(sample State) Change {
	if sample == d.state {
		d.samples = 0
		return NoChange(d.state)
	}

	if d.samples == d.threshold-1 {
		d.state = sample
		d.samples = 0
		return d.state.Change()
	}

	d.samples++
	return NoChange(d.state)
}
