package logic

import (
	"fmt"
	"time"

	"github.com/sweeney/touch-sensor/internal/debounce"
)

// Detector runs one debouncer per channel and turns committed changes into events.
type Detector struct {
	channels      []Channel
	debouncers    []debounce.Debouncer
	counts        []ChannelCounts
	ready         bool
	startTime     time.Time
	lastHeartbeat time.Time
}

// NewDetector creates a detector for the given channels.
// The startTime is used for calculating uptime in heartbeat events.
// Channel thresholds must be at least 1.
func NewDetector(channels []Channel, startTime time.Time) *Detector {
	d := &Detector{
		channels:      append([]Channel(nil), channels...),
		debouncers:    make([]debounce.Debouncer, len(channels)),
		counts:        make([]ChannelCounts, len(channels)),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
	for i, ch := range channels {
		d.debouncers[i] = debounce.New(ch.Threshold)
	}
	return d
}

// Process takes a new input sample and returns any events that should be emitted.
// Events are ordered by channel when several channels commit on the same sample.
func (d *Detector) Process(input Input) ([]Event, error) {
	if len(input.Samples) != len(d.channels) {
		return nil, fmt.Errorf("got %d samples, want %d", len(input.Samples), len(d.channels))
	}
	d.ready = true

	var changed []int
	for i, raw := range input.Samples {
		if c := d.debouncers[i].Update(debounce.FromBool(raw)); c.Changed() {
			changed = append(changed, i)
			if c.Event == debounce.EventTouch {
				d.counts[i].Touch++
			} else {
				d.counts[i].Release++
			}
		}
	}

	if len(changed) == 0 {
		return nil, nil
	}

	states := d.CurrentState()
	events := make([]Event, 0, len(changed))
	for _, i := range changed {
		events = append(events, Event{
			Timestamp: input.Time,
			Channel:   d.channels[i].Name,
			Type:      eventTypeFor(d.debouncers[i].State()),
			States:    states,
		})
	}
	return events, nil
}

func eventTypeFor(s debounce.State) EventType {
	if s == debounce.Touched {
		return EventTouch
	}
	return EventRelease
}

// Ready reports whether at least one sample has been processed.
func (d *Detector) Ready() bool {
	return d.ready
}

// Channels returns the configured channels in order.
func (d *Detector) Channels() []Channel {
	return append([]Channel(nil), d.channels...)
}

// CurrentState returns the current stable state of every channel.
func (d *Detector) CurrentState() map[string]debounce.State {
	states := make(map[string]debounce.State, len(d.channels))
	for i, ch := range d.channels {
		states[ch.Name] = d.debouncers[i].State()
	}
	return states
}

// EventCountsSnapshot returns a copy of the per-channel event counts.
func (d *Detector) EventCountsSnapshot() EventCounts {
	counts := make(EventCounts, len(d.channels))
	for i, ch := range d.channels {
		counts[ch.Name] = d.counts[i]
	}
	return counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet ready, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !d.ready {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.EventCountsSnapshot(),
	}
}
