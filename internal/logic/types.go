// Package logic contains the pure multi-channel touch tracking logic.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/sweeney/touch-sensor/internal/debounce"
)

// EventType represents a committed transition of one channel.
type EventType string

const (
	EventTouch   EventType = "TOUCH"
	EventRelease EventType = "RELEASE"
)

// Channel names an input line and its debounce threshold in samples.
type Channel struct {
	Name      string
	Threshold uint
}

// Event represents a state transition to be published.
type Event struct {
	Timestamp time.Time
	Channel   string
	Type      EventType
	// Stable state of every channel after the transition, keyed by name.
	States map[string]debounce.State
}

// Input represents a single sample of every channel, in channel order.
type Input struct {
	Samples []bool // true = touched (already inverted from raw line level)
	Time    time.Time
}

// ChannelCounts tracks transitions of a single channel since startup.
type ChannelCounts struct {
	Touch   int
	Release int
}

// EventCounts maps channel name to its transition counts.
type EventCounts map[string]ChannelCounts

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
