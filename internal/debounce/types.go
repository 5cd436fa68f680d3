package debounce

// State is the debounced reading of an input line.
type State uint8

const (
	Released State = iota
	Touched
)

// FromBool maps a raw logical level to a State: true is Touched.
func FromBool(active bool) State {
	if active {
		return Touched
	}
	return Released
}

// Bool reports whether s is Touched.
func (s State) Bool() bool {
	return s == Touched
}

// Change returns the transition event that ends in s.
func (s State) Change() Change {
	if s == Touched {
		return Change{Event: EventTouch, State: Touched}
	}
	return Change{Event: EventRelease, State: Released}
}

func (s State) String() string {
	switch s {
	case Touched:
		return "TOUCHED"
	case Released:
		return "RELEASED"
	default:
		return "UNKNOWN"
	}
}

// Event classifies the outcome of a single Update.
type Event uint8

const (
	EventNone Event = iota
	EventTouch
	EventRelease
)

func (e Event) String() string {
	switch e {
	case EventTouch:
		return "TOUCH"
	case EventRelease:
		return "RELEASE"
	default:
		return "NONE"
	}
}

// Change is the result of one Update. State is always the stable state
// after the update, so for Touch it is Touched and for Release it is Released.
type Change struct {
	Event Event
	State State
}

// Touch and Release are for comparing results; Update does not read them.
var (
	// Touch is returned when the line has just become Touched.
	Touch = Change{Event: EventTouch, State: Touched}
	// Release is returned when the line has just become Released.
	Release = Change{Event: EventRelease, State: Released}
)

// NoChange is returned when the stable state was held at s.
func NoChange(s State) Change {
	return Change{Event: EventNone, State: s}
}

// Changed reports whether the update committed a transition.
func (c Change) Changed() bool {
	return c.Event != EventNone
}

func (c Change) String() string {
	if c.Event == EventNone {
		return "NO_CHANGE(" + c.State.String() + ")"
	}
	return c.Event.String()
}
