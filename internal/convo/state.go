package convo

// State of the conversation loop.
type State int32

const (
	Idle State = iota
	Listening
	Classifying
	Responding
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Classifying:
		return "classifying"
	case Responding:
		return "responding"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// EndReason tells the host why a session ended.
type EndReason int

const (
	NotEnded EndReason = iota
	Farewell
	RetriesExhausted
	Cancelled
	Disconnected
)

func (r EndReason) String() string {
	switch r {
	case NotEnded:
		return "not_ended"
	case Farewell:
		return "farewell"
	case RetriesExhausted:
		return "retries_exhausted"
	case Cancelled:
		return "cancelled"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

// Natural reports whether the conversation itself decided to end, as
// opposed to the host or the UI going away.
func (r EndReason) Natural() bool {
	return r == Farewell || r == RetriesExhausted
}
