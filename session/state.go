package session

// State is the playback state of a Session.
type State uint32

const (
	// StateIdle indicates the session has not been played yet
	StateIdle State = iota
	// StatePlaying indicates the worker is decoding and delivering frames
	StatePlaying
	// StatePaused indicates the worker is idling without decode work
	StatePaused
	// StateStopped indicates the session is finished; it is terminal
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
