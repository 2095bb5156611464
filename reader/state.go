package reader

// State represents the reader session's playback state.
type State int

const (
	// StateIdle indicates no playback has been requested yet.
	StateIdle State = iota
	// StateFetching indicates audio for the current page is being obtained.
	StateFetching
	// StatePlaying indicates audio is playing with the word highlight active.
	StatePlaying
	// StateStopped indicates playback was stopped or has finished.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Active reports whether the session is fetching or playing.
func (s State) Active() bool {
	return s == StateFetching || s == StatePlaying
}
