package livesync

// State is the hydration lifecycle of a Controller.
type State int

const (
	StateUninitialized State = iota
	StateHydrating
	StateReady
	StateClosed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateHydrating:
		return "hydrating"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Source identifies what produced a Change.
type Source int

const (
	// SourceHydration marks the value store replacement at the end of a run.
	SourceHydration Source = iota
	// SourceUser marks a live update through SetValue.
	SourceUser
	// SourceReset marks the reset to defaults performed by Reconfigure.
	SourceReset
)

// String returns the lowercase source name.
func (s Source) String() string {
	switch s {
	case SourceUser:
		return "user"
	case SourceReset:
		return "reset"
	default:
		return "hydration"
	}
}

// Change is delivered to subscribers after the value store changes. Key is
// empty when the whole store was replaced. Values is a private snapshot.
type Change struct {
	Source Source
	Key    string
	Value  string
	Values map[string]string
}
