package core

// State is the engine lifecycle state. The only transition is
// Uninitialized -> Ready on a successful Initialize; there is no way back.
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}
