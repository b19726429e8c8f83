package session

// State is where the session key currently lives.
type State int

const (
	// StateUnset means no key is held; an unlock is needed.
	StateUnset State = iota
	// StateInMemory means the key is held by this process only.
	StateInMemory
	// StateInRegistry means the key is held in memory and in the key registry.
	StateInRegistry
	// StatePurged means the key was removed by a lock.
	StatePurged
)

// String returns a human-readable string representation of the state
func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateInMemory:
		return "in-memory"
	case StateInRegistry:
		return "in-registry"
	case StatePurged:
		return "purged"
	default:
		return "invalid"
	}
}

// HasKey reports whether the state carries a usable in-memory key.
func (s State) HasKey() bool {
	return s == StateInMemory || s == StateInRegistry
}
