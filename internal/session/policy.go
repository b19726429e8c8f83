package session

import (
	"time"

	"github.com/zach-source/bwrofi/internal/keyring"
)

// DefaultAutoLock is how long a session key stays in the registry (15 minutes).
const DefaultAutoLock = 900

// Policy is the auto-lock timeout in seconds.
//
//	0   lock on every key read; the key is never reused
//	>0  keep the key in the registry, refreshing the timeout on each read
//	<0  keep the key in process memory only
type Policy int

func (p Policy) LockAlways() bool { return p == 0 }

func (p Policy) Persists() bool { return p > 0 }

func (p Policy) MemoryOnly() bool { return p < 0 }

func (p Policy) String() string {
	switch {
	case p.LockAlways():
		return "lock-always"
	case p.MemoryOnly():
		return "memory-only"
	default:
		return (time.Duration(p) * time.Second).String()
	}
}

// Config holds session store configuration
type Config struct {
	// AutoLock is the lock policy in seconds.
	AutoLock Policy
	// SlotName is the registry key description.
	SlotName string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{AutoLock: DefaultAutoLock, SlotName: keyring.SlotName}
}

func (c *Config) normalize() {
	if c.SlotName == "" {
		c.SlotName = keyring.SlotName
	}
}
