// Package keyring stores the vault session key in the user's kernel
// keyring, where it survives between invocations until its timeout.
package keyring

import (
	"context"
	"errors"
)

// SlotName is the description of the "user" key holding the session.
const SlotName = "bw_session"

var (
	// ErrNotFound means no key with the slot name is present.
	ErrNotFound = errors.New("key not found")
	// ErrUnsupported means the platform has no kernel keyring.
	ErrUnsupported = errors.New("kernel keyring not supported on this platform")
)

// KeyID identifies a key in the keyring as printed by keyctl.
type KeyID string

// Registry is a named-slot secret store with per-key timeouts.
type Registry interface {
	// Lookup returns the id of the key named name, or ErrNotFound.
	Lookup(ctx context.Context, name string) (KeyID, error)
	// Store adds or replaces the key named name.
	Store(ctx context.Context, name string, value []byte) (KeyID, error)
	// SetTimeout expires the key after seconds.
	SetTimeout(ctx context.Context, id KeyID, seconds int) error
	// Read returns the key payload.
	Read(ctx context.Context, id KeyID) ([]byte, error)
	// Purge removes every key named name. Purging a missing key succeeds.
	Purge(ctx context.Context, name string) error
}
