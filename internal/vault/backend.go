package vault

import (
	"context"

	"github.com/zach-source/bwrofi/internal/secret"
)

// Backend talks to the vault. Every call but Unlock and Lock needs the
// session key of an unlocked vault.
type Backend interface {
	Items(ctx context.Context, key *secret.Secret) ([]Item, error)
	Folders(ctx context.Context, key *secret.Secret) ([]Folder, error)
	Item(ctx context.Context, key *secret.Secret, id string) (Item, error)
	// TOTP returns the current one-time code, or "" when the item has no
	// TOTP seed.
	TOTP(ctx context.Context, key *secret.Secret, id string) (string, error)
	Sync(ctx context.Context, key *secret.Secret) error
	Unlock(ctx context.Context, password *secret.Secret) ([]byte, error)
	Lock(ctx context.Context) error
	Name() string
}
