package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/zach-source/bwrofi/internal/secret"
)

// Fake is an in-memory Backend for tests.
type Fake struct {
	mu sync.Mutex

	ItemList   []Item
	FolderList []Folder
	Codes      map[string]string // item id -> TOTP code
	// SessionKey is returned by Unlock and required by every other call
	// when set.
	SessionKey string

	ItemsErr  error
	SyncErr   error
	UnlockErr error

	ItemsCalls int
	SyncCalls  int
	LockCalls  int
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) check(key *secret.Secret) error {
	if f.SessionKey != "" && key.Reveal() != f.SessionKey {
		return fmt.Errorf("invalid session key")
	}
	return nil
}

func (f *Fake) Items(ctx context.Context, key *secret.Secret) ([]Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ItemsCalls++
	if f.ItemsErr != nil {
		return nil, f.ItemsErr
	}
	if err := f.check(key); err != nil {
		return nil, err
	}
	return append([]Item(nil), f.ItemList...), nil
}

func (f *Fake) Folders(ctx context.Context, key *secret.Secret) ([]Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(key); err != nil {
		return nil, err
	}
	return append([]Folder(nil), f.FolderList...), nil
}

func (f *Fake) Item(ctx context.Context, key *secret.Secret, id string) (Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(key); err != nil {
		return Item{}, err
	}
	for _, it := range f.ItemList {
		if it.ID == id {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("item %s not found", id)
}

func (f *Fake) TOTP(ctx context.Context, key *secret.Secret, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(key); err != nil {
		return "", err
	}
	return f.Codes[id], nil
}

func (f *Fake) Sync(ctx context.Context, key *secret.Secret) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SyncCalls++
	return f.SyncErr
}

func (f *Fake) Unlock(ctx context.Context, password *secret.Secret) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UnlockErr != nil {
		return nil, f.UnlockErr
	}
	key := f.SessionKey
	if key == "" {
		key = "fake-session=="
	}
	return []byte(fmt.Sprintf("Your vault is now unlocked!\n\n$ export %s=%q\n", SessionEnv, key)), nil
}

func (f *Fake) Lock(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LockCalls++
	return nil
}
