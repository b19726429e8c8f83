// Package vault exposes the Bitwarden vault to the menu: it loads items
// and folders through a Backend, caches the item list on disk and keeps
// the active folder filter.
package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/zach-source/bwrofi/internal/logging"
	"github.com/zach-source/bwrofi/internal/secret"
	"github.com/zach-source/bwrofi/internal/util"
)

var (
	ErrLoad    = errors.New("failed to load vault items")
	ErrSync    = errors.New("failed to sync vault")
	ErrNoItems = errors.New("vault has no items")
)

// Cache persists the item list between runs. Implementations strip
// secrets before writing.
type Cache interface {
	Fresh() bool
	Load() ([]Item, error)
	Save(items []Item) error
}

// cacheStats is implemented by caches that count hits and misses.
type cacheStats interface {
	Stats() (count int, hits, misses int64)
}

// Vault holds the items of one menu session.
type Vault struct {
	backend Backend
	cache   Cache
	logger  *log.Logger

	key     *secret.Secret
	items   []Item
	folders []Folder
	filter  *Folder
}

// New creates a vault over backend. cache may be nil.
func New(backend Backend, cache Cache, logger *log.Logger) *Vault {
	return &Vault{
		backend: backend,
		cache:   cache,
		logger:  logging.OrDiscard(logger).With("component", "vault"),
	}
}

// SetKey sets the session key used for every backend call.
func (v *Vault) SetKey(key *secret.Secret) { v.key = key }

// Load fills the vault, preferring a fresh on-disk cache for items.
// Folders always come from the backend, which also proves the session
// key is still valid. It returns the number of items loaded.
func (v *Vault) Load(ctx context.Context) (int, error) {
	return v.load(ctx, true)
}

// Reload fills the vault from the backend and rewrites the cache.
func (v *Vault) Reload(ctx context.Context) (int, error) {
	return v.load(ctx, false)
}

func (v *Vault) load(ctx context.Context, useCache bool) (int, error) {
	var (
		items   []Item
		folders []Folder
		cached  = useCache && v.cache != nil && v.cache.Fresh()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if cached {
			got, err := v.cache.Load()
			if err == nil {
				v.logger.Debug("loaded items from cache", "count", len(got))
				items = got
				return nil
			}
			v.logger.Warn("reading item cache failed, asking backend", "err", err)
			cached = false
		}
		got, err := v.backend.Items(gctx, v.key)
		if err != nil {
			return err
		}
		items = got
		return nil
	})
	g.Go(func() error {
		got, err := v.backend.Folders(gctx, v.key)
		if err != nil {
			return err
		}
		folders = got
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	if !cached && v.cache != nil {
		if err := v.cache.Save(items); err != nil {
			v.logger.Warn("writing item cache failed", "err", err)
		}
	}

	if st, ok := v.cache.(cacheStats); ok {
		count, hits, misses := st.Stats()
		v.logger.Debug("item cache", "count", count, "hits", hits, "misses", misses)
	}

	v.items = items
	v.folders = folders
	v.logger.Info("loaded vault", "items", len(items), "folders", len(folders), "cached", cached)
	return len(items), nil
}

// Items returns the items in the active folder, or all items when no
// filter is set.
func (v *Vault) Items() []Item {
	if v.filter == nil {
		return v.items
	}
	f := *v.filter
	return util.Filter(v.items, func(it Item) bool { return it.InFolder(f) })
}

func (v *Vault) Folders() []Folder { return v.folders }

// ByName returns the visible items named exactly name, in vault order.
func (v *Vault) ByName(name string) []Item {
	return util.Filter(v.Items(), func(it Item) bool { return it.Name == name })
}

// FolderByName returns the folder with the given name.
func (v *Vault) FolderByName(name string) (Folder, bool) {
	return util.FindFirst(v.folders, func(f Folder) bool { return f.Name == name })
}

// Full fetches the item with its secrets. Listed items may come from the
// cache, which never holds passwords.
func (v *Vault) Full(ctx context.Context, it Item) (Item, error) {
	full, err := v.backend.Item(ctx, v.key, it.ID)
	if err != nil {
		return Item{}, fmt.Errorf("%w: item %s: %w", ErrLoad, it.Name, err)
	}
	return full, nil
}

// TOTP returns the current one-time code for the item, or "" if it has none.
func (v *Vault) TOTP(ctx context.Context, it Item) (string, error) {
	code, err := v.backend.TOTP(ctx, v.key, it.ID)
	if err != nil {
		return "", fmt.Errorf("%w: totp for %s: %w", ErrLoad, it.Name, err)
	}
	return code, nil
}

// Sync pulls the latest vault from the server and reloads, bypassing the
// cache.
func (v *Vault) Sync(ctx context.Context) (int, error) {
	v.logger.Info("syncing vault")
	if err := v.backend.Sync(ctx, v.key); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSync, err)
	}
	return v.Reload(ctx)
}

// SetFilter restricts Items to folder f. The "No Folder" pseudo folder
// and nil clear the filter.
func (v *Vault) SetFilter(f *Folder) {
	if f == nil || f.IsNoFolder() {
		v.filter = nil
		return
	}
	cp := *f
	v.filter = &cp
}

// Filter returns the active folder filter, or nil.
func (v *Vault) Filter() *Folder { return v.filter }
