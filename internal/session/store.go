// Package session owns the vault session key: it unlocks the vault, keeps
// the key in memory or in the kernel key registry according to the
// auto-lock policy, and purges it on lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/zach-source/bwrofi/internal/keyring"
	"github.com/zach-source/bwrofi/internal/logging"
	"github.com/zach-source/bwrofi/internal/secret"
)

var (
	ErrUnlockFailed = errors.New("failed to unlock vault")
	ErrLockFailed   = errors.New("failed to lock vault")
	ErrKeyRead      = errors.New("failed to read session key")
)

// sessionPattern matches the export line bw prints after a successful unlock.
var sessionPattern = regexp.MustCompile(`BW_SESSION="([^"\s]+)"`)

// Backend unlocks and locks the vault.
type Backend interface {
	// Unlock returns the raw output of the unlock command.
	Unlock(ctx context.Context, password *secret.Secret) ([]byte, error)
	Lock(ctx context.Context) error
}

// Store caches the session key. It is not safe for concurrent use; the
// menu runs a single goroutine.
type Store struct {
	config   Config
	registry keyring.Registry
	backend  Backend
	logger   *log.Logger

	key   *secret.Secret
	state State
}

// NewStore creates a store with the given policy, registry and backend.
func NewStore(config Config, registry keyring.Registry, backend Backend, logger *log.Logger) *Store {
	config.normalize()
	return &Store{
		config:   config,
		registry: registry,
		backend:  backend,
		logger:   logging.OrDiscard(logger).With("component", "session"),
		state:    StateUnset,
	}
}

func (s *Store) Policy() Policy { return s.config.AutoLock }

func (s *Store) State() State { return s.state }

// HasKey reports whether a previous unlock left a key in the registry.
// It is always false under the lock-always policy.
func (s *Store) HasKey(ctx context.Context) bool {
	if s.config.AutoLock.LockAlways() {
		return false
	}
	_, err := s.lookup(ctx)
	return err == nil
}

func (s *Store) lookup(ctx context.Context) (keyring.KeyID, error) {
	s.logger.Debug("requesting key id from registry")
	return s.registry.Lookup(ctx, s.config.SlotName)
}

// ParseSessionKey extracts the session key from unlock output.
func ParseSessionKey(out []byte) (*secret.Secret, error) {
	m := sessionPattern.FindSubmatch(out)
	if m == nil {
		return nil, errors.New("no session key in unlock output")
	}
	return secret.FromBytes(m[1]), nil
}

// Unlock unlocks the vault with password and keeps the session key. Under
// a persisting policy the key also replaces any stale registry entry.
func (s *Store) Unlock(ctx context.Context, password *secret.Secret) error {
	s.logger.Info("unlocking vault")

	out, err := s.backend.Unlock(ctx, password)
	if err != nil {
		s.logger.Warn("unlock command failed", "err", err)
		return fmt.Errorf("%w: %w", ErrUnlockFailed, err)
	}
	key, err := ParseSessionKey(out)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnlockFailed, err)
	}

	s.replaceKey(key)
	s.state = StateInMemory

	if !s.config.AutoLock.Persists() {
		return nil
	}

	if _, err := s.lookup(ctx); err == nil {
		s.logger.Info("overwriting old key in registry")
	}
	id, err := s.registry.Store(ctx, s.config.SlotName, key.Bytes())
	if err != nil {
		return fmt.Errorf("%w: store key: %w", ErrUnlockFailed, err)
	}
	if err := s.registry.SetTimeout(ctx, id, int(s.config.AutoLock)); err != nil {
		return fmt.Errorf("%w: set key timeout: %w", ErrUnlockFailed, err)
	}
	s.state = StateInRegistry
	return nil
}

// Lock purges the registry slot, locks the vault and wipes the in-memory key.
func (s *Store) Lock(ctx context.Context) error {
	err := s.lockSequence(ctx)
	s.replaceKey(nil)
	s.state = StatePurged
	return err
}

func (s *Store) lockSequence(ctx context.Context) error {
	s.logger.Info("deleting key from registry and locking vault")
	if err := s.registry.Purge(ctx, s.config.SlotName); err != nil {
		return fmt.Errorf("%w: purge key: %w", ErrLockFailed, err)
	}
	if err := s.backend.Lock(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrLockFailed, err)
	}
	return nil
}

// Key returns the session key.
//
// Under the lock-always policy the registry slot is purged and the vault
// locked before anything is read, and the key unlocked by the caller is
// handed over and dropped from the store. A second Key call without an
// Unlock in between is expected to fail with ErrKeyRead.
//
// Otherwise the in-memory key is returned, or the registry copy is read
// after refreshing its timeout.
func (s *Store) Key(ctx context.Context) (*secret.Secret, error) {
	s.logger.Debug("started key retrieval", "policy", s.config.AutoLock, "state", s.state)

	if s.config.AutoLock.LockAlways() {
		s.logger.Debug("force locking vault")
		if err := s.lockSequence(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyRead, err)
		}
		key := s.key
		s.key = nil
		s.state = StateUnset
		if key.IsEmpty() {
			return nil, fmt.Errorf("%w: vault locked, unlock required", ErrKeyRead)
		}
		return key, nil
	}

	if s.state.HasKey() {
		s.logger.Debug("returning key already in memory")
		return s.key, nil
	}

	id, err := s.lookup(ctx)
	if err != nil {
		s.logger.Error("key was not found in registry")
		return nil, fmt.Errorf("%w: %w", ErrKeyRead, err)
	}
	if s.config.AutoLock.Persists() {
		if err := s.registry.SetTimeout(ctx, id, int(s.config.AutoLock)); err != nil {
			return nil, fmt.Errorf("%w: refresh timeout: %w", ErrKeyRead, err)
		}
	}
	data, err := s.registry.Read(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyRead, err)
	}
	key := secret.FromBytes(data)
	if key.IsEmpty() {
		return nil, fmt.Errorf("%w: registry slot is empty", ErrKeyRead)
	}

	s.replaceKey(key)
	s.state = StateInRegistry
	return s.key, nil
}

func (s *Store) replaceKey(key *secret.Secret) {
	if s.key != nil && s.key != key {
		s.key.Zero()
	}
	s.key = key
}
