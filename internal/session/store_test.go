package session

import (
	"context"
	"errors"
	"testing"

	"github.com/zach-source/bwrofi/internal/keyring"
	"github.com/zach-source/bwrofi/internal/secret"
)

const unlockOutput = "Your vault is now unlocked!\n\n" +
	"To unlock your vault, set your session key to the `BW_SESSION` environment variable. ex:\n" +
	"$ export BW_SESSION=\"abc123==\"\n"

type fakeBackend struct {
	output    string
	unlockErr error
	lockErr   error
	passwords []string
	locks     int
}

func (f *fakeBackend) Unlock(ctx context.Context, password *secret.Secret) ([]byte, error) {
	f.passwords = append(f.passwords, password.Reveal())
	if f.unlockErr != nil {
		return nil, f.unlockErr
	}
	return []byte(f.output), nil
}

func (f *fakeBackend) Lock(ctx context.Context) error {
	f.locks++
	return f.lockErr
}

func newTestStore(policy Policy) (*Store, *keyring.Memory, *fakeBackend) {
	reg := keyring.NewMemory()
	be := &fakeBackend{output: unlockOutput}
	return NewStore(Config{AutoLock: policy}, reg, be, nil), reg, be
}

func TestParseSessionKey(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    string
		wantErr bool
	}{
		{"bash export", unlockOutput, "abc123==", false},
		{"powershell", `$env:BW_SESSION="xyz"`, "xyz", false},
		{"missing", "Invalid master password.", "", true},
		{"empty value", `BW_SESSION=""`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseSessionKey([]byte(tt.out))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSessionKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && key.Reveal() != tt.want {
				t.Errorf("ParseSessionKey() = %q, want %q", key.Reveal(), tt.want)
			}
		})
	}
}

func TestStore_PersistingPolicy(t *testing.T) {
	ctx := context.Background()
	s, reg, be := newTestStore(600)

	if s.HasKey(ctx) {
		t.Fatal("HasKey() = true before unlock")
	}
	if err := s.Unlock(ctx, secret.New("hunter2")); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if len(be.passwords) != 1 || be.passwords[0] != "hunter2" {
		t.Errorf("backend passwords = %v, want [hunter2]", be.passwords)
	}
	if s.State() != StateInRegistry {
		t.Errorf("State() = %v, want %v", s.State(), StateInRegistry)
	}
	payload, ok := reg.Payload(keyring.SlotName)
	if !ok || string(payload) != "abc123==" {
		t.Errorf("registry payload = %q, %v", payload, ok)
	}
	id, _ := reg.Lookup(ctx, keyring.SlotName)
	if got := reg.Timeouts[id]; got != 600 {
		t.Errorf("timeout = %d, want 600", got)
	}
	if !s.HasKey(ctx) {
		t.Error("HasKey() = false after unlock")
	}

	calls := reg.Calls
	key, err := s.Key(ctx)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if key.Reveal() != "abc123==" {
		t.Errorf("Key() = %q, want abc123==", key.Reveal())
	}
	if reg.Calls != calls {
		t.Errorf("Key() after Unlock made %d registry calls, want 0", reg.Calls-calls)
	}
}

func TestState_HasKey(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateUnset, false},
		{StateInMemory, true},
		{StateInRegistry, true},
		{StatePurged, false},
	}
	for _, tt := range tests {
		if got := tt.state.HasKey(); got != tt.want {
			t.Errorf("%v.HasKey() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestStore_PersistingPolicyReadsRegistry(t *testing.T) {
	ctx := context.Background()
	reg := keyring.NewMemory()
	id, _ := reg.Store(ctx, keyring.SlotName, []byte("from-earlier-run"))

	s := NewStore(Config{AutoLock: 300}, reg, &fakeBackend{}, nil)
	if !s.HasKey(ctx) {
		t.Fatal("HasKey() = false with populated registry")
	}
	key, err := s.Key(ctx)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if key.Reveal() != "from-earlier-run" {
		t.Errorf("Key() = %q", key.Reveal())
	}
	if reg.Timeouts[id] != 300 {
		t.Errorf("timeout not refreshed: %d", reg.Timeouts[id])
	}
}

func TestStore_MemoryOnlyNeverTouchesRegistry(t *testing.T) {
	ctx := context.Background()
	s, reg, _ := newTestStore(-1)

	if err := s.Unlock(ctx, secret.New("pw")); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	key, err := s.Key(ctx)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if key.Reveal() != "abc123==" {
		t.Errorf("Key() = %q", key.Reveal())
	}
	if s.State() != StateInMemory {
		t.Errorf("State() = %v, want %v", s.State(), StateInMemory)
	}
	if reg.Calls != 0 {
		t.Errorf("registry calls = %d, want 0", reg.Calls)
	}
}

func TestStore_LockAlways(t *testing.T) {
	ctx := context.Background()
	s, reg, be := newTestStore(0)
	_, _ = reg.Store(ctx, keyring.SlotName, []byte("stale"))

	if s.HasKey(ctx) {
		t.Error("HasKey() = true under lock-always policy")
	}
	if err := s.Unlock(ctx, secret.New("pw")); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if payload, _ := reg.Payload(keyring.SlotName); string(payload) != "stale" {
		t.Errorf("unlock wrote to registry under lock-always: %q", payload)
	}

	key, err := s.Key(ctx)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if key.Reveal() != "abc123==" {
		t.Errorf("Key() = %q", key.Reveal())
	}
	if be.locks != 1 {
		t.Errorf("backend locks = %d, want 1", be.locks)
	}
	if _, ok := reg.Payload(keyring.SlotName); ok {
		t.Error("registry slot not purged")
	}

	if _, err := s.Key(ctx); !errors.Is(err, ErrKeyRead) {
		t.Errorf("second Key() error = %v, want ErrKeyRead", err)
	}
}

func TestStore_Lock(t *testing.T) {
	ctx := context.Background()
	s, reg, be := newTestStore(900)
	if err := s.Unlock(ctx, secret.New("pw")); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	if err := s.Lock(ctx); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if be.locks != 1 {
		t.Errorf("backend locks = %d, want 1", be.locks)
	}
	if s.State() != StatePurged {
		t.Errorf("State() = %v, want %v", s.State(), StatePurged)
	}
	if s.HasKey(ctx) {
		t.Error("HasKey() = true after lock")
	}
	if _, ok := reg.Payload(keyring.SlotName); ok {
		t.Error("registry slot survived lock")
	}
	if _, err := s.Key(ctx); !errors.Is(err, ErrKeyRead) {
		t.Errorf("Key() after lock error = %v, want ErrKeyRead", err)
	}
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unlock command fails", func(t *testing.T) {
		s, _, be := newTestStore(900)
		be.unlockErr = errors.New("exit status 1")
		if err := s.Unlock(ctx, secret.New("bad")); !errors.Is(err, ErrUnlockFailed) {
			t.Errorf("Unlock() error = %v, want ErrUnlockFailed", err)
		}
		if s.State() != StateUnset {
			t.Errorf("State() = %v, want %v", s.State(), StateUnset)
		}
	})

	t.Run("unlock output has no key", func(t *testing.T) {
		s, _, be := newTestStore(900)
		be.output = "Invalid master password."
		if err := s.Unlock(ctx, secret.New("bad")); !errors.Is(err, ErrUnlockFailed) {
			t.Errorf("Unlock() error = %v, want ErrUnlockFailed", err)
		}
	})

	t.Run("lock command fails", func(t *testing.T) {
		s, _, be := newTestStore(900)
		be.lockErr = errors.New("exit status 1")
		if err := s.Lock(ctx); !errors.Is(err, ErrLockFailed) {
			t.Errorf("Lock() error = %v, want ErrLockFailed", err)
		}
	})

	t.Run("key without unlock", func(t *testing.T) {
		s, _, _ := newTestStore(900)
		if _, err := s.Key(ctx); !errors.Is(err, ErrKeyRead) {
			t.Errorf("Key() error = %v, want ErrKeyRead", err)
		}
	})
}

func TestPolicy_String(t *testing.T) {
	tests := []struct {
		p    Policy
		want string
	}{
		{0, "lock-always"},
		{-1, "memory-only"},
		{900, "15m0s"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Policy(%d).String() = %q, want %q", int(tt.p), got, tt.want)
		}
	}
}
