//go:build linux

package keyring

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sys/unix"
)

// Kernel talks to the user keyring through keyctl(2) directly.
type Kernel struct{}

func NewKernel() *Kernel { return &Kernel{} }

func (Kernel) Lookup(ctx context.Context, name string) (KeyID, error) {
	id, err := unix.KeyctlSearch(unix.KEY_SPEC_USER_KEYRING, "user", name, 0)
	if err != nil {
		if errors.Is(err, unix.ENOKEY) || errors.Is(err, unix.EKEYEXPIRED) || errors.Is(err, unix.EKEYREVOKED) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keyctl search %s: %w", name, err)
	}
	return KeyID(strconv.Itoa(id)), nil
}

// Store replaces the payload of an existing key with the same description.
func (Kernel) Store(ctx context.Context, name string, value []byte) (KeyID, error) {
	id, err := unix.AddKey("user", name, value, unix.KEY_SPEC_USER_KEYRING)
	if err != nil {
		return "", fmt.Errorf("add_key %s: %w", name, err)
	}
	return KeyID(strconv.Itoa(id)), nil
}

func (Kernel) SetTimeout(ctx context.Context, id KeyID, seconds int) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	if _, err := unix.KeyctlInt(unix.KEYCTL_SET_TIMEOUT, n, seconds, 0, 0); err != nil {
		return fmt.Errorf("keyctl timeout %s: %w", id, err)
	}
	return nil
}

func (Kernel) Read(ctx context.Context, id KeyID) ([]byte, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	size, err := unix.KeyctlBuffer(unix.KEYCTL_READ, n, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("keyctl read %s: %w", id, err)
	}
	buf := make([]byte, size)
	got, err := unix.KeyctlBuffer(unix.KEYCTL_READ, n, buf, 0)
	if err != nil {
		return nil, fmt.Errorf("keyctl read %s: %w", id, err)
	}
	if got < len(buf) {
		buf = buf[:got]
	}
	return buf, nil
}

func (k Kernel) Purge(ctx context.Context, name string) error {
	for {
		id, err := k.Lookup(ctx, name)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		n, _ := parseID(id)
		if _, err := unix.KeyctlInt(unix.KEYCTL_UNLINK, n, unix.KEY_SPEC_USER_KEYRING, 0, 0); err != nil {
			return fmt.Errorf("keyctl unlink %s: %w", id, err)
		}
	}
}

func parseID(id KeyID) (int, error) {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		return 0, fmt.Errorf("invalid key id %q", id)
	}
	return n, nil
}
