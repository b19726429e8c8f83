package keyring

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zach-source/bwrofi/internal/proc"
)

// Keyctl drives the keyctl(1) utility.
type Keyctl struct {
	Runner proc.Runner
	Binary string // defaults to "keyctl"
}

func NewKeyctl(runner proc.Runner) *Keyctl {
	return &Keyctl{Runner: runner, Binary: "keyctl"}
}

func (k *Keyctl) run(ctx context.Context, stdin []byte, args ...string) (string, error) {
	bin := k.Binary
	if bin == "" {
		bin = "keyctl"
	}
	res, err := k.Runner.Run(ctx, proc.Cmd{Name: bin, Args: args, Stdin: stdin})
	if err != nil {
		return "", fmt.Errorf("keyctl %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

func (k *Keyctl) Lookup(ctx context.Context, name string) (KeyID, error) {
	out, err := k.run(ctx, nil, "request", "user", name)
	if err != nil {
		// request exits non-zero when the key is absent
		if proc.ExitCode(err) > 0 {
			return "", ErrNotFound
		}
		return "", err
	}
	if out == "" {
		return "", ErrNotFound
	}
	return KeyID(out), nil
}

// Store uses padd so the payload is read from stdin and never appears in argv.
func (k *Keyctl) Store(ctx context.Context, name string, value []byte) (KeyID, error) {
	out, err := k.run(ctx, value, "padd", "user", name, "@u")
	if err != nil {
		return "", err
	}
	return KeyID(out), nil
}

func (k *Keyctl) SetTimeout(ctx context.Context, id KeyID, seconds int) error {
	_, err := k.run(ctx, nil, "timeout", string(id), strconv.Itoa(seconds))
	return err
}

func (k *Keyctl) Read(ctx context.Context, id KeyID) ([]byte, error) {
	bin := k.Binary
	if bin == "" {
		bin = "keyctl"
	}
	res, err := k.Runner.Run(ctx, proc.Cmd{Name: bin, Args: []string{"pipe", string(id)}})
	if err != nil {
		return nil, fmt.Errorf("keyctl pipe: %w", err)
	}
	return res.Stdout, nil
}

func (k *Keyctl) Purge(ctx context.Context, name string) error {
	_, err := k.run(ctx, nil, "purge", "user", name)
	return err
}
