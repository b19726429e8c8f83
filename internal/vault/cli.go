package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zach-source/bwrofi/internal/proc"
	"github.com/zach-source/bwrofi/internal/secret"
)

const (
	// PasswordEnv carries the master password to `bw unlock`.
	PasswordEnv = "BWROFI_PASSWORD"
	// SessionEnv carries the session key to every other bw command.
	SessionEnv = "BW_SESSION"
)

// CLI drives the Bitwarden `bw` command line client.
type CLI struct {
	Runner proc.Runner
	Binary string
}

func NewCLI(runner proc.Runner) *CLI {
	return &CLI{Runner: runner, Binary: "bw"}
}

func (c *CLI) Name() string { return "bwcli" }

func (c *CLI) run(ctx context.Context, env []string, args ...string) ([]byte, error) {
	args = append(args, "--nointeraction")
	cmd := proc.Cmd{Name: c.Binary, Args: args, Env: env}
	res, err := c.Runner.Run(ctx, cmd)
	if err != nil {
		return res.Stdout, fmt.Errorf("bw %s failed: %w; output=%s",
			args[0], err, strings.TrimSpace(string(res.Stdout)))
	}
	return res.Stdout, nil
}

func sessionEnv(key *secret.Secret) ([]string, error) {
	if key.IsEmpty() {
		return nil, errors.New("vault is locked: no session key")
	}
	return []string{SessionEnv + "=" + key.Reveal()}, nil
}

// validateID rejects ids that would be parsed as flags.
func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("empty item id")
	}
	if strings.HasPrefix(id, "-") {
		return errors.New("invalid item id: cannot start with dash")
	}
	return nil
}

func (c *CLI) Items(ctx context.Context, key *secret.Secret) ([]Item, error) {
	env, err := sessionEnv(key)
	if err != nil {
		return nil, err
	}
	out, err := c.run(ctx, env, "list", "items")
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(out, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}

func (c *CLI) Folders(ctx context.Context, key *secret.Secret) ([]Folder, error) {
	env, err := sessionEnv(key)
	if err != nil {
		return nil, err
	}
	out, err := c.run(ctx, env, "list", "folders")
	if err != nil {
		return nil, err
	}
	var folders []Folder
	if err := json.Unmarshal(out, &folders); err != nil {
		return nil, fmt.Errorf("decode folders: %w", err)
	}
	return folders, nil
}

func (c *CLI) Item(ctx context.Context, key *secret.Secret, id string) (Item, error) {
	if err := validateID(id); err != nil {
		return Item{}, err
	}
	env, err := sessionEnv(key)
	if err != nil {
		return Item{}, err
	}
	out, err := c.run(ctx, env, "get", "item", id)
	if err != nil {
		return Item{}, err
	}
	var it Item
	if err := json.Unmarshal(out, &it); err != nil {
		return Item{}, fmt.Errorf("decode item %s: %w", id, err)
	}
	return it, nil
}

// TOTP runs `bw get totp`. bw fails when the login has no TOTP seed; that
// case is reported as an empty code.
func (c *CLI) TOTP(ctx context.Context, key *secret.Secret, id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	env, err := sessionEnv(key)
	if err != nil {
		return "", err
	}
	out, err := c.run(ctx, env, "get", "totp", id)
	if err != nil {
		if bytes.Contains(bytes.ToLower(out), []byte("no totp")) ||
			strings.Contains(strings.ToLower(err.Error()), "no totp") {
			return "", nil
		}
		return "", err
	}
	return strings.TrimRight(string(out), "\r\n"), nil
}

func (c *CLI) Sync(ctx context.Context, key *secret.Secret) error {
	env, err := sessionEnv(key)
	if err != nil {
		return err
	}
	_, err = c.run(ctx, env, "sync")
	return err
}

// Unlock runs `bw unlock`, handing the password over through the child's
// environment so it never shows up in the process list.
func (c *CLI) Unlock(ctx context.Context, password *secret.Secret) ([]byte, error) {
	if password.IsEmpty() {
		return nil, errors.New("empty master password")
	}
	env := []string{PasswordEnv + "=" + password.Reveal()}
	return c.run(ctx, env, "unlock", "--passwordenv", PasswordEnv)
}

func (c *CLI) Lock(ctx context.Context) error {
	_, err := c.run(ctx, nil, "lock")
	return err
}
