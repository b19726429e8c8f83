// Package controller runs one menu session: it unlocks the vault, lets
// the user navigate between list modes and performs the item action the
// user picks.
package controller

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/zach-source/bwrofi/internal/keybind"
	"github.com/zach-source/bwrofi/internal/logging"
	"github.com/zach-source/bwrofi/internal/menu"
	"github.com/zach-source/bwrofi/internal/secret"
	"github.com/zach-source/bwrofi/internal/vault"
)

var (
	ErrNoTOTP     = errors.New("item has no TOTP")
	ErrNoLogin    = errors.New("item has no login")
	ErrNoTyper    = errors.New("no keyboard emulator available")
	errAborted    = errors.New("aborted")
	errNoSelected = errors.New("selected entry matches no item")
)

type Menu interface {
	ShowList(ctx context.Context, labels []string, prompt string) (menu.Selection, error)
	SecretPrompt(ctx context.Context, prompt string) (*secret.Secret, error)
	ShowError(ctx context.Context, msg string) error
}

type Sessions interface {
	HasKey(ctx context.Context) bool
	Unlock(ctx context.Context, password *secret.Secret) error
	Key(ctx context.Context) (*secret.Secret, error)
}

type Vault interface {
	SetKey(key *secret.Secret)
	Load(ctx context.Context) (int, error)
	Sync(ctx context.Context) (int, error)
	Items() []vault.Item
	Folders() []vault.Folder
	ByName(name string) []vault.Item
	FolderByName(name string) (vault.Folder, bool)
	Full(ctx context.Context, it vault.Item) (vault.Item, error)
	TOTP(ctx context.Context, it vault.Item) (string, error)
	SetFilter(f *vault.Folder)
	Filter() *vault.Folder
}

type Clipboard interface {
	Set(ctx context.Context, value *secret.Secret) error
	Clear(ctx context.Context) error
}

type Typer interface {
	Type(ctx context.Context, text []byte) error
	Key(ctx context.Context, key string) error
}

type Focuser interface {
	Enabled() bool
	SelectWindow(ctx context.Context) (bool, error)
}

type Notifier interface {
	Send(ctx context.Context, msg string, timeout time.Duration) error
}

// Deps are the collaborators of a Controller. Typer may be nil when no
// keyboard emulator is installed; typing actions then fail.
type Deps struct {
	Menu      Menu
	Sessions  Sessions
	Vault     Vault
	Clipboard Clipboard
	Typer     Typer
	Focus     Focuser
	Notifier  Notifier
}

type Options struct {
	DefaultAction  keybind.ItemAction
	InitialMode    keybind.WindowMode
	Prompt         string
	PasswordPrompt string
	GroupFields    []Field
	URIIgnore      []string
	// ClearAfter is how long copied values stay on the clipboard. A
	// negative value keeps them.
	ClearAfter time.Duration
	StartDelay time.Duration
	KeyDelay   time.Duration
}

// DefaultURIIgnore lists URI values that do not identify a site.
var DefaultURIIgnore = []string{"", "None", "http://", "https://"}

func DefaultOptions() Options {
	return Options{
		DefaultAction:  keybind.ActionCopy,
		InitialMode:    keybind.ModeNames,
		Prompt:         "Bitwarden",
		PasswordPrompt: "Master Password",
		GroupFields:    mustFields("login.username"),
		URIIgnore:      DefaultURIIgnore,
		ClearAfter:     5 * time.Second,
		StartDelay:     time.Second,
		KeyDelay:       200 * time.Millisecond,
	}
}

// Status is how a session ended.
type Status int

const (
	StatusOK Status = iota
	StatusAborted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAborted:
		return "aborted"
	case StatusFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Outcome reports what a session did.
type Outcome struct {
	Status Status
	Action keybind.ItemAction
	Item   string // name of the acted-on item
	Err    error
}

type Controller struct {
	deps   Deps
	opts   Options
	logger *log.Logger
	sleep  func(ctx context.Context, d time.Duration) error

	uris   Projection
	logins Projection
	group  Projection
}

func New(deps Deps, opts Options, logger *log.Logger) *Controller {
	if opts.Prompt == "" {
		opts.Prompt = "Bitwarden"
	}
	if opts.PasswordPrompt == "" {
		opts.PasswordPrompt = "Master Password"
	}
	if len(opts.GroupFields) == 0 {
		opts.GroupFields = mustFields("login.username")
	}
	if opts.URIIgnore == nil {
		opts.URIIgnore = DefaultURIIgnore
	}
	return &Controller{
		deps:   deps,
		opts:   opts,
		logger: logging.OrDiscard(logger).With("component", "controller"),
		sleep:  sleepContext,
		uris:   NewProjection(mustFields("login.uris.uri"), opts.URIIgnore),
		logins: NewProjection(mustFields("name", "login.username"), nil),
		group:  NewProjection(opts.GroupFields, nil),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run unlocks the vault, navigates until the user picks an item action or
// aborts, and performs the action. Failures are shown in an error dialog
// before Run returns.
func (c *Controller) Run(ctx context.Context) Outcome {
	c.logger.Info("application has been launched")

	out := c.run(ctx)
	switch {
	case out.Err == nil:
	case errors.Is(out.Err, errAborted), errors.Is(out.Err, context.Canceled):
		c.logger.Info("selection has been aborted")
		return Outcome{Status: StatusAborted}
	default:
		out.Status = StatusFailed
		c.logger.Error("session failed", "err", out.Err)
		if err := c.deps.Menu.ShowError(ctx, out.Err.Error()); err != nil {
			c.logger.Warn("could not show error dialog", "err", err)
		}
	}
	return out
}

func (c *Controller) run(ctx context.Context) Outcome {
	if err := c.unlock(ctx, false); err != nil {
		return Outcome{Err: err}
	}
	if err := c.load(ctx); err != nil {
		return Outcome{Err: err}
	}

	action, item, err := c.navigate(ctx)
	if err != nil {
		return Outcome{Err: err}
	}

	out := Outcome{Status: StatusOK, Action: action, Item: item.Name}
	out.Err = c.execute(ctx, action, item)
	return out
}

// unlock prompts for the master password unless a session key is
// available, then hands the key to the vault.
func (c *Controller) unlock(ctx context.Context, force bool) error {
	c.logger.Info("unlocking vault", "force", force)
	if force || !c.deps.Sessions.HasKey(ctx) {
		pw, err := c.deps.Menu.SecretPrompt(ctx, c.opts.PasswordPrompt)
		if errors.Is(err, menu.ErrAborted) {
			return errAborted
		}
		if err != nil {
			return err
		}
		defer pw.Zero()
		if err := c.deps.Sessions.Unlock(ctx, pw); err != nil {
			return err
		}
	}

	key, err := c.deps.Sessions.Key(ctx)
	if err != nil {
		return err
	}
	c.deps.Vault.SetKey(key)
	return nil
}

// load loads the vault. A failed or empty load is retried once after a
// fresh unlock, since the stored key may have been invalidated by running
// bw by hand.
func (c *Controller) load(ctx context.Context) error {
	n, err := c.deps.Vault.Load(ctx)
	if err == nil && n > 0 {
		return nil
	}
	c.logger.Warn("first attempt at loading vault items failed", "err", err, "count", n)

	if err := c.unlock(ctx, true); err != nil {
		return err
	}
	n, err = c.deps.Vault.Load(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		c.logger.Error("second attempt at loading vault items failed")
		return vault.ErrNoItems
	}
	return nil
}
