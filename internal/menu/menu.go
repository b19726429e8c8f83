// Package menu drives rofi in dmenu mode: item lists with custom key
// bindings, the master password prompt and error dialogs.
package menu

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/zach-source/bwrofi/internal/keybind"
	"github.com/zach-source/bwrofi/internal/logging"
	"github.com/zach-source/bwrofi/internal/proc"
	"github.com/zach-source/bwrofi/internal/secret"
)

// ErrAborted is returned by SecretPrompt when the user closes the prompt.
var ErrAborted = errors.New("prompt aborted")

// rofi exit statuses
const (
	exitAccept     = 0
	exitCancel     = 1
	exitCustomBase = 10
)

// Selection is the outcome of one list.
type Selection struct {
	Label string
	// Target is the bound action or mode of the key that accepted the
	// selection, or nil for the default accept key.
	Target  keybind.Target
	Aborted bool
}

type Options struct {
	Binary string
	// ExtraArgs are appended to every list and prompt invocation.
	ExtraArgs []string
	// HideHints drops the -mesg banner of key binding hints.
	HideHints bool
}

// Rofi runs rofi through a proc.Runner.
type Rofi struct {
	runner   proc.Runner
	bindings *keybind.Registry
	opts     Options
	logger   *log.Logger
}

func NewRofi(runner proc.Runner, bindings *keybind.Registry, opts Options, logger *log.Logger) *Rofi {
	if opts.Binary == "" {
		opts.Binary = "rofi"
	}
	if bindings == nil {
		bindings = keybind.NewRegistry()
	}
	return &Rofi{
		runner:   runner,
		bindings: bindings,
		opts:     opts,
		logger:   logging.OrDiscard(logger).With("component", "menu"),
	}
}

// extend appends the user's extra arguments and the custom key bindings.
func (r *Rofi) extend(args []string) []string {
	args = append(args, r.opts.ExtraArgs...)
	for i, b := range r.bindings.Bindings() {
		args = append(args, "-kb-custom-"+strconv.Itoa(i+1), b.Key)
	}
	return args
}

// ShowList shows labels and waits for a pick.
func (r *Rofi) ShowList(ctx context.Context, labels []string, prompt string) (Selection, error) {
	args := r.extend([]string{"-dmenu", "-p", prompt, "-i", "-no-custom"})
	if hints := r.bindings.Hints(); hints != "" && !r.opts.HideHints {
		args = append(args, "-mesg", hints)
	}

	r.logger.Debug("launching item list", "prompt", prompt, "entries", len(labels))
	res, err := r.runner.Run(ctx, proc.Cmd{
		Name:  r.opts.Binary,
		Args:  args,
		Stdin: []byte(strings.Join(labels, "\n")),
	})
	if err != nil && proc.ExitCode(err) < 0 {
		return Selection{}, fmt.Errorf("run rofi: %w", err)
	}

	label := strings.TrimRight(string(res.Stdout), "\r\n")
	switch code := res.ExitCode; {
	case code == exitAccept:
		return Selection{Label: label}, nil
	case code == exitCancel:
		r.logger.Debug("item list closed")
		return Selection{Aborted: true}, nil
	default:
		b, ok := r.bindings.At(code - exitCustomBase)
		if !ok {
			r.logger.Warn("unknown rofi exit status", "code", code)
			return Selection{Aborted: true}, nil
		}
		return Selection{Label: label, Target: b.Target}, nil
	}
}

// SecretPrompt asks for a password with input masking. It returns
// ErrAborted when the prompt is closed.
func (r *Rofi) SecretPrompt(ctx context.Context, prompt string) (*secret.Secret, error) {
	args := r.extend([]string{"-dmenu", "-p", prompt, "-password", "-lines", "0"})

	r.logger.Info("launching password prompt")
	res, err := r.runner.Run(ctx, proc.Cmd{Name: r.opts.Binary, Args: args, Stdin: []byte{}})
	if err != nil {
		if proc.ExitCode(err) < 0 {
			return nil, fmt.Errorf("run rofi: %w", err)
		}
		r.logger.Info("password prompt closed")
		return nil, ErrAborted
	}
	// rofi terminates the entry with one newline; anything else belongs
	// to the password.
	out := bytes.TrimSuffix(res.Stdout, []byte("\n"))
	out = bytes.TrimSuffix(out, []byte("\r"))
	pw := secret.New(string(out))
	clear(res.Stdout)
	return pw, nil
}

// ShowError shows msg in a rofi error dialog.
func (r *Rofi) ShowError(ctx context.Context, msg string) error {
	_, err := r.runner.Run(ctx, proc.Cmd{Name: r.opts.Binary, Args: []string{"-e", msg}})
	if err != nil {
		return fmt.Errorf("show error dialog: %w", err)
	}
	return nil
}
