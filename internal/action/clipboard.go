package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"

	"github.com/zach-source/bwrofi/internal/executable"
	"github.com/zach-source/bwrofi/internal/logging"
	"github.com/zach-source/bwrofi/internal/proc"
	"github.com/zach-source/bwrofi/internal/secret"
)

// ClipboardCommands is the argv of each clipboard operation. Set reads
// the value on stdin; Clear gets an empty stdin.
type ClipboardCommands struct {
	Set   []string
	Clear []string
}

// ClipboardTools lists the supported clipboard programs per session type.
func ClipboardTools() executable.Spec[ClipboardCommands] {
	return executable.Spec[ClipboardCommands]{
		"wayland": {
			{Binary: "wl-copy", Value: ClipboardCommands{
				Set:   []string{"wl-copy"},
				Clear: []string{"wl-copy", "--clear"},
			}},
		},
		"x11": {
			{Binary: "xclip", Value: ClipboardCommands{
				Set:   []string{"xclip", "-selection", "clipboard"},
				Clear: []string{"xclip", "-selection", "clipboard"},
			}},
			{Binary: "xsel", Value: ClipboardCommands{
				Set:   []string{"xsel", "--clipboard", "--input"},
				Clear: []string{"xsel", "--clipboard", "--delete"},
			}},
		},
	}
}

// Clipboard writes to the system clipboard through the resolved tool, or
// through the platform clipboard when no session tool is installed.
type Clipboard struct {
	runner proc.Runner
	cmds   ClipboardCommands
	// writeAll is used instead of cmds when no tool resolved.
	writeAll func(string) error
	logger   *log.Logger
}

// NewClipboard resolves the clipboard tool. An unsupported environment
// falls back to github.com/atotto/clipboard (pbcopy, clip.exe, ...).
func NewClipboard(runner proc.Runner, resolver *executable.Resolver, logger *log.Logger) (*Clipboard, error) {
	logger = logging.OrDiscard(logger).With("component", "clipboard")

	res, err := executable.Resolve(resolver, "clipboard", ClipboardTools())
	switch {
	case err == nil:
		return &Clipboard{runner: runner, cmds: res.Value, logger: logger}, nil
	case errors.Is(err, executable.ErrUnsupportedEnvironment) && !clipboard.Unsupported:
		logger.Info("no session clipboard tool, using platform clipboard")
		return &Clipboard{runner: runner, writeAll: clipboard.WriteAll, logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: %w", ErrClipboard, err)
	}
}

// Set copies value to the clipboard.
func (c *Clipboard) Set(ctx context.Context, value *secret.Secret) error {
	c.logger.Debug("setting clipboard")
	if c.writeAll != nil {
		if err := c.writeAll(value.Reveal()); err != nil {
			return fmt.Errorf("%w: %w", ErrClipboard, err)
		}
		return nil
	}
	return c.run(ctx, c.cmds.Set, value.Bytes())
}

// Clear empties the clipboard.
func (c *Clipboard) Clear(ctx context.Context) error {
	c.logger.Info("clearing clipboard")
	if c.writeAll != nil {
		if err := c.writeAll(""); err != nil {
			return fmt.Errorf("%w: %w", ErrClipboard, err)
		}
		return nil
	}
	return c.run(ctx, c.cmds.Clear, []byte{})
}

func (c *Clipboard) run(ctx context.Context, argv []string, stdin []byte) error {
	if len(argv) == 0 {
		return fmt.Errorf("%w: no clipboard command", ErrClipboard)
	}
	_, err := c.runner.Run(ctx, proc.Cmd{Name: argv[0], Args: argv[1:], Stdin: stdin, NoCapture: true})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClipboard, err)
	}
	return nil
}
