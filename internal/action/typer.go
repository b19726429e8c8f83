package action

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/zach-source/bwrofi/internal/executable"
	"github.com/zach-source/bwrofi/internal/logging"
	"github.com/zach-source/bwrofi/internal/proc"
)

// KeyboardCommands is the argv prefix of each keyboard operation. Type
// reads the text on stdin; Key gets the key name appended.
type KeyboardCommands struct {
	Type []string
	Key  []string
}

// KeyboardTools lists the supported keyboard emulators per session type.
func KeyboardTools() executable.Spec[KeyboardCommands] {
	return executable.Spec[KeyboardCommands]{
		"x11": {
			{Binary: "xdotool", Value: KeyboardCommands{
				Type: []string{"xdotool", "type", "--clearmodifiers", "--file", "-"},
				Key:  []string{"xdotool", "key", "--clearmodifiers"},
			}},
		},
		"wayland": {
			{Binary: "ydotool", Value: KeyboardCommands{
				Type: []string{"ydotool", "type", "--file", "-"},
				Key:  []string{"ydotool", "key"},
			}},
		},
	}
}

// Typer emulates keyboard input.
type Typer struct {
	runner proc.Runner
	cmds   KeyboardCommands
	logger *log.Logger
}

func NewTyper(runner proc.Runner, resolver *executable.Resolver, logger *log.Logger) (*Typer, error) {
	res, err := executable.Resolve(resolver, "autotype", KeyboardTools())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTyping, err)
	}
	return &Typer{
		runner: runner,
		cmds:   res.Value,
		logger: logging.OrDiscard(logger).With("component", "autotype"),
	}, nil
}

// Type types text into the focused window.
func (t *Typer) Type(ctx context.Context, text []byte) error {
	t.logger.Debug("emulating keyboard input", "action", "type")
	argv := t.cmds.Type
	if _, err := t.runner.Run(ctx, proc.Cmd{Name: argv[0], Args: argv[1:], Stdin: text}); err != nil {
		return fmt.Errorf("%w: %w", ErrTyping, err)
	}
	return nil
}

// Key presses a single named key, e.g. "Tab".
func (t *Typer) Key(ctx context.Context, key string) error {
	t.logger.Debug("emulating keyboard input", "action", "key", "key", key)
	argv := append(append([]string(nil), t.cmds.Key...), key)
	if _, err := t.runner.Run(ctx, proc.Cmd{Name: argv[0], Args: argv[1:]}); err != nil {
		return fmt.Errorf("%w: %w", ErrTyping, err)
	}
	return nil
}
