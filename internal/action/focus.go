package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/zach-source/bwrofi/internal/executable"
	"github.com/zach-source/bwrofi/internal/logging"
	"github.com/zach-source/bwrofi/internal/proc"
)

// Focus lets the user click the window to type into, using slop to pick
// it and wmctrl to raise it.
type Focus struct {
	runner   proc.Runner
	enabled  bool
	slopArgs []string
	logger   *log.Logger
}

// NewFocus returns a Focus. It disables itself when slop or wmctrl is
// missing.
func NewFocus(runner proc.Runner, resolver *executable.Resolver, enabled bool, slopArgs []string, logger *log.Logger) *Focus {
	f := &Focus{
		runner:   runner,
		enabled:  enabled,
		slopArgs: slopArgs,
		logger:   logging.OrDiscard(logger).With("component", "focus"),
	}
	if !enabled {
		return f
	}
	for _, bin := range []string{"slop", "wmctrl"} {
		if !resolver.Installed(bin) {
			f.logger.Warn("disabling window selection, executable not installed", "binary", bin)
			f.enabled = false
		}
	}
	if f.enabled {
		f.logger.Info("window selection enabled")
	}
	return f
}

func (f *Focus) Enabled() bool { return f.enabled }

// SelectWindow asks the user to click a window and focuses it. It returns
// false when the selection was cancelled.
func (f *Focus) SelectWindow(ctx context.Context) (bool, error) {
	if !f.enabled {
		return true, nil
	}

	args := append([]string{"-f", "%i", "-t", "999999"}, f.slopArgs...)
	res, err := f.runner.Run(ctx, proc.Cmd{Name: "slop", Args: args})
	if err != nil {
		if proc.ExitCode(err) < 0 {
			return false, fmt.Errorf("%w: %w", ErrFocus, err)
		}
		f.logger.Info("window selection aborted")
		return false, nil
	}

	id := strings.TrimSpace(string(res.Stdout))
	if id == "" {
		f.logger.Info("window selection aborted")
		return false, nil
	}

	f.logger.Debug("focusing window", "id", id)
	if _, err := f.runner.Run(ctx, proc.Cmd{Name: "wmctrl", Args: []string{"-i", "-a", id}}); err != nil {
		return false, fmt.Errorf("%w: %w", ErrFocus, err)
	}
	return true, nil
}
