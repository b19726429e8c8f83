package action

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/zach-source/bwrofi/internal/logging"
	"github.com/zach-source/bwrofi/internal/proc"
)

const (
	DefaultTitle = "Bitwarden"
	// DefaultIcon is a freedesktop icon name used when no icon file exists.
	DefaultIcon = "dialog-password"
)

// Notifier sends desktop notifications with notify-send.
type Notifier struct {
	runner proc.Runner
	title  string
	icon   string
	logger *log.Logger
}

// NewNotifier picks the first existing file of icons as the icon.
func NewNotifier(runner proc.Runner, icons []string, logger *log.Logger) *Notifier {
	n := &Notifier{
		runner: runner,
		title:  DefaultTitle,
		icon:   DefaultIcon,
		logger: logging.OrDiscard(logger).With("component", "notify"),
	}
	for _, icon := range icons {
		if st, err := os.Stat(icon); err == nil && st.Mode().IsRegular() {
			n.logger.Debug("found notification icon", "path", icon)
			n.icon = icon
			break
		}
	}
	return n
}

// Send shows msg. A zero timeout leaves expiry to the notification daemon.
func (n *Notifier) Send(ctx context.Context, msg string, timeout time.Duration) error {
	n.logger.Debug("sending desktop notification")
	args := []string{n.title, msg}
	if timeout > 0 {
		args = append(args, "--expire-time", strconv.FormatInt(timeout.Milliseconds(), 10))
	}
	args = append(args, "--icon", n.icon)

	if _, err := n.runner.Run(ctx, proc.Cmd{Name: "notify-send", Args: args}); err != nil {
		return fmt.Errorf("%w: %w", ErrNotify, err)
	}
	return nil
}
