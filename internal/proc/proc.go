// Package proc runs helper programs with explicit argument vectors. Secrets
// travel on stdin or in the child's environment, never in argv.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Cmd describes one invocation.
type Cmd struct {
	Name  string
	Args  []string
	Stdin []byte   // written to the child's stdin when non-nil
	Env   []string // appended to the parent environment
	// NoCapture leaves stdout and stderr unattached. Tools that fork a
	// daemon holding the selection (xclip, wl-copy) keep captured pipes
	// open and would block Run until the selection changes hands.
	NoCapture bool
}

func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result carries the captured output. It is filled in even when the
// program exits non-zero, since some tools (rofi) report through exit codes.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// ExitError reports a non-zero exit.
type ExitError struct {
	Cmd    string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Cmd, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d; stderr=%s", e.Cmd, e.Code, e.Stderr)
}

// ExitCode extracts the exit status from err, or -1 if err is not an ExitError.
func ExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return -1
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (Result, error)
}

// Exec runs commands with os/exec.
type Exec struct{}

func (Exec) Run(ctx context.Context, c Cmd) (Result, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Result{}, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	var out, errb bytes.Buffer
	if !c.NoCapture {
		cmd.Stdout = &out
		cmd.Stderr = &errb
	}
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	err := cmd.Run()
	res := Result{Stdout: out.Bytes(), Stderr: errb.Bytes()}

	var ee *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &ee):
		res.ExitCode = ee.ExitCode()
		return res, &ExitError{Cmd: c.Name, Code: res.ExitCode, Stderr: strings.TrimSpace(errb.String())}
	default:
		return res, fmt.Errorf("%s: %w", c.Name, err)
	}
}
