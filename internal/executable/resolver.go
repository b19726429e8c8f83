// Package executable picks the helper program (clipboard tool, keyboard
// emulator, window picker) that fits the running display session.
package executable

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/zach-source/bwrofi/internal/logging"
)

// SessionTypeEnv names the variable that carries the display-server family.
const SessionTypeEnv = "XDG_SESSION_TYPE"

var (
	// ErrNoExecutable means the session type is known but none of its
	// candidates is installed.
	ErrNoExecutable = errors.New("no executable found")
	// ErrUnsupportedEnvironment means the session type is unknown and no
	// candidate of any session type is installed. Callers may fall back.
	ErrUnsupportedEnvironment = errors.New("unsupported environment")
	// ErrAmbiguous means the session type is unknown and installed
	// candidates belong to more than one session type.
	ErrAmbiguous = errors.New("ambiguous executable")
)

// Candidate pairs a binary looked up on PATH with the value handed back
// when it is chosen, e.g. an argv template or a per-action command table.
type Candidate[T any] struct {
	Binary string
	Value  T
}

// Spec maps a session type (x11, wayland, ...) to its candidates in
// order of preference.
type Spec[T any] map[string][]Candidate[T]

// Resolved is the outcome of a successful resolution.
type Resolved[T any] struct {
	Tag    string // session type the candidate belongs to
	Binary string
	Path   string // absolute path found on PATH
	Value  T
}

// ResolutionError reports which tool failed to resolve and why.
type ResolutionError struct {
	Tool  string
	Tag   string
	Found []string // tag:binary pairs seen while guessing
	Err   error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "resolve %s: %v", e.Tool, e.Err)
	if e.Tag != "" {
		fmt.Fprintf(&b, " (session type %q)", e.Tag)
	}
	if len(e.Found) > 0 {
		fmt.Fprintf(&b, " [found %s]", strings.Join(e.Found, ", "))
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Resolver reads the environment and PATH. The zero value uses the real
// process environment.
type Resolver struct {
	Getenv   func(string) string
	LookPath func(string) (string, error)
	Logger   *log.Logger
}

// NewResolver returns a Resolver bound to the process environment.
func NewResolver(logger *log.Logger) *Resolver {
	return &Resolver{Getenv: os.Getenv, LookPath: exec.LookPath, Logger: logger}
}

func (r *Resolver) getenv(key string) string {
	if r.Getenv == nil {
		return os.Getenv(key)
	}
	return r.Getenv(key)
}

func (r *Resolver) lookPath(bin string) (string, bool) {
	look := r.LookPath
	if look == nil {
		look = exec.LookPath
	}
	path, err := look(bin)
	return path, err == nil
}

// SessionType returns the normalized display session tag, or "".
func (r *Resolver) SessionType() string {
	return strings.ToLower(strings.TrimSpace(r.getenv(SessionTypeEnv)))
}

type found[T any] struct {
	tag       string
	candidate Candidate[T]
	path      string
}

// Resolve selects one installed candidate for tool from spec.
//
// A session type present in spec is trusted: its candidates are scanned
// in order and the first installed one wins. Otherwise every installed
// candidate is collected; if they all belong to one session type the
// first of them wins, and if they span several the call fails with
// ErrAmbiguous rather than guess.
func Resolve[T any](r *Resolver, tool string, spec Spec[T]) (Resolved[T], error) {
	logger := logging.OrDiscard(r.Logger).With("tool", tool)
	tag := r.SessionType()

	if candidates, ok := spec[tag]; ok && tag != "" {
		logger.Debug("detected session type", "session", tag)
		for _, c := range candidates {
			if path, ok := r.lookPath(c.Binary); ok {
				logger.Debug("found executable", "binary", c.Binary, "path", path)
				return Resolved[T]{Tag: tag, Binary: c.Binary, Path: path, Value: c.Value}, nil
			}
		}
		logger.Error("no executable found", "session", tag)
		return Resolved[T]{}, &ResolutionError{Tool: tool, Tag: tag, Err: ErrNoExecutable}
	}

	logger.Warn("session type not recognized, guessing from installed executables", "session", tag)

	tags := make([]string, 0, len(spec))
	for t := range spec {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	var detected []found[T]
	sessions := map[string]struct{}{}
	for _, t := range tags {
		for _, c := range spec[t] {
			if path, ok := r.lookPath(c.Binary); ok {
				detected = append(detected, found[T]{tag: t, candidate: c, path: path})
				sessions[t] = struct{}{}
			}
		}
	}

	switch len(sessions) {
	case 0:
		logger.Debug("no supported executables found")
		return Resolved[T]{}, &ResolutionError{Tool: tool, Tag: tag, Err: ErrUnsupportedEnvironment}
	case 1:
		d := detected[0]
		logger.Debug("found executable", "binary", d.candidate.Binary, "session", d.tag)
		return Resolved[T]{Tag: d.tag, Binary: d.candidate.Binary, Path: d.path, Value: d.candidate.Value}, nil
	default:
		pairs := make([]string, len(detected))
		for i, d := range detected {
			pairs[i] = d.tag + ":" + d.candidate.Binary
		}
		logger.Warn("too many supported executables to make a guess", "found", pairs)
		return Resolved[T]{}, &ResolutionError{Tool: tool, Tag: tag, Found: pairs, Err: ErrAmbiguous}
	}
}

// Installed reports whether bin is on PATH.
func (r *Resolver) Installed(bin string) bool {
	_, ok := r.lookPath(bin)
	return ok
}
