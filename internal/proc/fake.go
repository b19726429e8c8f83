package proc

import (
	"context"
	"strings"
	"sync"
)

// Fake records every command and answers from canned responses keyed by
// the command line prefix ("bw unlock", "keyctl request user bw_session").
// The longest matching prefix wins; unmatched commands succeed silently.
type Fake struct {
	mu        sync.Mutex
	Calls     []Cmd
	responses map[string]fakeResponse
}

type fakeResponse struct {
	stdout string
	code   int
	err    error
}

func NewFake() *Fake {
	return &Fake{responses: map[string]fakeResponse{}}
}

// Respond sets the output for commands starting with prefix.
func (f *Fake) Respond(prefix, stdout string) *Fake {
	return f.set(prefix, fakeResponse{stdout: stdout})
}

// Fail makes commands starting with prefix exit with code.
func (f *Fake) Fail(prefix string, code int, stdout string) *Fake {
	return f.set(prefix, fakeResponse{stdout: stdout, code: code})
}

// Error makes commands starting with prefix fail to start.
func (f *Fake) Error(prefix string, err error) *Fake {
	return f.set(prefix, fakeResponse{err: err})
}

func (f *Fake) set(prefix string, r fakeResponse) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[prefix] = r
	return f
}

func (f *Fake) Run(ctx context.Context, c Cmd) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, c)

	line := c.String()
	best, found := "", false
	for prefix := range f.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) >= len(best) {
			best, found = prefix, true
		}
	}
	if !found {
		return Result{}, nil
	}

	r := f.responses[best]
	if r.err != nil {
		return Result{}, r.err
	}
	res := Result{Stdout: []byte(r.stdout), ExitCode: r.code}
	if r.code != 0 {
		return res, &ExitError{Cmd: c.Name, Code: r.code}
	}
	return res, nil
}

// Lines returns every recorded command line in order.
func (f *Fake) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.String()
	}
	return out
}

// Count returns how many recorded command lines start with prefix.
func (f *Fake) Count(prefix string) int {
	n := 0
	for _, l := range f.Lines() {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

// Last returns the most recent command starting with prefix.
func (f *Fake) Last(prefix string) (Cmd, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Calls) - 1; i >= 0; i-- {
		if strings.HasPrefix(f.Calls[i].String(), prefix) {
			return f.Calls[i], true
		}
	}
	return Cmd{}, false
}
