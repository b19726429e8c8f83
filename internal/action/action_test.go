package action

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/zach-source/bwrofi/internal/executable"
	"github.com/zach-source/bwrofi/internal/logging"
	"github.com/zach-source/bwrofi/internal/proc"
	"github.com/zach-source/bwrofi/internal/secret"
)

func fakeResolver(session string, installed ...string) *executable.Resolver {
	return &executable.Resolver{
		Getenv: func(key string) string {
			if key == executable.SessionTypeEnv {
				return session
			}
			return ""
		},
		LookPath: func(bin string) (string, error) {
			if slices.Contains(installed, bin) {
				return "/usr/bin/" + bin, nil
			}
			return "", exec.ErrNotFound
		},
	}
}

func TestClipboard_Tools(t *testing.T) {
	tests := []struct {
		name      string
		session   string
		installed []string
		wantSet   string
		wantClear string
	}{
		{"wayland", "wayland", []string{"wl-copy"}, "wl-copy", "wl-copy --clear"},
		{"xclip", "x11", []string{"xclip", "xsel"}, "xclip -selection clipboard", "xclip -selection clipboard"},
		{"xsel", "x11", []string{"xsel"}, "xsel --clipboard --input", "xsel --clipboard --delete"},
		{"guessed", "", []string{"xsel"}, "xsel --clipboard --input", "xsel --clipboard --delete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := proc.NewFake()
			c, err := NewClipboard(runner, fakeResolver(tt.session, tt.installed...), nil)
			if err != nil {
				t.Fatalf("NewClipboard() error = %v", err)
			}
			ctx := context.Background()
			if err := c.Set(ctx, secret.New("pa55")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := c.Clear(ctx); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}

			if len(runner.Calls) != 2 {
				t.Fatalf("commands = %v", runner.Lines())
			}
			set, clear := runner.Calls[0], runner.Calls[1]
			if set.String() != tt.wantSet || string(set.Stdin) != "pa55" || !set.NoCapture {
				t.Errorf("set = %q stdin=%q nocapture=%v", set, set.Stdin, set.NoCapture)
			}
			if clear.String() != tt.wantClear || len(clear.Stdin) != 0 {
				t.Errorf("clear = %q stdin=%q", clear, clear.Stdin)
			}
		})
	}
}

func TestClipboard_ResolutionErrors(t *testing.T) {
	_, err := NewClipboard(proc.NewFake(), fakeResolver("x11"), nil)
	if !errors.Is(err, ErrClipboard) || !errors.Is(err, executable.ErrNoExecutable) {
		t.Errorf("NewClipboard() error = %v", err)
	}

	_, err = NewClipboard(proc.NewFake(), fakeResolver("", "wl-copy", "xclip"), nil)
	if !errors.Is(err, executable.ErrAmbiguous) {
		t.Errorf("NewClipboard() error = %v, want ErrAmbiguous", err)
	}
}

func TestClipboard_Fallback(t *testing.T) {
	var got []string
	c := &Clipboard{
		writeAll: func(s string) error { got = append(got, s); return nil },
		logger:   logging.Discard(),
	}

	ctx := context.Background()
	if err := c.Set(ctx, secret.New("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if !slices.Equal(got, []string{"v", ""}) {
		t.Errorf("writes = %q", got)
	}
}

func TestClipboard_CommandFailure(t *testing.T) {
	runner := proc.NewFake().Fail("wl-copy", 1, "")
	c, _ := NewClipboard(runner, fakeResolver("wayland", "wl-copy"), nil)
	if err := c.Set(context.Background(), secret.New("x")); !errors.Is(err, ErrClipboard) {
		t.Errorf("Set() error = %v, want ErrClipboard", err)
	}
}

func TestTyper(t *testing.T) {
	tests := []struct {
		session  string
		binary   string
		wantType string
		wantKey  string
	}{
		{"x11", "xdotool", "xdotool type --clearmodifiers --file -", "xdotool key --clearmodifiers Tab"},
		{"wayland", "ydotool", "ydotool type --file -", "ydotool key Tab"},
	}

	for _, tt := range tests {
		t.Run(tt.session, func(t *testing.T) {
			runner := proc.NewFake()
			typer, err := NewTyper(runner, fakeResolver(tt.session, tt.binary), nil)
			if err != nil {
				t.Fatalf("NewTyper() error = %v", err)
			}
			ctx := context.Background()
			if err := typer.Type(ctx, []byte("alice")); err != nil {
				t.Fatalf("Type() error = %v", err)
			}
			if err := typer.Key(ctx, "Tab"); err != nil {
				t.Fatalf("Key() error = %v", err)
			}

			lines := runner.Lines()
			if len(lines) != 2 || lines[0] != tt.wantType || lines[1] != tt.wantKey {
				t.Errorf("commands = %q", lines)
			}
			if string(runner.Calls[0].Stdin) != "alice" {
				t.Errorf("typed %q on stdin", runner.Calls[0].Stdin)
			}
		})
	}
}

func TestTyper_Errors(t *testing.T) {
	if _, err := NewTyper(proc.NewFake(), fakeResolver("wayland"), nil); !errors.Is(err, ErrTyping) {
		t.Errorf("NewTyper() error = %v, want ErrTyping", err)
	}

	runner := proc.NewFake().Fail("xdotool", 1, "")
	typer, _ := NewTyper(runner, fakeResolver("x11", "xdotool"), nil)
	if err := typer.Type(context.Background(), []byte("x")); !errors.Is(err, ErrTyping) {
		t.Errorf("Type() error = %v, want ErrTyping", err)
	}
}

func TestFocus(t *testing.T) {
	ctx := context.Background()

	t.Run("selects and focuses", func(t *testing.T) {
		runner := proc.NewFake().Respond("slop", "0x3a00007\n")
		f := NewFocus(runner, fakeResolver("x11", "slop", "wmctrl"), true, []string{"-c", "1,0,0"}, nil)
		ok, err := f.SelectWindow(ctx)
		if err != nil || !ok {
			t.Fatalf("SelectWindow() = %v, %v", ok, err)
		}
		want := []string{"slop -f %i -t 999999 -c 1,0,0", "wmctrl -i -a 0x3a00007"}
		if !slices.Equal(runner.Lines(), want) {
			t.Errorf("commands = %q, want %q", runner.Lines(), want)
		}
	})

	t.Run("aborted selection", func(t *testing.T) {
		runner := proc.NewFake().Fail("slop", 1, "")
		f := NewFocus(runner, fakeResolver("x11", "slop", "wmctrl"), true, nil, nil)
		ok, err := f.SelectWindow(ctx)
		if err != nil || ok {
			t.Errorf("SelectWindow() = %v, %v, want false, nil", ok, err)
		}
		if runner.Count("wmctrl") != 0 {
			t.Error("wmctrl ran after aborted selection")
		}
	})

	t.Run("focus failure", func(t *testing.T) {
		runner := proc.NewFake().Respond("slop", "42").Fail("wmctrl", 1, "")
		f := NewFocus(runner, fakeResolver("x11", "slop", "wmctrl"), true, nil, nil)
		if _, err := f.SelectWindow(ctx); !errors.Is(err, ErrFocus) {
			t.Errorf("SelectWindow() error = %v, want ErrFocus", err)
		}
	})

	t.Run("disabled when tools missing", func(t *testing.T) {
		runner := proc.NewFake()
		f := NewFocus(runner, fakeResolver("x11", "slop"), true, nil, nil)
		if f.Enabled() {
			t.Error("Enabled() = true without wmctrl")
		}
		ok, err := f.SelectWindow(ctx)
		if err != nil || !ok || len(runner.Calls) != 0 {
			t.Errorf("SelectWindow() = %v, %v, calls %v", ok, err, runner.Lines())
		}
	})
}

func TestNotifier(t *testing.T) {
	dir := t.TempDir()
	icon := filepath.Join(dir, "icon.svg")
	if err := os.WriteFile(icon, []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := proc.NewFake()
	n := NewNotifier(runner, []string{filepath.Join(dir, "missing.png"), icon}, nil)
	if err := n.Send(context.Background(), "Copied password", 5*time.Second); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	cmd, _ := runner.Last("notify-send")
	want := []string{"Bitwarden", "Copied password", "--expire-time", "5000", "--icon", icon}
	if !slices.Equal(cmd.Args, want) {
		t.Errorf("args = %q, want %q", cmd.Args, want)
	}

	runner = proc.NewFake().Fail("notify-send", 1, "")
	n = NewNotifier(runner, nil, nil)
	err := n.Send(context.Background(), "x", 0)
	if !errors.Is(err, ErrNotify) {
		t.Errorf("Send() error = %v, want ErrNotify", err)
	}
	cmd, _ = runner.Last("notify-send")
	if !slices.Equal(cmd.Args, []string{"Bitwarden", "x", "--icon", DefaultIcon}) {
		t.Errorf("args = %q", cmd.Args)
	}
}
