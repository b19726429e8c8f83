package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew_LevelFollowsVerbose(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Options{Verbose: tt.verbose, Stderr: &buf})

			l.Debug("debug line")
			l.Info("info line")

			out := buf.String()
			if !strings.Contains(out, "info line") {
				t.Errorf("missing info output; got: %s", out)
			}
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug output present = %v, want %v; got: %s", got, tt.wantDebug, out)
			}
		})
	}
}

func TestNew_FansOutToFile(t *testing.T) {
	var stderr, file bytes.Buffer
	l := New(Options{Stderr: &stderr, File: &file})

	l.Warn("loading items failed", "attempt", 1)

	for name, buf := range map[string]*bytes.Buffer{"stderr": &stderr, "file": &file} {
		if !strings.Contains(buf.String(), "loading items failed") {
			t.Errorf("%s sink missing message; got: %s", name, buf.String())
		}
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := Discard()
	if OrDiscard(l) != l {
		t.Error("OrDiscard should return the given logger")
	}
}

func TestRoller_WritesDailyFile(t *testing.T) {
	dir := t.TempDir()

	roller, err := NewRoller(DefaultRollerConfig(dir))
	if err != nil {
		t.Fatalf("NewRoller() failed: %v", err)
	}
	defer roller.Close()

	if _, err := roller.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	want := filepath.Join(dir, "bwrofi-"+time.Now().Format("2006-01-02")+".log")
	if got := roller.CurrentPath(); got != want {
		t.Errorf("CurrentPath() = %q, want %q", got, want)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("log content = %q, want %q", data, "hello\n")
	}
}

func TestRoller_RotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	r := &Roller{config: RollerConfig{Dir: dir}, now: func() time.Time { return day }}
	defer r.Close()

	if _, err := r.Write([]byte("before\n")); err != nil {
		t.Fatal(err)
	}
	day = day.Add(2 * time.Minute)
	if _, err := r.Write([]byte("after\n")); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"bwrofi-2026-03-01.log", "bwrofi-2026-03-02.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestRoller_PrunesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "bwrofi-2000-01-01.log")
	unrelated := filepath.Join(dir, "bwrofi-notadate.log")
	for _, p := range []string{old, unrelated} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	roller, err := NewRoller(RollerConfig{Dir: dir, MaxDays: 3})
	if err != nil {
		t.Fatalf("NewRoller() failed: %v", err)
	}
	defer roller.Close()

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired log file should have been removed")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("files without a date should be left alone")
	}
}

func TestNewRoller_RequiresDir(t *testing.T) {
	if _, err := NewRoller(RollerConfig{}); err == nil {
		t.Error("expected error for empty directory")
	}
}
