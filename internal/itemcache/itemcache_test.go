package itemcache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zach-source/bwrofi/internal/vault"
)

func testItems() []vault.Item {
	return []vault.Item{
		{ID: "1", Name: "GitHub", Login: &vault.Login{Username: "alice", Password: "s3cret", TOTP: "seed"}},
		{ID: "2", Name: "Note"},
	}
}

func TestNew_Disabled(t *testing.T) {
	for _, days := range []int{0, -1} {
		c, err := New("", days)
		if err != nil {
			t.Fatalf("New(%d) error = %v", days, err)
		}
		if c.Enabled() || c.Fresh() {
			t.Errorf("New(%d) enabled", days)
		}
		if err := c.Save(testItems()); err != nil {
			t.Errorf("Save() on disabled cache error = %v", err)
		}
	}
}

func TestCache_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Fresh() {
		t.Error("empty cache reported fresh")
	}

	items := testItems()
	if err := c.Save(items); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if items[0].Login.Password != "s3cret" {
		t.Error("Save() mutated the caller's items")
	}
	if !c.Fresh() {
		t.Error("cache not fresh after Save()")
	}

	for _, name := range []string{ItemsFile, MetaFile} {
		st, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if perm := st.Mode().Perm(); perm != 0o600 {
			t.Errorf("%s mode = %o, want 600", name, perm)
		}
	}

	raw, _ := os.ReadFile(filepath.Join(dir, ItemsFile))
	if strings.Contains(string(raw), "s3cret") || strings.Contains(string(raw), "seed") {
		t.Errorf("secrets written to disk: %s", raw)
	}

	got, err := c.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got[0].Username() != "alice" || got[0].Password() != "" {
		t.Errorf("Load() = %+v", got)
	}
	if count, hits, misses := c.Stats(); count != 2 || hits != 1 || misses != 0 {
		t.Errorf("Stats() = %d, %d, %d", count, hits, misses)
	}
}

func TestCache_MetadataSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 1)
	if err := c.Save(testItems()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reopened, err := New(dir, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !reopened.Fresh() {
		t.Error("reopened cache not fresh")
	}
}

func TestCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 2)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }
	if err := c.Save(testItems()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tests := []struct {
		name  string
		after time.Duration
		fresh bool
	}{
		{"just written", 0, true},
		{"one day", 24 * time.Hour, true},
		{"at expiry", 48 * time.Hour, false},
		{"past expiry", 72 * time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.now = func() time.Time { return start.Add(tt.after) }
			if got := c.Fresh(); got != tt.fresh {
				t.Errorf("Fresh() = %v, want %v", got, tt.fresh)
			}
		})
	}
}

func TestCache_EmptyListIsNotFresh(t *testing.T) {
	c, _ := New(t.TempDir(), 1)
	if err := c.Save(nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if c.Fresh() {
		t.Error("cache with zero items reported fresh")
	}
}

func TestNew_CorruptMetadata(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ItemsFile), []byte("[]"), 0o600)
	os.WriteFile(filepath.Join(dir, MetaFile), []byte("{"), 0o600)

	if _, err := New(dir, 1); err == nil {
		t.Error("New() accepted corrupt metadata")
	}
}

func TestCache_LoadMissingFile(t *testing.T) {
	c, _ := New(t.TempDir(), 1)
	if _, err := c.Load(); err == nil {
		t.Error("Load() on empty dir succeeded")
	}
	if _, _, misses := c.Stats(); misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}
