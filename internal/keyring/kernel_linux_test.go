//go:build linux

package keyring

import (
	"context"
	"errors"
	"testing"
)

// The kernel keyring is often unavailable in containers; skip rather than fail.
func TestKernel_RoundTrip(t *testing.T) {
	ctx := context.Background()
	k := NewKernel()
	name := "bwrofi_test_" + t.Name()

	id, err := k.Store(ctx, name, []byte("payload"))
	if err != nil {
		t.Skipf("kernel keyring unavailable: %v", err)
	}
	defer k.Purge(ctx, name)

	found, err := k.Lookup(ctx, name)
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if found != id {
		t.Errorf("Lookup() = %q, want %q", found, id)
	}

	if err := k.SetTimeout(ctx, id, 60); err != nil {
		t.Fatalf("SetTimeout() failed: %v", err)
	}

	data, err := k.Read(ctx, id)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Read() = %q, want %q", data, "payload")
	}

	if err := k.Purge(ctx, name); err != nil {
		t.Fatalf("Purge() failed: %v", err)
	}
	if _, err := k.Lookup(ctx, name); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup() after purge = %v, want ErrNotFound", err)
	}
}

func TestParseID(t *testing.T) {
	if _, err := parseID("abc"); err == nil {
		t.Error("expected error for non-numeric id")
	}
	if n, err := parseID("123"); err != nil || n != 123 {
		t.Errorf("parseID(123) = %d, %v", n, err)
	}
}
