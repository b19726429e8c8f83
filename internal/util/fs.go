package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName names the per-user directories bwrofi creates.
const AppName = "bwrofi"

func HomeDir() string {
	h, _ := os.UserHomeDir()
	if h == "" {
		h = "."
	}
	return h
}

// ConfigDir returns $XDG_CONFIG_HOME/bwrofi, falling back to ~/.config/bwrofi.
// The directory is not created; the config loader writes it on first run.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// CacheDir returns the XDG cache directory for bwrofi, creating it 0700.
func CacheDir() (string, error) {
	return ensureDir(xdgDir("XDG_CACHE_HOME", ".cache"))
}

// DataDir returns the XDG data directory for bwrofi, creating it 0700.
func DataDir() (string, error) {
	return ensureDir(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")))
}

func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName)
	}
	return filepath.Join(HomeDir(), fallback, AppName)
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// WriteFilePrivate writes data atomically with mode 0600: it writes a
// temp file next to path and renames it into place.
func WriteFilePrivate(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
