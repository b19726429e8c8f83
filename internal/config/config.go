// Package config loads bwrofi settings from defaults, the YAML config
// file, BWROFI_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zach-source/bwrofi/internal/keybind"
	"github.com/zach-source/bwrofi/internal/util"
)

const (
	FileName  = "config.yaml"
	EnvPrefix = "bwrofi"
)

// Keyring backends.
const (
	KeyringKernel = "kernel"
	KeyringKeyctl = "keyctl"
)

// Keyrings lists the accepted security.keyring values.
var Keyrings = []string{KeyringKernel, KeyringKeyctl}

type Config struct {
	Security  Security  `mapstructure:"security" yaml:"security"`
	Keyboard  Keyboard  `mapstructure:"keyboard" yaml:"keyboard"`
	Interface Interface `mapstructure:"interface" yaml:"interface"`
	Autotype  Autotype  `mapstructure:"autotype" yaml:"autotype"`
	Notify    Notify    `mapstructure:"notify" yaml:"notify"`
}

type Security struct {
	// Timeout is the session auto-lock policy in seconds: 0 locks on
	// every run, -1 keeps the key in memory only.
	Timeout int `mapstructure:"timeout" yaml:"timeout"`
	// Clear is how many seconds copied values stay on the clipboard; -1
	// keeps them.
	Clear     int    `mapstructure:"clear" yaml:"clear"`
	CacheDays int    `mapstructure:"cache_days" yaml:"cache_days"`
	Keyring   string `mapstructure:"keyring" yaml:"keyring"`
}

type Binding struct {
	Key  string `mapstructure:"key" yaml:"key"`
	Hint string `mapstructure:"hint" yaml:"hint"`
}

type Keyboard struct {
	Enter        string  `mapstructure:"enter" yaml:"enter"`
	TypePassword Binding `mapstructure:"type_password" yaml:"type_password"`
	TypeAll      Binding `mapstructure:"type_all" yaml:"type_all"`
	TOTP         Binding `mapstructure:"totp" yaml:"totp"`
	Sync         Binding `mapstructure:"sync" yaml:"sync"`
	ShowURIs     Binding `mapstructure:"show_uris" yaml:"show_uris"`
	ShowNames    Binding `mapstructure:"show_names" yaml:"show_names"`
	ShowLogins   Binding `mapstructure:"show_logins" yaml:"show_logins"`
	ShowFolders  Binding `mapstructure:"show_folders" yaml:"show_folders"`
}

type Interface struct {
	DefaultMode string   `mapstructure:"default_mode" yaml:"default_mode"`
	HideMesg    bool     `mapstructure:"hide_mesg" yaml:"hide_mesg"`
	Prompt      string   `mapstructure:"prompt" yaml:"prompt"`
	GroupFields []string `mapstructure:"group_fields" yaml:"group_fields"`
	URIIgnore   []string `mapstructure:"uri_ignore" yaml:"uri_ignore"`
}

type Autotype struct {
	SelectWindow bool          `mapstructure:"select_window" yaml:"select_window"`
	SlopArgs     []string      `mapstructure:"slop_args" yaml:"slop_args"`
	StartDelay   time.Duration `mapstructure:"start_delay" yaml:"start_delay"`
	KeyDelay     time.Duration `mapstructure:"key_delay" yaml:"key_delay"`
}

type Notify struct {
	Icons []string `mapstructure:"icons" yaml:"icons"`
}

// Defaults returns the built-in settings keyed by dotted path.
func Defaults() map[string]any {
	return map[string]any{
		"security.timeout":    900,
		"security.clear":      5,
		"security.cache_days": 1,
		"security.keyring":    KeyringKernel,

		"keyboard.enter":              keybind.ActionCopy.String(),
		"keyboard.type_password.key":  "Alt+1",
		"keyboard.type_password.hint": "Type password",
		"keyboard.type_all.key":       "Alt+2",
		"keyboard.type_all.hint":      "Type all",
		"keyboard.totp.key":           "Alt+t",
		"keyboard.totp.hint":          "totp",
		"keyboard.sync.key":           "Alt+r",
		"keyboard.sync.hint":          "sync",
		"keyboard.show_uris.key":      "Alt+u",
		"keyboard.show_uris.hint":     "Show URIs",
		"keyboard.show_names.key":     "Alt+n",
		"keyboard.show_names.hint":    "Show names",
		"keyboard.show_logins.key":    "Alt+l",
		"keyboard.show_logins.hint":   "Show logins",
		"keyboard.show_folders.key":   "Alt+c",
		"keyboard.show_folders.hint":  "Show folders",

		"interface.default_mode": keybind.ModeNames.String(),
		"interface.hide_mesg":    false,
		"interface.prompt":       "Bitwarden",
		"interface.group_fields": []string{"login.username"},
		"interface.uri_ignore":   []string{"", "None", "http://", "https://"},

		"autotype.select_window": false,
		"autotype.slop_args":     []string{},
		"autotype.start_delay":   "1s",
		"autotype.key_delay":     "200ms",

		"notify.icons": []string{},
	}
}

// FlagKeys maps command line flag names to the settings they override.
var FlagKeys = map[string]string{
	"timeout":      "security.timeout",
	"clear":        "security.clear",
	"cache-days":   "security.cache_days",
	"keyring":      "security.keyring",
	"enter":        "keyboard.enter",
	"default-mode": "interface.default_mode",
	"hide-mesg":    "interface.hide_mesg",
}

// DefaultPath returns $XDG_CONFIG_HOME/bwrofi/config.yaml.
func DefaultPath() string {
	return filepath.Join(util.ConfigDir(), FileName)
}

// Options selects the config file.
type Options struct {
	// Path overrides DefaultPath.
	Path string
	// NoConfig skips reading and writing the config file.
	NoConfig bool
}

// Result reports what Load did besides decoding.
type Result struct {
	// File is the config file read, or "".
	File string
	// Created is set when a default config file was written.
	Created bool
}

// Load builds the configuration. A missing config file is created from
// the defaults with mode 0600.
func Load(cmd *cobra.Command, opts Options) (Config, Result, error) {
	var (
		c   Config
		res Result
	)
	v := viper.New()

	defaults := Defaults()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if !opts.NoConfig {
		path := opts.Path
		if path == "" {
			path = DefaultPath()
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		err := v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		switch {
		case err == nil:
			res.File = path
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			if err := WriteDefaults(path, defaults); err != nil {
				return c, res, fmt.Errorf("write default config: %w", err)
			}
			res.Created = true
		default:
			return c, res, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for name, key := range FlagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, res, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, res, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, res, err
	}
	return c, res, nil
}

// WriteDefaults writes defaults as nested YAML to path.
func WriteDefaults(path string, defaults map[string]any) error {
	data, err := yaml.Marshal(nest(defaults))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	return util.WriteFilePrivate(path, data)
}

// nest turns {"a.b": 1} into {"a": {"b": 1}}.
func nest(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := map[string]any{}
	for _, k := range keys {
		parts := strings.Split(k, ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = flat[k]
	}
	return out
}

// Validate checks the settings that name actions, modes or backends.
func (c Config) Validate() error {
	if _, err := keybind.ParseItemAction(c.Keyboard.Enter); err != nil {
		return fmt.Errorf("keyboard.enter: %w", err)
	}
	if _, err := keybind.ParseWindowMode(c.Interface.DefaultMode); err != nil {
		return fmt.Errorf("interface.default_mode: %w", err)
	}
	if !util.Contains(Keyrings, c.Security.Keyring) {
		return fmt.Errorf("security.keyring: unknown keyring %q (want %s)",
			c.Security.Keyring, strings.Join(Keyrings, " or "))
	}
	if c.Autotype.StartDelay < 0 || c.Autotype.KeyDelay < 0 {
		return errors.New("autotype delays must not be negative")
	}
	return nil
}

// EnterAction returns the action of the primary accept key.
func (c Config) EnterAction() keybind.ItemAction {
	a, _ := keybind.ParseItemAction(c.Keyboard.Enter)
	return a
}

// DefaultMode returns the first window to show.
func (c Config) DefaultMode() keybind.WindowMode {
	m, _ := keybind.ParseWindowMode(c.Interface.DefaultMode)
	return m
}

// ClearAfter returns how long copied values stay on the clipboard, or a
// negative duration to keep them.
func (c Config) ClearAfter() time.Duration {
	if c.Security.Clear < 0 {
		return -1
	}
	return time.Duration(c.Security.Clear) * time.Second
}

// Bindings registers the configured secondary keys. A binding with an
// empty key is left out.
func (c Config) Bindings() (*keybind.Registry, error) {
	reg := keybind.NewRegistry()
	k := c.Keyboard
	for _, b := range []struct {
		name   string
		cfg    Binding
		target keybind.Target
	}{
		{"type_password", k.TypePassword, keybind.ActionTypePassword},
		{"type_all", k.TypeAll, keybind.ActionTypeAll},
		{"totp", k.TOTP, keybind.ActionCopyTOTP},
		{"sync", k.Sync, keybind.ModeSync},
		{"show_uris", k.ShowURIs, keybind.ModeURIs},
		{"show_names", k.ShowNames, keybind.ModeNames},
		{"show_logins", k.ShowLogins, keybind.ModeLogins},
		{"show_folders", k.ShowFolders, keybind.ModeFolders},
	} {
		if strings.TrimSpace(b.cfg.Key) == "" {
			continue
		}
		if err := reg.Add(keybind.Binding{Key: b.cfg.Key, Target: b.target, Hint: b.cfg.Hint}); err != nil {
			return nil, fmt.Errorf("keyboard.%s: %w", b.name, err)
		}
	}
	return reg, nil
}
