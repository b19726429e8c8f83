// Package keybind defines what a menu key press can mean: an item action
// that ends navigation, or a window mode to switch to.
package keybind

import (
	"errors"
	"fmt"
	"strings"
)

// MaxBindings is the number of custom exit codes rofi accepts (10..27).
const MaxBindings = 18

var ErrTooManyBindings = fmt.Errorf("more than %d key bindings", MaxBindings)

// Target is either an ItemAction or a WindowMode.
type Target interface {
	fmt.Stringer
	isTarget()
}

// ItemAction is a terminal action applied to one vault item.
type ItemAction int

const (
	ActionCopy ItemAction = iota
	ActionTypePassword
	ActionTypeAll
	ActionCopyTOTP
)

func (ItemAction) isTarget() {}

func (a ItemAction) String() string {
	switch a {
	case ActionCopy:
		return "copy"
	case ActionTypePassword:
		return "password"
	case ActionTypeAll:
		return "all"
	case ActionCopyTOTP:
		return "totp"
	default:
		return "invalid"
	}
}

// ParseItemAction accepts the action names used on the command line and in
// the config file, including the older "passwd" and "topt" spellings.
func ParseItemAction(s string) (ItemAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "copy":
		return ActionCopy, nil
	case "password", "passwd":
		return ActionTypePassword, nil
	case "all":
		return ActionTypeAll, nil
	case "totp", "topt":
		return ActionCopyTOTP, nil
	}
	return 0, fmt.Errorf("unknown item action %q (want copy, password, all or totp)", s)
}

// WindowMode selects what the menu lists next.
type WindowMode int

const (
	ModeNames WindowMode = iota
	ModeGroup
	ModeURIs
	ModeLogins
	ModeFolders
	ModeSync
)

func (WindowMode) isTarget() {}

func (m WindowMode) String() string {
	switch m {
	case ModeNames:
		return "names"
	case ModeGroup:
		return "group"
	case ModeURIs:
		return "uris"
	case ModeLogins:
		return "logins"
	case ModeFolders:
		return "folders"
	case ModeSync:
		return "sync"
	default:
		return "invalid"
	}
}

// ParseWindowMode parses a mode usable as the initial window. Group is
// rejected because it needs a payload.
func ParseWindowMode(s string) (WindowMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "names":
		return ModeNames, nil
	case "uris":
		return ModeURIs, nil
	case "logins":
		return ModeLogins, nil
	case "folders":
		return ModeFolders, nil
	case "sync":
		return ModeSync, nil
	}
	return 0, fmt.Errorf("unknown window mode %q (want names, uris, logins, folders or sync)", s)
}

// Binding associates a key combination with a target.
type Binding struct {
	Key    string // rofi key spec, e.g. "Alt+1"
	Target Target
	Hint   string // shown in the help banner; empty hides it
}

// Registry holds the secondary bindings in registration order. Binding i
// is reported by rofi as custom exit code 10+i.
type Registry struct {
	bindings []Binding
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a binding. It fails once MaxBindings are registered.
func (r *Registry) Add(b Binding) error {
	if strings.TrimSpace(b.Key) == "" {
		return errors.New("key binding without key")
	}
	if b.Target == nil {
		return fmt.Errorf("key binding %s without target", b.Key)
	}
	for _, existing := range r.bindings {
		if strings.EqualFold(existing.Key, b.Key) {
			return fmt.Errorf("key %s is bound twice", b.Key)
		}
	}
	if len(r.bindings) >= MaxBindings {
		return fmt.Errorf("%w: cannot add %s", ErrTooManyBindings, b.Key)
	}
	r.bindings = append(r.bindings, b)
	return nil
}

// Bindings returns a copy of the registered bindings.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, len(r.bindings))
	copy(out, r.bindings)
	return out
}

// At returns the i-th binding (0-based).
func (r *Registry) At(i int) (Binding, bool) {
	if i < 0 || i >= len(r.bindings) {
		return Binding{}, false
	}
	return r.bindings[i], true
}

func (r *Registry) Len() int { return len(r.bindings) }

// Hints renders "key: hint" pairs for every binding with a hint.
func (r *Registry) Hints() string {
	var parts []string
	for _, b := range r.bindings {
		if b.Hint != "" {
			parts = append(parts, b.Key+": "+b.Hint)
		}
	}
	return strings.Join(parts, " | ")
}
