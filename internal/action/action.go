// Package action performs what the user picked: clipboard writes, keyboard
// emulation, window focus and desktop notifications. Every helper runs as
// an external program with secrets passed on stdin.
package action

import "errors"

var (
	ErrClipboard = errors.New("clipboard failed")
	ErrTyping    = errors.New("keyboard emulation failed")
	ErrFocus     = errors.New("window focus failed")
	ErrNotify    = errors.New("notification failed")
)
