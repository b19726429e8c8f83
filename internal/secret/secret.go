// Package secret holds session keys and master passwords in byte slices
// that can be wiped once an action has finished with them.
package secret

import (
	"crypto/subtle"
	"strings"
)

const redacted = "[REDACTED]"

// Secret is a zeroable secret value. Its String method never returns the
// plaintext, so a Secret can be passed to a logger without leaking.
type Secret struct {
	data []byte
}

// New copies s into a new Secret.
func New(s string) *Secret {
	data := make([]byte, len(s))
	copy(data, s)
	return &Secret{data: data}
}

// FromBytes copies b into a new Secret. Surrounding whitespace, such as the
// newline a CLI prints after a key, is trimmed.
func FromBytes(b []byte) *Secret {
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	data := make([]byte, end-start)
	copy(data, b[start:end])
	return &Secret{data: data}
}

func isSpace(c byte) bool {
	return strings.IndexByte(" \t\r\n", c) >= 0
}

// Reveal returns the plaintext. Callers must not log or persist it.
func (s *Secret) Reveal() string {
	if s == nil || s.data == nil {
		return ""
	}
	return string(s.data)
}

// Bytes returns a copy of the plaintext bytes.
func (s *Secret) Bytes() []byte {
	if s == nil || s.data == nil {
		return nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

func (s *Secret) Len() int {
	if s == nil {
		return 0
	}
	return len(s.data)
}

func (s *Secret) IsEmpty() bool { return s.Len() == 0 }

// Equal compares two secrets in constant time.
func (s *Secret) Equal(other *Secret) bool {
	if s == nil || other == nil {
		return s == other
	}
	return subtle.ConstantTimeCompare(s.data, other.data) == 1
}

// String implements fmt.Stringer without exposing the value.
func (s *Secret) String() string { return redacted }

// GoString keeps %#v from printing the backing slice.
func (s *Secret) GoString() string { return redacted }

// Zero overwrites the plaintext and drops the reference to it.
func (s *Secret) Zero() {
	if s == nil {
		return
	}
	for i := range s.data {
		s.data[i] = 0
	}
	s.data = nil
}
