//go:build !linux

package keyring

import "context"

// Kernel reports ErrUnsupported outside Linux; use Keyctl or a negative
// auto-lock timeout there.
type Kernel struct{}

func NewKernel() *Kernel { return &Kernel{} }

func (Kernel) Lookup(context.Context, string) (KeyID, error) { return "", ErrUnsupported }

func (Kernel) Store(context.Context, string, []byte) (KeyID, error) { return "", ErrUnsupported }

func (Kernel) SetTimeout(context.Context, KeyID, int) error { return ErrUnsupported }

func (Kernel) Read(context.Context, KeyID) ([]byte, error) { return nil, ErrUnsupported }

func (Kernel) Purge(context.Context, string) error { return ErrUnsupported }
