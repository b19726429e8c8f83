package keyring

import (
	"context"
	"strconv"
	"sync"
)

// Memory is an in-process Registry for tests. It counts every call so
// tests can assert that a code path never touched the registry.
type Memory struct {
	mu       sync.Mutex
	next     int
	names    map[string]KeyID
	payloads map[KeyID][]byte
	Timeouts map[KeyID]int
	Calls    int
}

func NewMemory() *Memory {
	return &Memory{
		next:     100,
		names:    map[string]KeyID{},
		payloads: map[KeyID][]byte{},
		Timeouts: map[KeyID]int{},
	}
}

func (m *Memory) Lookup(ctx context.Context, name string) (KeyID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	id, ok := m.names[name]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func (m *Memory) Store(ctx context.Context, name string, value []byte) (KeyID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	id, ok := m.names[name]
	if !ok {
		m.next++
		id = KeyID(strconv.Itoa(m.next))
		m.names[name] = id
	}
	m.payloads[id] = append([]byte(nil), value...)
	return id, nil
}

func (m *Memory) SetTimeout(ctx context.Context, id KeyID, seconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if _, ok := m.payloads[id]; !ok {
		return ErrNotFound
	}
	m.Timeouts[id] = seconds
	return nil
}

func (m *Memory) Read(ctx context.Context, id KeyID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	p, ok := m.payloads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), p...), nil
}

func (m *Memory) Purge(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if id, ok := m.names[name]; ok {
		delete(m.payloads, id)
		delete(m.Timeouts, id)
		delete(m.names, name)
	}
	return nil
}

// Payload returns what is stored under name, for assertions.
func (m *Memory) Payload(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.names[name]
	if !ok {
		return nil, false
	}
	return m.payloads[id], true
}
