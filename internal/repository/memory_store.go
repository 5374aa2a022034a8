package repository

import (
	"context"
	"sync"

	"docbuilder/internal/domain"
)

// MemoryStore is a process-local domain.KeyValueStore.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ domain.KeyValueStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// MemoryClipboard keeps the last text written to it. The server has no
// system clipboard, so each process shares one.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
	set  bool
}

var _ domain.Clipboard = (*MemoryClipboard)(nil)

func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{}
}

// ReadText returns domain.ErrClipboardEmpty until something was written.
func (c *MemoryClipboard) ReadText(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set {
		return "", domain.ErrClipboardEmpty
	}
	return c.text, nil
}

func (c *MemoryClipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	c.set = true
	return nil
}
