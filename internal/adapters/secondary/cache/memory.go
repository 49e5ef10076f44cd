package cache

import (
	"context"
	"sync"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
)

// MemoryThreadCache is an in-process thread cache. It is the default
// backend for single-instance deployments where cross-run reuse within one
// process lifetime is enough.
type MemoryThreadCache struct {
	mu      sync.RWMutex
	entries map[int64]*ports.CachedThread
}

var _ ports.ThreadCache = (*MemoryThreadCache)(nil)

// NewMemoryThreadCache creates an empty in-memory cache.
func NewMemoryThreadCache() *MemoryThreadCache {
	return &MemoryThreadCache{
		entries: make(map[int64]*ports.CachedThread),
	}
}

// Get returns the cached thread, or (nil, nil) on a miss.
func (c *MemoryThreadCache) Get(_ context.Context, ticketID int64) (*ports.CachedThread, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[ticketID], nil
}

// Put stores the thread, replacing any previous entry for the ticket.
func (c *MemoryThreadCache) Put(_ context.Context, ticketID int64, thread *ports.CachedThread) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ticketID] = thread
	return nil
}

// Ping always succeeds for the in-memory backend.
func (c *MemoryThreadCache) Ping(context.Context) error {
	return nil
}

// Len returns the number of cached threads.
func (c *MemoryThreadCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
