// Package cache provides the expiring key-value store shared by the rate
// limiter, the geocode resolver and the analytics result cache. Consumers
// receive a Store at construction; there is no ambient singleton.
package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store is an expiring key-value port. Update runs an atomic
// read-modify-write, which the rate limiter relies on for correctness
// under concurrent requests from the same identity.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
	Update(key string, ttl time.Duration, fn func(old []byte, exists bool) ([]byte, error)) error
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store backed by an expirable LRU. The LRU's
// uniform TTL acts as an upper bound and capacity guard; the per-entry
// deadline enforces the logical TTL, which differs per concern (60 s rate
// windows vs 24 h geocode entries).
type Memory struct {
	lru *expirable.LRU[string, entry]
	mu  sync.Mutex
}

// NewMemory creates an in-memory store holding at most size entries, none
// longer than maxTTL
func NewMemory(size int, maxTTL time.Duration) *Memory {
	return &Memory{
		lru: expirable.NewLRU[string, entry](size, nil, maxTTL),
	}
}

// Get returns the value for key if present and not expired
func (m *Memory) Get(key string) ([]byte, bool) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl
func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	m.lru.Add(key, entry{value: value, expiresAt: time.Now().Add(ttl)})
}

// Delete removes key from the store
func (m *Memory) Delete(key string) {
	m.lru.Remove(key)
}

// Update applies fn to the current value of key under a lock and stores
// the result for ttl. Returning an error from fn aborts the write.
func (m *Memory) Update(key string, ttl time.Duration, fn func(old []byte, exists bool) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.Get(key)
	next, err := fn(old, ok)
	if err != nil {
		return err
	}
	m.Set(key, next, ttl)
	return nil
}
