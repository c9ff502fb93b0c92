// SPDX-License-Identifier: MIT

// Package cache holds media segment caches shared by sessions playing the same content.
package cache

import (
	"sync"
	"time"
)

// Store caches raw segment bytes by key.
type Store interface {
	// Get returns the cached bytes, or false if absent or expired.
	Get(key string) ([]byte, bool)
	Put(key string, data []byte)
	Delete(key string)
	// Size is the approximate number of bytes held.
	Size() int64
	Stats() Stats
	Close() error
}

// Stats holds cache performance counters.
type Stats struct {
	Hits      int64 // Number of successful Get operations
	Misses    int64 // Number of failed Get operations (not found or expired)
	Sets      int64 // Number of Put operations
	Evictions int64 // Number of entries removed by expiry or budget
	Entries   int   // Current number of cached entries, -1 if unknown
}

type entry struct {
	data       []byte
	expiration time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}

// memoryStore keeps every segment until it expires. It never evicts for size.
type memoryStore struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]*entry
	bytes   int64
	stats   Stats
	janitor *janitor
}

// NewMemoryStore creates an unbounded store. A positive ttl expires entries,
// and a positive cleanupInterval removes expired entries in the background.
func NewMemoryStore(ttl, cleanupInterval time.Duration) Store {
	s := &memoryStore{
		ttl:     ttl,
		entries: make(map[string]*entry),
	}

	if ttl > 0 && cleanupInterval > 0 {
		s.janitor = &janitor{
			interval: cleanupInterval,
			stop:     make(chan struct{}),
			done:     make(chan struct{}),
		}
		go s.janitor.run(s)
	}

	return s
}

func (s *memoryStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.entries[key]
	if !found || e.isExpired(time.Now()) {
		s.stats.Misses++
		return nil, false
	}

	s.stats.Hits++
	return e.data, true
}

func (s *memoryStore) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		s.bytes -= int64(len(old.data))
	}
	e := &entry{data: data}
	if s.ttl > 0 {
		e.expiration = time.Now().Add(s.ttl)
	}
	s.entries[key] = e
	s.bytes += int64(len(data))
	s.stats.Sets++
}

func (s *memoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[key]; ok {
		s.bytes -= int64(len(old.data))
		delete(s.entries, key)
	}
}

func (s *memoryStore) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}

func (s *memoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.Entries = len(s.entries)
	return stats
}

// deleteExpired removes all expired entries and returns how many it removed.
func (s *memoryStore) deleteExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	count := 0
	for key, e := range s.entries {
		if e.isExpired(now) {
			s.bytes -= int64(len(e.data))
			delete(s.entries, key)
			count++
		}
	}

	s.stats.Evictions += int64(count)
	return count
}

// Close stops the janitor and drops every entry.
func (s *memoryStore) Close() error {
	if s.janitor != nil {
		s.janitor.halt()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	s.bytes = 0
	return nil
}

type janitor struct {
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func (j *janitor) run(s *memoryStore) {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.deleteExpired()
		case <-j.stop:
			return
		}
	}
}

func (j *janitor) halt() {
	j.once.Do(func() { close(j.stop) })
	<-j.done
}

type noopStore struct{}

// NewNoopStore creates a store that never caches.
func NewNoopStore() Store {
	return noopStore{}
}

func (noopStore) Get(string) ([]byte, bool) { return nil, false }
func (noopStore) Put(string, []byte)        {}
func (noopStore) Delete(string)             {}
func (noopStore) Size() int64               { return 0 }
func (noopStore) Stats() Stats              { return Stats{} }
func (noopStore) Close() error              { return nil }
