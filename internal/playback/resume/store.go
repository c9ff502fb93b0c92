// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resume

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"
)

// Entry is a persisted cursor.
type Entry struct {
	Cursor    Cursor    `json:"cursor"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists cursors across process restarts, keyed by source URI.
// Get returns (nil, nil) when nothing is stored.
type Store interface {
	Put(ctx context.Context, key string, entry Entry) error
	Get(ctx context.Context, key string) (*Entry, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendSqlite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a store backend.
type Options struct {
	Backend   string
	Dir       string
	RedisAddr string
	RedisTTL  time.Duration
}

// NewStore creates a resume store for the configured backend.
// sqlite without a directory falls back to memory.
func NewStore(ctx context.Context, opts Options) (Store, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendSqlite
	}

	switch backend {
	case BackendSqlite:
		if opts.Dir == "" {
			return NewMemoryStore(), nil
		}
		return NewSqliteStore(ctx, filepath.Join(opts.Dir, "resume.sqlite"))
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis resume backend requires an address")
		}
		return NewRedisStore(ctx, opts.RedisAddr, opts.RedisTTL)
	default:
		return nil, fmt.Errorf("unknown resume store backend: %s (supported: sqlite, memory, redis)", backend)
	}
}

// MemoryStore implements Store using a map (thread-safe).
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Entry
}

// NewMemoryStore creates an in-memory resume store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Entry),
	}
}

func (s *MemoryStore) Put(_ context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return fmt.Errorf("resume store closed")
	}
	s.data[key] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if val, ok := s.data[key]; ok {
		clone := val
		return &clone, nil
	}
	return nil, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}
