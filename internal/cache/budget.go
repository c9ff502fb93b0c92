// SPDX-License-Identifier: MIT

package cache

import (
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/ristretto"
)

// budgetStore evicts by cost once the byte budget is reached.
type budgetStore struct {
	c    *ristretto.Cache[string, []byte]
	sets atomic.Int64
}

// NewBudgetStore creates a store bounded to roughly maxBytes of segment data.
func NewBudgetStore(maxBytes int64) (Store, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("budget store: maxBytes must be positive, got %d", maxBytes)
	}
	// Ten counters per expected item; segments are assumed to be at least 64KiB.
	counters := maxBytes / (64 << 10) * 10
	if counters < 1000 {
		counters = 1000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters:        counters,
		MaxCost:            maxBytes,
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("budget store: %w", err)
	}
	return &budgetStore{c: c}, nil
}

func (s *budgetStore) Get(key string) ([]byte, bool) {
	return s.c.Get(key)
}

// Put is asynchronous; ristretto may also reject the entry under contention.
func (s *budgetStore) Put(key string, data []byte) {
	if s.c.Set(key, data, int64(len(data))) {
		s.sets.Add(1)
	}
}

func (s *budgetStore) Delete(key string) {
	s.c.Del(key)
}

// Wait blocks until buffered writes are applied.
func (s *budgetStore) Wait() {
	s.c.Wait()
}

func (s *budgetStore) Size() int64 {
	m := s.c.Metrics
	return int64(m.CostAdded()) - int64(m.CostEvicted())
}

func (s *budgetStore) Stats() Stats {
	m := s.c.Metrics
	return Stats{
		Hits:      int64(m.Hits()),
		Misses:    int64(m.Misses()),
		Sets:      s.sets.Load(),
		Evictions: int64(m.KeysEvicted()),
		Entries:   -1,
	}
}

func (s *budgetStore) Close() error {
	s.c.Close()
	return nil
}
