// SPDX-License-Identifier: MIT

package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// diskStore persists segments in a badger database under one directory per
// namespace. Entries survive restarts and are only dropped by TTL or Delete.
type diskStore struct {
	db     *badger.DB
	ttl    time.Duration
	logger zerolog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewDiskStore opens (or creates) the namespace database below dir.
// A positive ttl expires entries.
func NewDiskStore(dir, namespace string, ttl time.Duration, logger zerolog.Logger) (Store, error) {
	path, err := namespaceDir(dir, namespace)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("disk store: %w", err)
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("disk store %s: %w", namespace, err)
	}
	return &diskStore{db: db, ttl: ttl, logger: logger}, nil
}

// namespaceDir keeps a namespace inside dir; namespaces come from URI path segments.
func namespaceDir(dir, namespace string) (string, error) {
	if dir == "" {
		return "", errors.New("disk store: no directory configured")
	}
	if namespace == "" || namespace == "." || namespace == ".." ||
		strings.ContainsAny(namespace, `/\`) {
		return "", fmt.Errorf("disk store: invalid namespace %q", namespace)
	}
	return filepath.Join(dir, namespace), nil
}

func (s *diskStore) Get(key string) ([]byte, bool) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("disk cache read failed")
		}
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return out, true
}

func (s *diskStore) Put(key string, data []byte) {
	e := badger.NewEntry([]byte(key), data)
	if s.ttl > 0 {
		e = e.WithTTL(s.ttl)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(e)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("disk cache write failed")
		return
	}
	s.sets.Add(1)
}

func (s *diskStore) Delete(key string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("disk cache delete failed")
	}
}

// Size reports the on-disk LSM and value log size.
func (s *diskStore) Size() int64 {
	lsm, vlog := s.db.Size()
	return lsm + vlog
}

func (s *diskStore) Stats() Stats {
	return Stats{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Sets:    s.sets.Load(),
		Entries: -1,
	}
}

func (s *diskStore) Close() error {
	return s.db.Close()
}
