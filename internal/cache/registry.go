// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/metrics"
	"github.com/rs/zerolog"
)

// Policy selects the store implementation behind each namespace.
type Policy string

const (
	PolicyNone      Policy = "none"
	PolicyUnbounded Policy = "unbounded"
	PolicyBudget    Policy = "budget"
	PolicyRedis     Policy = "redis"
	PolicyDisk      Policy = "disk"
)

// Options configure a Registry.
type Options struct {
	Policy          Policy
	MaxBytes        int64
	TTL             time.Duration
	CleanupInterval time.Duration
	Redis           RedisConfig
	// Dir is the parent of the per-namespace databases for PolicyDisk.
	Dir string
}

// Registry hands out one shared store per namespace and closes it when the
// last holder releases it.
type Registry struct {
	opts   Options
	logger zerolog.Logger

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	store Store
	refs  int
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	if opts.Policy == "" {
		opts.Policy = PolicyUnbounded
	}
	return &Registry{
		opts:    opts,
		logger:  log.WithComponent("cache"),
		entries: make(map[string]*registryEntry),
	}
}

// Acquire returns a handle to the namespace's store, creating it on first use.
func (r *Registry) Acquire(ctx context.Context, namespace string) (*Handle, error) {
	if namespace == "" {
		return nil, fmt.Errorf("cache: empty namespace")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[namespace]
	if !ok {
		store, err := r.newStore(ctx, namespace)
		if err != nil {
			return nil, err
		}
		e = &registryEntry{store: store}
		r.entries[namespace] = e
		r.logger.Debug().
			Str(log.FieldEvent, "cache.created").
			Str(log.FieldNamespace, namespace).
			Str("policy", string(r.opts.Policy)).
			Msg("cache namespace created")
	}
	e.refs++
	return &Handle{reg: r, namespace: namespace, store: e.store}, nil
}

func (r *Registry) newStore(ctx context.Context, namespace string) (Store, error) {
	switch r.opts.Policy {
	case PolicyNone:
		return NewNoopStore(), nil
	case PolicyUnbounded:
		return NewMemoryStore(r.opts.TTL, r.opts.CleanupInterval), nil
	case PolicyBudget:
		return NewBudgetStore(r.opts.MaxBytes)
	case PolicyRedis:
		cfg := r.opts.Redis
		if cfg.TTL == 0 {
			cfg.TTL = r.opts.TTL
		}
		return NewRedisStore(ctx, namespace, cfg, r.logger)
	case PolicyDisk:
		return NewDiskStore(r.opts.Dir, namespace, r.opts.TTL, r.logger)
	default:
		return nil, fmt.Errorf("cache: unknown policy %q", r.opts.Policy)
	}
}

func (r *Registry) release(namespace string) {
	r.mu.Lock()
	e, ok := r.entries[namespace]
	if !ok {
		r.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.entries, namespace)
	r.mu.Unlock()

	if err := e.store.Close(); err != nil {
		r.logger.Warn().Err(err).Str(log.FieldNamespace, namespace).Msg("cache close failed")
	}
	metrics.DeleteCacheBytes(namespace)
	r.logger.Debug().
		Str(log.FieldEvent, "cache.released").
		Str(log.FieldNamespace, namespace).
		Msg("cache namespace released")
}

// Namespaces lists live namespaces in sorted order.
func (r *Registry) Namespaces() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for ns := range r.entries {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Refs returns the holder count of a namespace.
func (r *Registry) Refs(namespace string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[namespace]; ok {
		return e.refs
	}
	return 0
}

// Close closes every store regardless of outstanding handles.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for ns, e := range entries {
		_ = e.store.Close()
		metrics.DeleteCacheBytes(ns)
	}
}

// Handle is one holder's view of a namespace store. Close releases the
// reference instead of closing the shared store.
type Handle struct {
	reg       *Registry
	namespace string
	store     Store
	once      sync.Once
}

func (h *Handle) Namespace() string { return h.namespace }

func (h *Handle) Get(key string) ([]byte, bool) { return h.store.Get(key) }

func (h *Handle) Put(key string, data []byte) {
	h.store.Put(key, data)
	metrics.SetCacheBytes(h.namespace, h.store.Size())
}

func (h *Handle) Delete(key string) { h.store.Delete(key) }

func (h *Handle) Size() int64 { return h.store.Size() }

func (h *Handle) Stats() Stats { return h.store.Stats() }

// Close releases the handle. Further calls are no-ops.
func (h *Handle) Close() error {
	h.once.Do(func() { h.reg.release(h.namespace) })
	return nil
}

// NamespaceFor returns explicit when set, else the last path segment of uri.
func NamespaceFor(uri, explicit string) string {
	if ns := strings.TrimSpace(explicit); ns != "" {
		return ns
	}
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(strings.TrimRight(p, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}
