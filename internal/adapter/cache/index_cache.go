// Package cache is the in-memory index cache (§4.E): a map from
// absolute source path to loaded index handle, generalized from the
// teacher's query_cache.go (an RWMutex-protected map with a generation
// counter for invalidation) from a query-result cache into an
// index-handle cache. At-most-one load per path is enforced with
// golang.org/x/sync/singleflight rather than the teacher's generation
// counter, and reload uses refcounted handles so in-flight searches
// against a retired entry complete safely (read-copy-update, §5, §9).
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"ragindex/internal/domain"
	"ragindex/internal/port"
)

// Loader opens the on-disk index for path and returns a ready handle
// plus its build manifest. Supplied by the caller (usually
// diskstore.ResolveIndexDir + diskstore.Load) so this package has no
// on-disk knowledge of its own.
type Loader func(path string) (port.IndexHandle, domain.BuildManifest, error)

// entry is one resident cache slot. refcount tracks outstanding leases;
// Close is deferred until the last lease releases after the entry has
// been retired (evicted or superseded by reload).
type entry struct {
	handle      port.IndexHandle
	manifest    domain.BuildManifest
	loadedAt    time.Time
	loadElapsed time.Duration
	refcount    int32
	retired     atomic.Bool
}

func (e *entry) acquire() *Lease {
	atomic.AddInt32(&e.refcount, 1)
	return &Lease{e: e}
}

func (e *entry) release() {
	if atomic.AddInt32(&e.refcount, -1) == 0 && e.retired.Load() {
		e.handle.Close()
	}
}

func (e *entry) retire() {
	e.retired.Store(true)
	if atomic.LoadInt32(&e.refcount) == 0 {
		e.handle.Close()
	}
}

// Lease is a held reference to a resident index handle. Callers must
// call Release when done searching it; holding a Lease keeps the
// handle alive even if the cache entry is reloaded or evicted
// concurrently.
type Lease struct {
	e *entry
}

func (l *Lease) Handle() port.IndexHandle { return l.e.handle }
func (l *Lease) Release()                 { l.e.release() }

// IndexCache is the process-wide path -> loaded index handle map (§4.E).
type IndexCache struct {
	load Loader

	mu      sync.RWMutex
	entries map[string]*entry

	group singleflight.Group
}

// NewIndexCache creates an empty cache backed by load.
func NewIndexCache(load Loader) *IndexCache {
	return &IndexCache{
		load:    load,
		entries: make(map[string]*entry),
	}
}

// GetOrLoad returns a leased handle for path: a cache hit if one is
// already resident, or a cache miss that loads it under a per-path
// singleflight key so N concurrent cold callers trigger exactly one
// load and all observe the same resulting handle (§8 property 3).
// Callers MUST call lease.Release() when done.
func (c *IndexCache) GetOrLoad(path string) (lease *Lease, hit bool, loadTime time.Duration, err error) {
	c.mu.RLock()
	if e, ok := c.entries[path]; ok {
		c.mu.RUnlock()
		return e.acquire(), true, 0, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		c.mu.RLock()
		if e, ok := c.entries[path]; ok {
			c.mu.RUnlock()
			return e, nil
		}
		c.mu.RUnlock()

		start := time.Now()
		handle, manifest, err := c.load(path)
		if err != nil {
			return nil, err
		}
		e := &entry{
			handle:      handle,
			manifest:    manifest,
			loadedAt:    time.Now(),
			loadElapsed: time.Since(start),
		}

		c.mu.Lock()
		c.entries[path] = e
		c.mu.Unlock()

		return e, nil
	})
	if err != nil {
		return nil, false, 0, fmt.Errorf("index cache: load %s: %w", path, err)
	}

	e := v.(*entry)
	return e.acquire(), false, e.loadElapsed, nil
}

// Stats lists every resident entry.
func (c *IndexCache) Stats() []domain.CacheStat {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.CacheStat, 0, len(c.entries))
	for path, e := range c.entries {
		out = append(out, domain.CacheStat{
			Path:      path,
			LoadedAt:  e.loadedAt,
			DocsCount: e.handle.DocCount(),
		})
	}
	return out
}

// Evict removes the entry for path, if any. The next GetOrLoad for
// path reloads from disk. Returns whether an entry was present.
func (c *IndexCache) Evict(path string) bool {
	c.mu.Lock()
	e, ok := c.entries[path]
	if ok {
		delete(c.entries, path)
	}
	c.mu.Unlock()

	if ok {
		e.retire()
	}
	return ok
}

// EvictAll removes every resident entry.
func (c *IndexCache) EvictAll() int {
	c.mu.Lock()
	old := c.entries
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	for _, e := range old {
		e.retire()
	}
	return len(old)
}

// Reload force-rebuilds the entry for path: the new index is loaded
// first, then swapped in; the old entry is retired but not closed
// until every in-flight Lease against it releases (§4.E, §8 S6).
func (c *IndexCache) Reload(path string) (loadTime time.Duration, docCount int, err error) {
	start := time.Now()
	handle, manifest, err := c.load(path)
	if err != nil {
		return 0, 0, fmt.Errorf("index cache: reload %s: %w", path, err)
	}
	elapsed := time.Since(start)

	newEntry := &entry{handle: handle, manifest: manifest, loadedAt: time.Now()}

	c.mu.Lock()
	old, existed := c.entries[path]
	c.entries[path] = newEntry
	c.mu.Unlock()

	if existed {
		old.retire()
	}

	return elapsed, handle.DocCount(), nil
}

// ReloadAll force-rebuilds every currently resident entry, mirroring
// original_source/RagON/src/cache_manager.py's reload_all() and the
// spec §6 POST /cache/reload contract when no path is given. One
// failing path is recorded and skipped rather than aborting the rest.
func (c *IndexCache) ReloadAll() (loadTime time.Duration, docCount int, errs []error) {
	start := time.Now()
	for _, path := range c.Paths() {
		_, docs, err := c.Reload(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docCount += docs
	}
	return time.Since(start), docCount, errs
}

// Paths returns every resident path, for HEALTH responses (§4.F).
func (c *IndexCache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.entries))
	for path := range c.entries {
		out = append(out, path)
	}
	return out
}

// Len reports how many entries are resident.
func (c *IndexCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Manifest returns the build manifest the resident entry for path was
// loaded with, used to detect StaleCache (§7).
func (c *IndexCache) Manifest(path string) (domain.BuildManifest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	if !ok {
		return domain.BuildManifest{}, false
	}
	return e.manifest, true
}
