package embedding

import (
	"fmt"
	"sync"
	"sync/atomic"

	"ragindex/internal/port"
)

// Factory builds the one embedder instance a process will ever load.
type Factory func() (port.Embedder, error)

// Singleton lazily instantiates one embedding model per process and
// hands the same handle to every index builder and loader. The first
// call pays the (seconds-scale) load cost; concurrent first-callers
// block on that single load; every later call is free.
//
// This is the optimization that makes fan-out over many shards cost
// roughly one shard plus one model load instead of N model loads (§4.B,
// §9): workers share this process's heap rather than spawning one
// process each.
type Singleton struct {
	once    sync.Once
	factory Factory
	embed   port.Embedder
	err     error
	loaded  atomic.Bool
}

// NewSingleton wraps factory so it runs at most once for the lifetime
// of the returned Singleton.
func NewSingleton(factory Factory) *Singleton {
	return &Singleton{factory: factory}
}

// Get returns the process-wide embedder, loading it on first call.
// Safe for concurrent use; exactly one load occurs regardless of how
// many goroutines call Get concurrently.
func (s *Singleton) Get() (port.Embedder, error) {
	s.once.Do(func() {
		s.embed, s.err = s.factory()
		if s.err != nil {
			s.err = fmt.Errorf("embedding singleton: %w", s.err)
		}
		s.loaded.Store(true)
	})
	return s.embed, s.err
}

// Loaded reports whether Get has already completed a (successful or
// failed) load attempt.
func (s *Singleton) Loaded() bool {
	return s.loaded.Load()
}

// AsEmbedder adapts the Singleton into a port.Embedder itself, so
// callers that just want "the process-wide embedder" don't need to call
// Get and handle the error at every call site: the underlying model
// still isn't loaded until the first Embed/Dimension/ModelName call
// actually reaches it.
func (s *Singleton) AsEmbedder() port.Embedder {
	return lazyEmbedder{s}
}

type lazyEmbedder struct{ s *Singleton }

func (l lazyEmbedder) Embed(texts []string) ([][]float32, error) {
	e, err := l.s.Get()
	if err != nil {
		return nil, err
	}
	return e.Embed(texts)
}

func (l lazyEmbedder) Dimension() int {
	e, err := l.s.Get()
	if err != nil {
		return 0
	}
	return e.Dimension()
}

func (l lazyEmbedder) ModelName() string {
	e, err := l.s.Get()
	if err != nil {
		return ""
	}
	return e.ModelName()
}

var _ port.Embedder = lazyEmbedder{}
