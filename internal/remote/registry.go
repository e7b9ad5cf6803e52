package remote

import (
	"context"
	"sync"
	"time"

	"atlas/internal/atlastype"
)

// Registry is a small named-adapter lookup, grounded on js-arias-biodv's
// driver-registry pattern (its dataset/taxonomy drivers are looked up by
// string name the same way) generalized here to the two remote gazetteer
// sources.
type Registry struct {
	adapters map[string]Adapter
}

// AdapterResult pairs one adapter's metrics with the location map it
// returned. SearchAll hands these back directly rather than stashing them
// on the Registry: the Registry is built once and shared across every
// concurrent HTTP request, so per-call results must never live in shared
// mutable state.
type AdapterResult struct {
	Metrics   Metrics
	Locations atlastype.LocationMap
}

// NewRegistry builds a Registry from a set of adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: map[string]Adapter{}}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// Get returns the named adapter, or nil if unregistered.
func (r *Registry) Get(name string) Adapter {
	return r.adapters[name]
}

// SearchAll launches every named adapter concurrently and awaits all of
// them with "all-settled" semantics: an individual adapter's failure or
// timeout never prevents the others from contributing. Grounded on
// internal/api/apple.go and deezer.go's
// `sem := make(chan struct{}, N); var wg sync.WaitGroup` bounded fan-out
// idiom; here N equals len(names) since there are at most two adapters.
//
// The returned map is this call's own value — not shared with any other
// concurrent or subsequent SearchAll call — so callers can read it freely
// without a lock.
func (r *Registry) SearchAll(ctx context.Context, names []string, req Request) map[string]AdapterResult {
	results := make(map[string]AdapterResult, len(names))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range names {
		adapter := r.Get(name)
		if adapter == nil {
			continue
		}
		wg.Add(1)
		go func(a Adapter) {
			defer wg.Done()
			start := time.Now()
			locs, err := a.Search(ctx, req)

			m := Metrics{Source: a.Name(), Elapsed: time.Since(start), Err: err}
			if _, isTimeout := err.(*atlastype.RemoteTimeoutError); isTimeout {
				m.TimedOut = true
			}
			if locs != nil {
				m.Count = len(locs)
			}

			mu.Lock()
			results[a.Name()] = AdapterResult{Metrics: m, Locations: locs}
			mu.Unlock()
		}(adapter)
	}

	wg.Wait()
	return results
}
