// Package remote implements the two external gazetteer adapters: a JSON
// feature-code API ("GeoNames") and an HTML-scraped thesaurus ("Getty"),
// plus the name-canonicalization helpers both adapters share.
package remote

import (
	"context"
	"time"

	"atlas/internal/atlastype"
)

// Request carries the parsed query fields an adapter needs.
type Request struct {
	TargetCity  string
	TargetState string
	PostalCode  string
	NoTrace     bool
}

// Metrics captures how one adapter call went, for the orchestrator's
// info/warning lines.
type Metrics struct {
	Source   string
	Elapsed  time.Duration
	Count    int
	Err      error
	TimedOut bool
}

// Adapter is the common shape of a remote gazetteer source: a pure function
// with a hard deadline that returns an immutable map of candidate locations
// or a timeout/protocol error.
type Adapter interface {
	Name() string
	Search(ctx context.Context, req Request) (atlastype.LocationMap, error)
}

// withDeadline runs fn against a context bounded by d, reporting a
// RemoteTimeoutError if fn has not returned by the time the bound context
// is done. Implemented as a race between the adapter goroutine and the
// bounded context; whichever result arrives second is discarded.
func withDeadline(ctx context.Context, d time.Duration, source string, fn func(context.Context) (atlastype.LocationMap, error)) (atlastype.LocationMap, error) {
	dctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		locs atlastype.LocationMap
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: &atlastype.RemoteProtocolError{Source: source, Err: errPanic(r)}}
			}
		}()
		locs, err := fn(dctx)
		ch <- result{locs: locs, err: err}
	}()

	select {
	case r := <-ch:
		return r.locs, r.err
	case <-dctx.Done():
		return nil, &atlastype.RemoteTimeoutError{Source: source}
	}
}

type panicError struct{ v any }

func (p panicError) Error() string { return "panic: recovered" }

func errPanic(v any) error { return panicError{v: v} }
