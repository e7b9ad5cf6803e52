package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"atlas/internal/atlastype"
)

func TestWithDeadlineReturnsResult(t *testing.T) {
	locs, err := withDeadline(context.Background(), time.Second, "test", func(ctx context.Context) (atlastype.LocationMap, error) {
		return atlastype.LocationMap{"a": {City: "Springfield"}}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 1 {
		t.Fatalf("expected 1 location, got %d", len(locs))
	}
}

func TestWithDeadlineTimesOut(t *testing.T) {
	_, err := withDeadline(context.Background(), 10*time.Millisecond, "slow", func(ctx context.Context) (atlastype.LocationMap, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	var timeoutErr *atlastype.RemoteTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected RemoteTimeoutError, got %v (%T)", err, err)
	}
	if timeoutErr.Source != "slow" {
		t.Errorf("Source = %q, want slow", timeoutErr.Source)
	}
}

func TestWithDeadlineRecoversPanic(t *testing.T) {
	_, err := withDeadline(context.Background(), time.Second, "panicky", func(ctx context.Context) (atlastype.LocationMap, error) {
		panic("boom")
	})
	var protoErr *atlastype.RemoteProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected RemoteProtocolError from recovered panic, got %v (%T)", err, err)
	}
}
