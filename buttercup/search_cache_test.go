package buttercup

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemorySearchCache(t *testing.T) {
	cache := NewMemorySearchCache(2)
	ctx := context.Background()
	now := time.Now()

	cache.set(1, SearchSession{Query: "one"}, now)
	cache.set(2, SearchSession{Query: "two"}, now.Add(time.Second))

	session, err := cache.Get(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if session.Query != "one" {
		t.Errorf("unexpected query %q", session.Query)
	}

	// refreshing the first search makes the second one the oldest
	cache.set(1, SearchSession{Query: "one", CurPage: 1}, now.Add(2*time.Second))
	cache.set(3, SearchSession{Query: "three"}, now.Add(3*time.Second))

	if cache.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", cache.Len())
	}
	if _, err = cache.Get(ctx, 2); !errors.Is(err, ErrSearchNotFound) {
		t.Errorf("expected the oldest search to be evicted, got %v", err)
	}
	if session, err = cache.Get(ctx, 1); err != nil || session.CurPage != 1 {
		t.Errorf("expected updated search, got %+v, %v", session, err)
	}
	if _, err = cache.Get(ctx, 3); err != nil {
		t.Errorf("expected newest search, got %v", err)
	}
}

func TestMemorySearchCacheCopies(t *testing.T) {
	cache := NewMemorySearchCache(10)
	ctx := context.Background()
	if err := cache.Set(ctx, 1, SearchSession{Query: "one"}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	session, _ := cache.Get(ctx, 1)
	session.CurPage = 5

	if session, _ = cache.Get(ctx, 1); session.CurPage != 0 {
		t.Errorf("expected cached session to be unchanged, got page %d", session.CurPage)
	}
}
