package buttercup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/json"

	"github.com/topi314/buttercup/blossom"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(DatabaseConfig{
		Enabled: true,
		Type:    DatabaseTypeSQLite,
		SQLite: SQLiteConfig{
			Path: filepath.Join(t.TempDir(), "buttercup.db"),
		},
	}, Schema)
	if err != nil {
		t.Fatalf("failed to open database: %s", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestDBSearchCache(t *testing.T) {
	db := newTestDB(t)
	cache := NewDBSearchCache(db, 2)
	ctx := context.Background()
	now := time.Date(2021, 9, 3, 10, 0, 0, 0, time.UTC)

	author := 3
	session := SearchSession{
		Query:         "hello",
		AuthorID:      &author,
		CurPage:       1,
		DiscordUserID: 42,
		RequestPage:   0,
		ResponseData: &blossom.Page[blossom.Transcription]{
			Count: 6,
			Results: []blossom.Transcription{
				{ID: 1, URL: json.Ptr("https://reddit.com/r/test/comments/a/b/c/"), Text: "hello"},
			},
		},
	}
	if err := cache.set(ctx, 1, session, now); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := cache.set(ctx, 2, SearchSession{Query: "two", DiscordUserID: 42}, now.Add(time.Second)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	got, err := cache.Get(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.Query != "hello" || got.CurPage != 1 || got.DiscordUserID != 42 {
		t.Errorf("unexpected session %+v", got)
	}
	if got.AuthorID == nil || *got.AuthorID != 3 {
		t.Errorf("unexpected author %v", got.AuthorID)
	}
	if got.ResponseData == nil || got.ResponseData.Count != 6 || len(got.ResponseData.Results) != 1 {
		t.Fatalf("unexpected response data %+v", got.ResponseData)
	}
	if url := got.ResponseData.Results[0].URL; url == nil || *url != "https://reddit.com/r/test/comments/a/b/c/" {
		t.Errorf("unexpected url %v", url)
	}

	got, err = cache.Get(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.AuthorID != nil || got.ResponseData != nil {
		t.Errorf("expected empty optional fields, got %+v", got)
	}

	// refresh the first search, the second one is evicted next
	session.CurPage = 2
	if err = cache.set(ctx, 1, session, now.Add(2*time.Second)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err = cache.set(ctx, 3, SearchSession{Query: "three"}, now.Add(3*time.Second)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if count, err := db.CountSearches(ctx); err != nil || count != 2 {
		t.Errorf("expected 2 searches, got %d, %v", count, err)
	}
	if _, err = cache.Get(ctx, 2); !errors.Is(err, ErrSearchNotFound) {
		t.Errorf("expected evicted search, got %v", err)
	}
	if got, err = cache.Get(ctx, 1); err != nil || got.CurPage != 2 {
		t.Errorf("expected updated search, got %+v, %v", got, err)
	}
}

func TestNewDBUnknownType(t *testing.T) {
	if _, err := NewDB(DatabaseConfig{Type: "mysql"}, Schema); err == nil {
		t.Error("expected an error for an unknown database type")
	}
}
