package blossom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disgoorg/log"
)

type testServer struct {
	*httptest.Server
	logins     atomic.Int32
	rejectNext atomic.Bool
}

func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) *testServer {
	t.Helper()
	ts := &testServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("email") != "bot@example.com" || r.PostForm.Get("password") != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := ts.logins.Add(1)
		_, _ = fmt.Fprintf(w, `{"access":"access-%d","refresh":"refresh"}`, n)
	})
	for path, handler := range routes {
		handler := handler
		mux.HandleFunc("/api/"+path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Api-Key") != "key" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			if ts.rejectNext.CompareAndSwap(true, false) || r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			handler(w, r)
		})
	}
	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(ts *testServer) *Client {
	return New(log.New(log.LstdFlags), Config{
		BaseURL:  ts.URL + "/api",
		Email:    "bot@example.com",
		Password: "hunter2",
		APIKey:   "key",
	})
}

func TestGetUser(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"volunteer/": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("username") != "Tim_Burton" {
				_, _ = w.Write([]byte(`{"count":0,"results":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"count":1,"results":[{"id":3,"username":"Tim_Burton","gamma":512,"date_joined":"2021-06-02T12:34:56Z"}]}`))
		},
	})
	c := newTestClient(ts)

	user, err := c.GetUser(context.Background(), "Tim_Burton")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if user.ID != 3 || user.Gamma != 512 || user.Username != "Tim_Burton" {
		t.Errorf("unexpected user: %+v", user)
	}
	if !user.DateJoined.Equal(time.Date(2021, 6, 2, 12, 34, 56, 0, time.UTC)) {
		t.Errorf("unexpected date joined: %s", user.DateJoined)
	}

	if _, err = c.GetUser(context.Background(), "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	if n := ts.logins.Load(); n != 1 {
		t.Errorf("expected one login, got %d", n)
	}
}

func TestReloginOnUnauthorized(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"submission/": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("page_size") != "1" || q.Get("completed_by__isnull") != "false" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"count":123456,"results":[{}]}`))
		},
	})
	c := newTestClient(ts)

	if _, err := c.TotalGamma(context.Background()); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ts.rejectNext.Store(true)
	gamma, err := c.TotalGamma(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if gamma != 123456 {
		t.Errorf("expected gamma 123456, got %d", gamma)
	}
	if n := ts.logins.Load(); n != 2 {
		t.Errorf("expected two logins, got %d", n)
	}
}

func TestSearchTranscriptions(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"transcription/": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			want := map[string]string{
				"text__icontains": "hello world",
				"url__isnull":     "false",
				"ordering":        "-create_time",
				"page_size":       "25",
				"page":            "2",
				"author":          "7",
			}
			for k, v := range want {
				if q.Get(k) != v {
					t.Errorf("query %s: expected %q, got %q", k, v, q.Get(k))
				}
			}
			_, _ = w.Write([]byte(`{"count":26,"next":null,"previous":"x","results":[{"id":1,"url":"https://reddit.com/r/test/comments/a/b/c/","text":"hello world","create_time":"2021-09-03T10:00:00Z"}]}`))
		},
	})
	c := newTestClient(ts)

	author := 7
	page, err := c.SearchTranscriptions(context.Background(), TranscriptionQuery{
		Text:     "hello world",
		AuthorID: &author,
		PageSize: 25,
		Page:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if page.Count != 26 || len(page.Results) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Results[0].URL == nil || *page.Results[0].URL != "https://reddit.com/r/test/comments/a/b/c/" {
		t.Errorf("unexpected url: %v", page.Results[0].URL)
	}
}

func TestHeatmap(t *testing.T) {
	after := time.Date(2021, 9, 3, 0, 0, 0, 0, time.UTC)
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"submission/heatmap/": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("utc_offset") != "3600" {
				t.Errorf("unexpected utc_offset %q", q.Get("utc_offset"))
			}
			if q.Get("complete_time__gte") != "2021-09-03T00:00:00Z" {
				t.Errorf("unexpected complete_time__gte %q", q.Get("complete_time__gte"))
			}
			if q.Has("completed_by") || q.Has("complete_time__lte") {
				t.Errorf("unset parameters must be omitted: %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`[{"day":1,"hour":0,"count":4},{"day":7,"hour":23,"count":2}]`))
		},
	})
	c := newTestClient(ts)

	entries, err := c.Heatmap(context.Background(), HeatmapQuery{
		UTCOffset: 3600,
		After:     &after,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(entries) != 2 || entries[1] != (HeatmapEntry{Day: 7, Hour: 23, Count: 2}) {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestErrorResponse(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"transcription/": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom\n"))
		},
	})
	c := newTestClient(ts)

	_, err := c.SearchTranscriptions(context.Background(), TranscriptionQuery{Text: "x", PageSize: 25, Page: 1})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Body != "boom" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestLoginFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	c := New(log.New(log.LstdFlags), Config{
		BaseURL:  ts.URL + "/api/",
		Email:    "bot@example.com",
		Password: "wrong",
		APIKey:   "key",
	})

	_, err := c.GetUser(context.Background(), "someone")
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected unauthorized login error, got %v", err)
	}
}
