// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeformat/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cf:doi:10.1038/nature12345", DOIKey(" 10.1038/NATURE12345 "))

	a := SearchKey(map[string]string{"query.title": "Deep learning", "filter": "from-pub-date:2015,until-pub-date:2015"})
	b := SearchKey(map[string]string{"filter": "from-pub-date:2015,until-pub-date:2015", "query.title": "Deep learning"})
	c := SearchKey(map[string]string{"query.title": "Deep learning"})

	assert.True(t, strings.HasPrefix(a, "cf:search:"))
	assert.Len(t, strings.TrimPrefix(a, "cf:search:"), 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	c.Set(context.Background(), "k", []byte("v"), 0)
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestCounting(t *testing.T) {
	b, err := OpenBadger("", discardLogger())
	require.NoError(t, err)
	defer b.Close()

	c := NewCounting(b)
	ctx := context.Background()

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	c.Set(ctx, "a", []byte("1"), 0)
	v, ok := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

// backendContract exercises the behaviour every backend shares.
func backendContract(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok := c.Get(ctx, "cf:doi:missing")
	assert.False(t, ok, "missing key")

	c.Set(ctx, "cf:doi:10.1/x", []byte(`{"DOI":"10.1/x"}`), 0)
	v, ok := c.Get(ctx, "cf:doi:10.1/x")
	require.True(t, ok)
	assert.JSONEq(t, `{"DOI":"10.1/x"}`, string(v))

	c.Set(ctx, "cf:doi:10.1/x", []byte(`{"DOI":"10.1/y"}`), time.Hour)
	v, ok = c.Get(ctx, "cf:doi:10.1/x")
	require.True(t, ok)
	assert.JSONEq(t, `{"DOI":"10.1/y"}`, string(v), "last write wins")
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache", "cache.db"), discardLogger())
	require.NoError(t, err)
	defer s.Close()

	backendContract(t, s)
}

func TestSQLite_Expiry(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"), discardLogger())
	require.NoError(t, err)
	defer s.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	s.Set(ctx, "search", []byte("[]"), DefaultSearchTTL)
	s.Set(ctx, "doi", []byte("{}"), 0)

	now = now.Add(DefaultSearchTTL - time.Minute)
	_, ok := s.Get(ctx, "search")
	assert.True(t, ok, "within ttl")

	now = now.Add(2 * time.Minute)
	_, ok = s.Get(ctx, "search")
	assert.False(t, ok, "past ttl")
	_, ok = s.Get(ctx, "doi")
	assert.True(t, ok, "no expiry")
}

func TestSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite("", discardLogger())
	assert.Error(t, err)
}

func TestBadger(t *testing.T) {
	b, err := OpenBadger("", discardLogger())
	require.NoError(t, err)
	defer b.Close()

	backendContract(t, b)
}

func TestBadger_TTL(t *testing.T) {
	b, err := OpenBadger("", discardLogger())
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	b.Set(ctx, "search", []byte("[]"), DefaultSearchTTL)
	b.Set(ctx, "doi", []byte("{}"), 0)

	expiry := func(key string) uint64 {
		var at uint64
		require.NoError(t, b.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if err != nil {
				return err
			}
			at = item.ExpiresAt()
			return nil
		}))
		return at
	}
	assert.NotZero(t, expiry("search"))
	assert.Zero(t, expiry("doi"))
}

// fakeUpstash is an in-memory stand-in for the Upstash REST API.
type fakeUpstash struct {
	mu    sync.Mutex
	data  map[string]string
	ex    map[string]string
	token string
}

func newFakeUpstash(token string) *fakeUpstash {
	return &fakeUpstash{data: map[string]string{}, ex: map[string]string{}, token: token}
}

func (f *fakeUpstash) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/get/"):
		key := strings.TrimPrefix(r.URL.Path, "/get/")
		v, ok := f.data[key]
		if !ok {
			w.Write([]byte(`{"result":null}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"result": v})
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/set/"):
		key := strings.TrimPrefix(r.URL.Path, "/set/")
		body, _ := io.ReadAll(r.Body)
		f.data[key] = string(body)
		f.ex[key] = r.URL.Query().Get("EX")
		w.Write([]byte(`{"result":"OK"}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unknown command"}`))
	}
}

func TestUpstash(t *testing.T) {
	fake := newFakeUpstash("secret")
	ts := httptest.NewServer(fake)
	defer ts.Close()

	u, err := NewUpstash(ts.URL+"/", "secret", discardLogger())
	require.NoError(t, err)

	backendContract(t, u)

	u.Set(context.Background(), "cf:search:abc", []byte("[]"), DefaultSearchTTL)
	fake.mu.Lock()
	assert.Equal(t, "604800", fake.ex["cf:search:abc"])
	assert.Equal(t, "3600", fake.ex["cf:doi:10.1/x"])
	fake.mu.Unlock()
}

func TestUpstash_FailSilent(t *testing.T) {
	ts := httptest.NewServer(newFakeUpstash("secret"))
	defer ts.Close()

	u, err := NewUpstash(ts.URL, "wrong", discardLogger())
	require.NoError(t, err)

	u.Set(context.Background(), "k", []byte("v"), 0)
	_, ok := u.Get(context.Background(), "k")
	assert.False(t, ok)

	ts.Close()
	_, ok = u.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.CacheConfig
		wantNop bool
	}{
		{"none", types.CacheConfig{Backend: types.CacheNone}, true},
		{"empty", types.CacheConfig{}, true},
		{"sqlite", types.CacheConfig{Backend: types.CacheSQLite, Path: filepath.Join(t.TempDir(), "c.db")}, false},
		{"badger", types.CacheConfig{Backend: types.CacheBadger, Path: filepath.Join(t.TempDir(), "badger")}, false},
		{"upstash without credentials", types.CacheConfig{Backend: types.CacheUpstash}, true},
		{"sqlite without path", types.CacheConfig{Backend: types.CacheSQLite}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Open(tt.cfg, discardLogger())
			defer b.Close()
			_, isNop := b.(Nop)
			assert.Equal(t, tt.wantNop, isNop)
		})
	}
}
