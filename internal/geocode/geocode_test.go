package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/weatherjohn/internal/cache"
)

func newServer(t *testing.T, hits *atomic.Int32, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "1", r.URL.Query().Get("json"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookup_ParsesStringCoordinates(t *testing.T) {
	var hits atomic.Int32
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"latt":"42.33143","longt":"-83.04575","standard":{"city":"Detroit"}}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	got, err := c.Lookup(context.Background(), "New York")
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 42.33143, Lng: -83.04575}, got)
	assert.Equal(t, "42.33143", got.LatString())
	assert.Equal(t, "-83.04575", got.LngString())
	assert.Equal(t, "/New%20York", gotPath)
}

func TestLookup_ErrorPayloadIsNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, `{"error":{"code":"018","description":"Could not find"},"latt":"0.00000","longt":"0.00000"}`)

	_, err := New(Options{BaseURL: srv.URL}).Lookup(context.Background(), "zzzz")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLookup_Throttled(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, `{"error":{"code":"006","description":"Throttled"}}`)

	_, err := New(Options{BaseURL: srv.URL}).Lookup(context.Background(), "Detroit")
	require.ErrorIs(t, err, ErrThrottled)
}

func TestLookup_GarbageAndEmpty(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, `<html>nope</html>`)
	c := New(Options{BaseURL: srv.URL})

	_, err := c.Lookup(context.Background(), "Detroit")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.Lookup(context.Background(), "   ")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLookup_UsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, `{"latt":"1.5","longt":"2.5"}`)
	c := New(Options{BaseURL: srv.URL, Cache: cache.NewMemory("", 0), CacheTTL: time.Hour})

	for i := 0; i < 3; i++ {
		got, err := c.Lookup(context.Background(), "Detroit")
		require.NoError(t, err)
		assert.Equal(t, 1.5, got.Lat)
	}
	// normalizado: mayúsculas no generan otra entrada
	_, err := c.Lookup(context.Background(), "DETROIT")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLookup_ConcurrentCallsCollapse(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"latt":"1","longt":"2"}`))
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Lookup(context.Background(), "Detroit")
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, hits.Load(), int32(2))
}

func TestLookup_ZeroTTLSkipsCache(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, `{"latt":"1.5","longt":"2.5"}`)
	c := New(Options{BaseURL: srv.URL, Cache: cache.NewMemory("", 0), CacheTTL: 0})

	for i := 0; i < 3; i++ {
		_, err := c.Lookup(context.Background(), "Detroit")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestLookup_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"latt":"1","longt":"2"}`))
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, Cache: cache.NewMemory("", 0), CacheTTL: time.Hour})

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Lookup(leaderCtx, "Detroit")
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	follower := make(chan error, 1)
	go func() {
		got, err := c.Lookup(context.Background(), "Detroit")
		if err == nil {
			assert.Equal(t, 1.0, got.Lat)
		}
		follower <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	close(release)
	require.NoError(t, <-follower)

	// el fetch compartido dejó la entrada en cache
	_, err := c.Lookup(context.Background(), "Detroit")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}
