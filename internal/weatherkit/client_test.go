package weatherkit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/weatherjohn/internal/cache"
	jwtx "github.com/dropDatabas3/weatherjohn/internal/jwt"
)

const sampleWeather = `{
  "currentWeather": {
    "name": "CurrentWeather",
    "metadata": {"attributionURL": "https://weatherkit.apple.com/legal-attribution.html", "expireTime": "2026-03-01T12:05:00Z", "latitude": 42.33, "longitude": -83.05, "readTime": "2026-03-01T12:00:00Z", "reportedTime": "2026-03-01T11:55:00Z", "units": "m", "version": 1},
    "asOf": "2026-03-01T12:00:00Z",
    "conditionCode": "PartlyCloudy",
    "daylight": true,
    "humidity": 0.62,
    "temperature": 21.3,
    "temperatureApparent": 20.1,
    "uvIndex": 4
  },
  "forecastHourly": {
    "name": "HourlyForecast",
    "metadata": {"attributionURL": "https://weatherkit.apple.com/legal-attribution.html", "expireTime": "2026-03-01T13:00:00Z", "latitude": 42.33, "longitude": -83.05, "readTime": "2026-03-01T12:00:00Z", "version": 1},
    "hours": [
      {"forecastStart": "2026-03-01T15:00:00Z", "conditionCode": "Cloudy", "daylight": true, "precipitationChance": 0.3, "temperature": 18, "uvIndex": 6},
      {"forecastStart": "2026-03-01T16:00:00Z", "conditionCode": "Rain", "daylight": true, "precipitationChance": 0.9, "temperature": 17, "uvIndex": 1}
    ]
  }
}`

type fakeCreds struct {
	n           atomic.Int32
	err         error
	invalidated atomic.Int32
}

func (f *fakeCreds) Issue() (string, error) {
	f.n.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return "Bearer h.c.s", nil
}

func (f *fakeCreds) Invalidate() { f.invalidated.Add(1) }

func TestWeather_RequestShapeAndDecode(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotAuth = r.URL.Path, r.URL.Query().Get("dataSets"), r.Header.Get("Authorization")
		_, _ = w.Write([]byte(sampleWeather))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Credentials: &fakeCreds{}})
	w, err := c.Weather(context.Background(), 42.33143, -83.04575)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/weather/en-US/42.33143/-83.04575", gotPath)
	assert.Equal(t, "currentWeather,forecastHourly", gotQuery)
	assert.Equal(t, "Bearer h.c.s", gotAuth)

	require.NotNil(t, w.CurrentWeather)
	assert.Equal(t, "PartlyCloudy", w.CurrentWeather.ConditionCode)
	assert.Equal(t, 21.3, w.CurrentWeather.Temperature)
	assert.Equal(t, "https://weatherkit.apple.com/legal-attribution.html", w.CurrentWeather.Metadata.AttributionURL)
	require.NotNil(t, w.ForecastHourly)
	require.Len(t, w.ForecastHourly.Hours, 2)
	assert.Equal(t, time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC), w.ForecastHourly.Hours[1].ForecastStart)
	assert.Nil(t, w.ForecastDaily)
}

func TestWeather_CredentialFailureSkipsUpstream(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Credentials: &fakeCreds{err: jwtx.ErrMissingKeyID}})
	_, err := c.Weather(context.Background(), 1, 2)
	require.ErrorIs(t, err, ErrCredential)
	require.ErrorIs(t, err, jwtx.ErrMissingKeyID)
	assert.Equal(t, int32(0), hits.Load())
}

func TestWeather_UpstreamErrorAndInvalidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"reason":"NOT_ENABLED"}`))
	}))
	defer srv.Close()

	creds := &fakeCreds{}
	c := New(Options{BaseURL: srv.URL, Credentials: creds})
	_, err := c.Weather(context.Background(), 1, 2)

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
	assert.Contains(t, ue.Error(), "NOT_ENABLED")
	assert.Equal(t, int32(1), creds.invalidated.Load())
}

func TestWeather_CachesByCoordinate(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(sampleWeather))
	}))
	defer srv.Close()

	creds := &fakeCreds{}
	c := New(Options{BaseURL: srv.URL, Credentials: creds, Cache: cache.NewMemory("", 0), CacheTTL: time.Hour})

	for i := 0; i < 3; i++ {
		w, err := c.Weather(context.Background(), 1.5, 2.5)
		require.NoError(t, err)
		assert.Equal(t, "PartlyCloudy", w.CurrentWeather.ConditionCode)
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, int32(1), creds.n.Load())

	_, err := c.Weather(context.Background(), 1.5, 2.6)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestWeather_ZeroTTLSkipsCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(sampleWeather))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Credentials: &fakeCreds{}, Cache: cache.NewMemory("", 0), CacheTTL: 0})
	for i := 0; i < 3; i++ {
		_, err := c.Weather(context.Background(), 1.5, 2.5)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), hits.Load())
}

// blockingServer responde recién cuando se cierra release.
func blockingServer(t *testing.T, hits *atomic.Int32) (*httptest.Server, chan struct{}) {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(sampleWeather))
	}))
	t.Cleanup(srv.Close)
	return srv, release
}

func TestWeather_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var hits atomic.Int32
	srv, release := blockingServer(t, &hits)
	c := New(Options{BaseURL: srv.URL, Credentials: &fakeCreds{}})

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Weather(leaderCtx, 1, 2)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		w   *Weather
		err error
	}
	follower := make(chan result, 1)
	go func() {
		w, err := c.Weather(context.Background(), 1, 2)
		follower <- result{w, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	res := <-follower
	require.NoError(t, res.err)
	assert.Equal(t, "PartlyCloudy", res.w.CurrentWeather.ConditionCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestWeather_CollapsedCallsFillCache(t *testing.T) {
	var hits atomic.Int32
	srv, release := blockingServer(t, &hits)
	c := New(Options{BaseURL: srv.URL, Credentials: &fakeCreds{}, Cache: cache.NewMemory("", 0), CacheTTL: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Weather(context.Background(), 3, 4)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	before := hits.Load()
	_, err := c.Weather(context.Background(), 3, 4)
	require.NoError(t, err)
	assert.Equal(t, before, hits.Load())
}

func TestWeather_WithRealIssuer(t *testing.T) {
	ks, err := jwtx.NewDevP256("KEY1")
	require.NoError(t, err)
	pem, err := ks.PrivatePEM()
	require.NoError(t, err)

	var claims *jwtx.CredentialClaims
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var verr error
		claims, verr = jwtx.VerifyES256(r.Header.Get("Authorization"), &ks.Priv.PublicKey)
		if verr != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	iss := jwtx.NewIssuer(jwtx.StaticIdentity{TeamID: "TEAM1", AppID: "APP1", KeyID: "KEY1", PrivateKey: pem})
	_, err = New(Options{BaseURL: srv.URL, Credentials: iss}).Weather(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, "TEAM1.APP1", claims.ID)
}
