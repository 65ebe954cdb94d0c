package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/weatherjohn/internal/cache"
	"github.com/dropDatabas3/weatherjohn/internal/config"
	jwtx "github.com/dropDatabas3/weatherjohn/internal/jwt"
	"github.com/dropDatabas3/weatherjohn/internal/rate"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	ks, err := jwtx.NewDevP256("KEY1")
	require.NoError(t, err)
	pem, err := ks.PrivatePEM()
	require.NoError(t, err)

	var c config.Config
	c.Cache.Kind = "memory"
	c.WeatherKit.TeamID = "TEAM1"
	c.WeatherKit.AppID = "APP1"
	c.WeatherKit.KeyID = "KEY1"
	c.WeatherKit.PrivateKey = pem
	c.Session.Secrets = []string{"secret"}
	c.Session.CookieName = "__session"
	c.Session.TTL = "1h"
	return &c
}

func TestBuild_ServesProbes(t *testing.T) {
	app, err := Build(testConfig(t), BuildInfo{Version: "test", Commit: "abc"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Service-Version"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	cacheStatus := body["components"].(map[string]any)["cache"].(map[string]any)
	assert.Equal(t, "memory", cacheStatus["cache"].(map[string]any)["driver"])

	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to Go + WeatherKit")
}

func TestBuild_TokenCacheWrapsIssuer(t *testing.T) {
	cfg := testConfig(t)
	app, err := Build(cfg, BuildInfo{})
	require.NoError(t, err)
	_, ok := app.Credentials.(*jwtx.Issuer)
	assert.True(t, ok)

	cfg.WeatherKit.TokenCache = true
	app, err = Build(cfg, BuildInfo{})
	require.NoError(t, err)
	_, ok = app.Credentials.(*jwtx.CachingIssuer)
	assert.True(t, ok)

	tok, err := app.Credentials.Issue()
	require.NoError(t, err)
	assert.Regexp(t, `^Bearer `, tok)
}

func TestBuildLimiter(t *testing.T) {
	cfg := testConfig(t)
	assert.Nil(t, buildLimiter(cfg, cache.NewMemory("", 0)))

	cfg.Rate.Enabled = true
	cfg.Rate.MaxRequests = 5
	_, ok := buildLimiter(cfg, cache.NewMemory("", 0)).(*rate.MemoryLimiter)
	assert.True(t, ok)

	l, ok := buildLimiter(cfg, cache.Noop{}).(*rate.MemoryLimiter)
	require.True(t, ok)
	assert.EqualValues(t, 5, l.Max)
}

func TestBuild_RejectsInvalidTrustedProxies(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate.TrustedProxies = []string{"10.0.0.0/99"}
	_, err := Build(cfg, BuildInfo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate.trusted_proxies")
}
