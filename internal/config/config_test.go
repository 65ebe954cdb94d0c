package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtx "github.com/dropDatabas3/weatherjohn/internal/jwt"
)

var envKeys = []string{
	"APP_ENV", "NODE_ENV", "LOG_LEVEL", "SERVER_ADDR", "ADDR", "PORT", "SERVER_BASE_URL",
	"TEAM_ID", "APPLE_TEAM_ID", "APP_ID", "APPLE_APP_ID", "KEY_ID", "APPLE_KEY_ID",
	"PRIVATE_KEY", "WEATHERKIT_PRIVATE_KEY", "PRIVATE_KEY_FILE",
	"WEATHERKIT_BASE_URL", "WEATHERKIT_LANGUAGE", "WEATHERKIT_DATA_SETS", "WEATHERKIT_TOKEN_CACHE",
	"WEATHERKIT_RELOAD_FROM_ENV", "WEATHERKIT_CACHE_TTL",
	"GEOCODE_BASE_URL", "GEOCODE_AUTH_KEY", "GEOCODE_CACHE_TTL",
	"CACHE_KIND", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PREFIX", "CACHE_MEMORY_DEFAULT_TTL",
	"RATE_ENABLED", "RATE_WINDOW", "RATE_MAX_REQUESTS", "RATE_TRUSTED_PROXIES",
	"SESSION_SECRETS", "SESSION_COOKIE_NAME", "SESSION_SECURE", "METRICS_ENABLED",
}

// clearEnv deja vacías las variables que Load consulta; vacío equivale a no definida.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func devKey(t *testing.T) string {
	t.Helper()
	ks, err := jwtx.NewDevP256("KEY1")
	require.NoError(t, err)
	p, err := ks.PrivatePEM()
	require.NoError(t, err)
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "https://weatherkit.apple.com", c.WeatherKit.BaseURL)
	assert.Equal(t, "en-US", c.WeatherKit.Language)
	assert.Equal(t, []string{"currentWeather", "forecastHourly"}, c.WeatherKit.DataSets)
	assert.Equal(t, "https://geocode.xyz", c.Geocode.BaseURL)
	assert.Equal(t, "memory", c.Cache.Kind)
	assert.Equal(t, "__session", c.Session.CookieName)
	assert.Equal(t, 60, c.Rate.MaxRequests)
	assert.False(t, c.Session.Secure)
	assert.False(t, c.WeatherKit.TokenCache)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	key := devKey(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AuthKey.p8"), []byte(key), 0o600))

	yml := `
app:
  app_env: staging
server:
  addr: ":9000"
weatherkit:
  team_id: TEAM1
  app_id: APP1
  key_id: KEY1
  private_key_file: AuthKey.p8
  data_sets: [currentWeather]
  token_cache: true
cache:
  kind: redis
  redis:
    addr: "redis:6379"
    password: from-yaml
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("PORT", "7000") // sin SERVER_ADDR/ADDR, PORT pisa el addr del YAML
	t.Setenv("KEY_ID", "KEY2")
	t.Setenv("APPLE_KEY_ID", "ignored")
	t.Setenv("SESSION_SECRETS", "a, b,,c")
	t.Setenv("REDIS_PASSWORD", "s3cret")
	t.Setenv("RATE_TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", c.App.Env)
	assert.Equal(t, ":7000", c.Server.Addr)
	assert.Equal(t, "TEAM1", c.WeatherKit.TeamID)
	assert.Equal(t, "KEY2", c.WeatherKit.KeyID)
	assert.Equal(t, strings.TrimSpace(key), c.WeatherKit.PrivateKey)
	assert.Equal(t, []string{"currentWeather"}, c.WeatherKit.DataSets)
	assert.True(t, c.WeatherKit.TokenCache)
	assert.Equal(t, []string{"a", "b", "c"}, c.Session.Secrets)
	assert.Equal(t, "redis:6379", c.Cache.Redis.Addr)
	assert.Equal(t, "s3cret", c.Cache.Redis.Password)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, c.Rate.TrustedProxies)
	require.NoError(t, c.Validate())
}

func TestLoad_EscapedNewlinesInEnvKey(t *testing.T) {
	clearEnv(t)
	key := devKey(t)
	t.Setenv("WEATHERKIT_PRIVATE_KEY", strings.ReplaceAll(key, "\n", `\n`))

	c, err := Load("")
	require.NoError(t, err)
	_, err = jwtx.ParseECPrivateKey(c.WeatherKit.PrivateKey)
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	key := devKey(t)

	valid := func() *Config {
		c, err := Load("")
		require.NoError(t, err)
		c.WeatherKit.TeamID, c.WeatherKit.AppID, c.WeatherKit.KeyID = "T", "A", "K"
		c.WeatherKit.PrivateKey = key
		return c
	}
	require.NoError(t, valid().Validate())

	c := valid()
	c.WeatherKit.TeamID = ""
	assert.ErrorIs(t, c.Validate(), jwtx.ErrMissingTeamID)

	c = valid()
	c.WeatherKit.PrivateKey = "not a key"
	assert.ErrorIs(t, c.Validate(), jwtx.ErrInvalidPrivateKey)

	c = valid()
	c.Rate.Window = "soon"
	assert.ErrorContains(t, c.Validate(), "rate.window")

	c = valid()
	c.Cache.Kind = "redis"
	assert.ErrorContains(t, c.Validate(), "cache.redis.addr")

	c = valid()
	c.Cache.Kind = "memcached"
	assert.ErrorContains(t, c.Validate(), "cache.kind")

	c = valid()
	c.App.Env = "prod"
	assert.ErrorContains(t, c.Validate(), "session.secrets")
}

func TestProdForcesSecureCookie(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	c, err := Load("")
	require.NoError(t, err)
	assert.True(t, c.IsProd())
	assert.True(t, c.Session.Secure)
}

func TestDur(t *testing.T) {
	assert.Equal(t, 5*time.Second, Dur("5s", time.Minute))
	assert.Equal(t, time.Minute, Dur("nope", time.Minute))
}
