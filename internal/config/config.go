package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	jwtx "github.com/dropDatabas3/weatherjohn/internal/jwt"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr         string `yaml:"addr"`
		BaseURL      string `yaml:"base_url"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// Credenciales y endpoint de WeatherKit.
	WeatherKit struct {
		TeamID         string   `yaml:"team_id"`
		AppID          string   `yaml:"app_id"`
		KeyID          string   `yaml:"key_id"`
		PrivateKey     string   `yaml:"private_key"`      // PEM inline
		PrivateKeyFile string   `yaml:"private_key_file"` // alternativa: ruta al .p8
		BaseURL        string   `yaml:"base_url"`
		Language       string   `yaml:"language"`
		DataSets       []string `yaml:"data_sets"`
		Timeout        string   `yaml:"timeout"`
		// TokenCache reutiliza la credencial hasta 10s antes de expirar.
		// Default false: se firma una credencial nueva por request.
		TokenCache bool `yaml:"token_cache"`
		// ReloadFromEnv relee TEAM_ID/APP_ID/KEY_ID/PRIVATE_KEY en cada emisión.
		ReloadFromEnv bool   `yaml:"reload_from_env"`
		CacheTTL      string `yaml:"cache_ttl"` // cache de respuestas por coordenada; "0" desactiva
	} `yaml:"weatherkit"`

	Geocode struct {
		BaseURL  string `yaml:"base_url"`
		AuthKey  string `yaml:"auth_key"` // geocode.xyz acepta auth= para cuentas pagas
		Timeout  string `yaml:"timeout"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"geocode"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis | none
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`

		// IPs o CIDRs de proxies cuyo X-Forwarded-For se acepta; vacío => solo RemoteAddr.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"rate"`

	Session struct {
		CookieName string   `yaml:"cookie_name"`
		Secrets    []string `yaml:"secrets"`
		TTL        string   `yaml:"ttl"`
		Secure     bool     `yaml:"secure"`
	} `yaml:"session"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Load lee el YAML (si path != ""), aplica env y defaults.
// Sin archivo, la configuración sale solo del entorno.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	// private_key_file relativo => respecto del directorio del YAML
	if p := strings.TrimSpace(c.WeatherKit.PrivateKeyFile); p != "" && path != "" && !filepath.IsAbs(p) {
		c.WeatherKit.PrivateKeyFile = filepath.Clean(filepath.Join(filepath.Dir(path), p))
	}
	if c.WeatherKit.PrivateKey == "" && c.WeatherKit.PrivateKeyFile != "" {
		b, err := os.ReadFile(c.WeatherKit.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("config: read private_key_file: %w", err)
		}
		c.WeatherKit.PrivateKey = string(b)
	}
	c.WeatherKit.PrivateKey = jwtx.NormalizePEM(c.WeatherKit.PrivateKey)

	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.WeatherKit.BaseURL == "" {
		c.WeatherKit.BaseURL = "https://weatherkit.apple.com"
	}
	if c.WeatherKit.Language == "" {
		c.WeatherKit.Language = "en-US"
	}
	if len(c.WeatherKit.DataSets) == 0 {
		c.WeatherKit.DataSets = []string{"currentWeather", "forecastHourly"}
	}
	if c.WeatherKit.Timeout == "" {
		c.WeatherKit.Timeout = "10s"
	}
	if c.WeatherKit.CacheTTL == "" {
		c.WeatherKit.CacheTTL = "1h"
	}
	if c.Geocode.BaseURL == "" {
		c.Geocode.BaseURL = "https://geocode.xyz"
	}
	if c.Geocode.Timeout == "" {
		c.Geocode.Timeout = "10s"
	}
	if c.Geocode.CacheTTL == "" {
		c.Geocode.CacheTTL = "24h"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "10m"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "weatherjohn:"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "__session"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "168h" // 1 semana
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	// Guardia: en prod la cookie siempre es Secure.
	if c.IsProd() {
		c.Session.Secure = true
	}
}

// IsProd reporta si app_env es prod/production.
func (c *Config) IsProd() bool {
	e := strings.ToLower(c.App.Env)
	return e == "prod" || e == "production"
}

// Identity devuelve la identidad de WeatherKit configurada.
func (c *Config) Identity() jwtx.Identity {
	return jwtx.Identity{
		TeamID:     c.WeatherKit.TeamID,
		AppID:      c.WeatherKit.AppID,
		KeyID:      c.WeatherKit.KeyID,
		PrivateKey: c.WeatherKit.PrivateKey,
	}
}

// Validate falla temprano ante configuración que haría fallar cada request.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Identity().Validate(); err != nil {
		errs = append(errs, err)
	} else if _, err := jwtx.ParseECPrivateKey(c.WeatherKit.PrivateKey); err != nil {
		errs = append(errs, err)
	}

	durations := map[string]string{
		"server.read_timeout":      c.Server.ReadTimeout,
		"server.write_timeout":     c.Server.WriteTimeout,
		"weatherkit.timeout":       c.WeatherKit.Timeout,
		"weatherkit.cache_ttl":     c.WeatherKit.CacheTTL,
		"geocode.timeout":          c.Geocode.Timeout,
		"geocode.cache_ttl":        c.Geocode.CacheTTL,
		"cache.memory.default_ttl": c.Cache.Memory.DefaultTTL,
		"rate.window":              c.Rate.Window,
		"session.ttl":              c.Session.TTL,
	}
	for name, v := range durations {
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
		}
	}

	switch c.Cache.Kind {
	case "memory", "none":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			errs = append(errs, errors.New("cache.redis.addr required when cache.kind=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind: unsupported %q", c.Cache.Kind))
	}

	if c.IsProd() && len(c.Session.Secrets) == 0 {
		errs = append(errs, errors.New("session.secrets required in prod"))
	}

	return errors.Join(errs...)
}

// Dur parsea una duración ya validada; ante error devuelve def.
func Dur(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// getEnvFirst devuelve la primera variable definida (nombre canónico primero, luego alias).
func getEnvFirst(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := getEnvStr(k); ok {
			return v, true
		}
	}
	return "", false
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvFirst("APP_ENV", "NODE_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SERVER
	if v, ok := getEnvFirst("SERVER_ADDR", "ADDR"); ok {
		c.Server.Addr = v
	} else if v, ok := getEnvStr("PORT"); ok {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := getEnvStr("SERVER_BASE_URL"); ok {
		c.Server.BaseURL = v
	}

	// WEATHERKIT (nombres cortos primero, alias APPLE_*/WEATHERKIT_* después)
	if v, ok := getEnvFirst("TEAM_ID", "APPLE_TEAM_ID"); ok {
		c.WeatherKit.TeamID = strings.TrimSpace(v)
	}
	if v, ok := getEnvFirst("APP_ID", "APPLE_APP_ID"); ok {
		c.WeatherKit.AppID = strings.TrimSpace(v)
	}
	if v, ok := getEnvFirst("KEY_ID", "APPLE_KEY_ID"); ok {
		c.WeatherKit.KeyID = strings.TrimSpace(v)
	}
	if v, ok := getEnvFirst("PRIVATE_KEY", "WEATHERKIT_PRIVATE_KEY"); ok {
		c.WeatherKit.PrivateKey = v
	}
	if v, ok := getEnvStr("PRIVATE_KEY_FILE"); ok {
		c.WeatherKit.PrivateKeyFile = v
	}
	if v, ok := getEnvStr("WEATHERKIT_BASE_URL"); ok {
		c.WeatherKit.BaseURL = v
	}
	if v, ok := getEnvStr("WEATHERKIT_LANGUAGE"); ok {
		c.WeatherKit.Language = v
	}
	if v, ok := getEnvCSV("WEATHERKIT_DATA_SETS"); ok && len(v) > 0 {
		c.WeatherKit.DataSets = v
	}
	if v, ok := getEnvBool("WEATHERKIT_TOKEN_CACHE"); ok {
		c.WeatherKit.TokenCache = v
	}
	if v, ok := getEnvBool("WEATHERKIT_RELOAD_FROM_ENV"); ok {
		c.WeatherKit.ReloadFromEnv = v
	}
	if v, ok := getEnvStr("WEATHERKIT_CACHE_TTL"); ok {
		c.WeatherKit.CacheTTL = v
	}

	// GEOCODE
	if v, ok := getEnvStr("GEOCODE_BASE_URL"); ok {
		c.Geocode.BaseURL = v
	}
	if v, ok := getEnvStr("GEOCODE_AUTH_KEY"); ok {
		c.Geocode.AuthKey = v
	}
	if v, ok := getEnvStr("GEOCODE_CACHE_TTL"); ok {
		c.Geocode.CacheTTL = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvCSV("RATE_TRUSTED_PROXIES"); ok {
		c.Rate.TrustedProxies = v
	}

	// SESSION
	if v, ok := getEnvCSV("SESSION_SECRETS"); ok {
		c.Session.Secrets = v
	}
	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Session.CookieName = v
	}
	if v, ok := getEnvBool("SESSION_SECURE"); ok {
		c.Session.Secure = v
	}

	// METRICS
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}
