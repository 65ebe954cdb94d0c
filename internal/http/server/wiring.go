// Package server arma la aplicación completa a partir de la configuración.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/weatherjohn/internal/cache"
	"github.com/dropDatabas3/weatherjohn/internal/config"
	"github.com/dropDatabas3/weatherjohn/internal/geocode"
	healthctrl "github.com/dropDatabas3/weatherjohn/internal/http/controllers/health"
	weatherctrl "github.com/dropDatabas3/weatherjohn/internal/http/controllers/weather"
	mw "github.com/dropDatabas3/weatherjohn/internal/http/middlewares"
	"github.com/dropDatabas3/weatherjohn/internal/http/router"
	healthsvc "github.com/dropDatabas3/weatherjohn/internal/http/services/health"
	weathersvc "github.com/dropDatabas3/weatherjohn/internal/http/services/weather"
	"github.com/dropDatabas3/weatherjohn/internal/http/views"
	jwtx "github.com/dropDatabas3/weatherjohn/internal/jwt"
	"github.com/dropDatabas3/weatherjohn/internal/observability/logger"
	"github.com/dropDatabas3/weatherjohn/internal/rate"
	"github.com/dropDatabas3/weatherjohn/internal/session"
	"github.com/dropDatabas3/weatherjohn/internal/weatherkit"
)

// BuildInfo se inyecta por ldflags en cmd/service.
type BuildInfo struct {
	Version string
	Commit  string
}

// App agrupa el handler y las piezas que los CLIs reutilizan.
type App struct {
	Handler     http.Handler
	Cache       cache.Client
	Credentials jwtx.CredentialSource
	Identity    jwtx.IdentitySource
	Geocoder    *geocode.Client
	Weather     *weatherkit.Client
	Service     weathersvc.WeatherService

	cleanup []func() error
}

// Close libera recursos (conexión a Redis).
func (a *App) Close() error {
	var first error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build crea todas las dependencias. cfg ya debe estar validado.
func Build(cfg *config.Config, info BuildInfo) (*App, error) {
	log := logger.L().With(logger.Component("wiring"))
	app := &App{}

	// 1. Cache compartida (geocode, weatherkit y rate limit en memoria)
	cc, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: config.Dur(cfg.Cache.Memory.DefaultTTL, 10*time.Minute),
	})
	if err != nil {
		return nil, fmt.Errorf("cache init failed: %w", err)
	}
	app.Cache = cc
	app.cleanup = append(app.cleanup, cc.Close)
	log.Info("cache ready", logger.String("kind", cfg.Cache.Kind))

	// 2. Identidad + emisor de credenciales
	if cfg.WeatherKit.ReloadFromEnv {
		app.Identity = jwtx.EnvIdentity{}
	} else {
		app.Identity = jwtx.StaticIdentity(cfg.Identity())
	}
	issuer := jwtx.NewIssuer(app.Identity)
	app.Credentials = issuer
	if cfg.WeatherKit.TokenCache {
		app.Credentials = jwtx.NewCachingIssuer(issuer, jwtx.DefaultRenewBefore)
	}

	// 3. Upstreams
	app.Geocoder = geocode.New(geocode.Options{
		BaseURL:  cfg.Geocode.BaseURL,
		AuthKey:  cfg.Geocode.AuthKey,
		HTTP:     &http.Client{Timeout: config.Dur(cfg.Geocode.Timeout, 10*time.Second)},
		Cache:    cc,
		CacheTTL: config.Dur(cfg.Geocode.CacheTTL, 24*time.Hour),
	})
	app.Weather = weatherkit.New(weatherkit.Options{
		BaseURL:     cfg.WeatherKit.BaseURL,
		Language:    cfg.WeatherKit.Language,
		DataSets:    cfg.WeatherKit.DataSets,
		Credentials: app.Credentials,
		HTTP:        &http.Client{Timeout: config.Dur(cfg.WeatherKit.Timeout, 10*time.Second)},
		Cache:       cc,
		CacheTTL:    config.Dur(cfg.WeatherKit.CacheTTL, time.Hour),
	})
	app.Service = weathersvc.NewWeatherService(weathersvc.Deps{
		Geocoder: app.Geocoder,
		Weather:  app.Weather,
	})

	// 4. Sesión
	sessions, err := session.NewManager(session.Options{
		CookieName: cfg.Session.CookieName,
		Secrets:    cfg.Session.Secrets,
		TTL:        config.Dur(cfg.Session.TTL, session.DefaultTTL),
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("session init failed: %w", err)
	}

	renderer, err := views.New()
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("templates: %w", err)
	}

	// 5. Métricas (antes del router: WithMetrics es no-op sin registro)
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler, err = mw.RegisterMetrics(nil)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("metrics init failed: %w", err)
		}
	}

	trusted, err := mw.ParseTrustedProxies(cfg.Rate.TrustedProxies)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("rate.trusted_proxies: %w", err)
	}

	// 6. Health
	healthDeps := healthsvc.Deps{
		Identity:    app.Identity,
		CacheDriver: strings.ToLower(cfg.Cache.Kind),
		Version:     info.Version,
		Commit:      info.Commit,
	}
	if healthDeps.CacheDriver != "none" {
		healthDeps.CacheStats = cc.Stats
	}

	app.Handler = router.New(router.Deps{
		Weather:     weatherctrl.NewWeatherController(app.Service, sessions, renderer),
		Health:      healthctrl.NewHealthController(healthsvc.NewHealthService(healthDeps)),
		Metrics:     metricsHandler,
		MetricsPath: cfg.Metrics.Path,
		Limiter:     buildLimiter(cfg, cc),

		TrustedProxies: trusted,
	})
	return app, nil
}

// buildLimiter elige backend según la cache: Redis compartido entre réplicas,
// si no un contador en memoria.
func buildLimiter(cfg *config.Config, cc cache.Client) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	window := config.Dur(cfg.Rate.Window, time.Minute)
	maxReq := cfg.Rate.MaxRequests

	if rc, ok := cc.(interface{ Redis() *redis.Client }); ok {
		return rate.NewRedisLimiter(rc.Redis(), cfg.Cache.Redis.Prefix+"rl:", maxReq, window)
	}
	if counter, ok := cc.(rate.Counter); ok {
		return rate.NewMemoryLimiter(counter, maxReq, window)
	}
	return rate.NewMemoryLimiter(cache.NewMemory("", window), maxReq, window)
}

// Ping chequea la cache al arrancar; un Redis caído degrada pero no impide servir.
func (a *App) Ping(ctx context.Context) error {
	return a.Cache.Ping(ctx)
}
