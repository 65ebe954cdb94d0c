// Package router arma el árbol de rutas chi y la cadena de middlewares.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/weatherjohn/internal/http/controllers/health"
	weatherctrl "github.com/dropDatabas3/weatherjohn/internal/http/controllers/weather"
	httperrors "github.com/dropDatabas3/weatherjohn/internal/http/errors"
	mw "github.com/dropDatabas3/weatherjohn/internal/http/middlewares"
	"github.com/dropDatabas3/weatherjohn/internal/http/views"
	"github.com/dropDatabas3/weatherjohn/internal/rate"
)

const staticCacheControl = "public, max-age=86400"

// Deps contiene todo lo que el router necesita.
type Deps struct {
	Weather *weatherctrl.WeatherController
	Health  *healthctrl.HealthController

	// Metrics es el handler de Prometheus. nil => /metrics no se expone.
	Metrics     http.Handler
	MetricsPath string

	// Limiter opcional para / y /weather.json.
	Limiter rate.Limiter

	// TrustedProxies habilita X-Forwarded-For / X-Real-IP para esos peers.
	TrustedProxies mw.TrustedProxies
}

// New devuelve el handler raíz con todas las rutas y middlewares.
func New(deps Deps) http.Handler {
	metricsPath := deps.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.Write(w, req, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.Write(w, req, httperrors.ErrMethodNotAllowed)
	})

	// Probes y métricas
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		if deps.Health != nil {
			r.Get("/healthz", deps.Health.Healthz)
			r.Head("/healthz", deps.Health.Healthz)
			r.Get("/readyz", deps.Health.Readyz)
			r.Head("/readyz", deps.Health.Readyz)
		}
		if deps.Metrics != nil {
			r.Method(http.MethodGet, metricsPath, deps.Metrics)
		}
	})

	r.With(mw.WithCacheControl(staticCacheControl)).Handle("/static/*", views.StaticHandler())

	if deps.Weather != nil {
		r.Group(func(r chi.Router) {
			r.Use(mw.WithRateLimit(mw.RateLimitConfig{
				Limiter: deps.Limiter,
				KeyFunc: mw.IPOnlyRateKey,
			}))
			r.Get("/", deps.Weather.Index)
			r.Post("/", deps.Weather.Search)
			r.Get("/weather.json", deps.Weather.JSON)
		})
	}

	return mw.Chain(r,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithClientIP(deps.TrustedProxies),
		mw.WithLogging(),
		mw.WithMetrics(),
		mw.WithSecurityHeaders(),
	)
}
