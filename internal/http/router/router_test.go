package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/weatherjohn/internal/cache"
	"github.com/dropDatabas3/weatherjohn/internal/geocode"
	healthctrl "github.com/dropDatabas3/weatherjohn/internal/http/controllers/health"
	weatherctrl "github.com/dropDatabas3/weatherjohn/internal/http/controllers/weather"
	dto "github.com/dropDatabas3/weatherjohn/internal/http/dto/weather"
	healthsvc "github.com/dropDatabas3/weatherjohn/internal/http/services/health"
	"github.com/dropDatabas3/weatherjohn/internal/http/views"
	jwtx "github.com/dropDatabas3/weatherjohn/internal/jwt"
	"github.com/dropDatabas3/weatherjohn/internal/rate"
	"github.com/dropDatabas3/weatherjohn/internal/session"
	"github.com/dropDatabas3/weatherjohn/internal/weatherkit"
)

type stubWeather struct{}

func (stubWeather) Resolve(context.Context, string) (geocode.Coordinates, error) {
	return geocode.Coordinates{Lat: 1, Lng: 2}, nil
}

func (stubWeather) Forecast(context.Context, float64, float64) (*weatherkit.Weather, error) {
	return &weatherkit.Weather{}, nil
}

func (stubWeather) Page(context.Context, dto.PageQuery) (*dto.PageData, error) {
	return &dto.PageData{Title: "Welcome to Go + WeatherKit", Placeholder: "Detroit"}, nil
}

func newHandler(t *testing.T, limiter rate.Limiter) http.Handler {
	t.Helper()
	sessions, err := session.NewManager(session.Options{Secrets: []string{"k"}})
	require.NoError(t, err)

	health := healthctrl.NewHealthController(healthsvc.NewHealthService(healthsvc.Deps{
		Identity:    jwtx.StaticIdentity{},
		CacheDriver: "none",
	}))

	return New(Deps{
		Weather: weatherctrl.NewWeatherController(stubWeather{}, sessions, views.Must()),
		Health:  health,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		Limiter: limiter,
	})
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	h := newHandler(t, nil)

	cases := []struct {
		method, target string
		status         int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/weather.json?lat=1&lng=2", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusServiceUnavailable},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/static/icons.svg", http.StatusOK},
		{http.MethodGet, "/static/app.css", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodDelete, "/", http.StatusMethodNotAllowed},
		{http.MethodPost, "/weather.json", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		rec := serve(h, tc.method, tc.target)
		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.method, tc.target)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), "%s %s", tc.method, tc.target)
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	}
}

func TestStaticIcons(t *testing.T) {
	rec := serve(newHandler(t, nil), http.MethodGet, "/static/icons.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "image/svg+xml")
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	for _, id := range []string{"cloud", "cloud-sun", "cloud-moon", "cloud-rain", "cloud-lightning", "snowflake", "sun"} {
		assert.Contains(t, rec.Body.String(), `id="`+id+`"`)
	}
}

func TestRateLimitOnlyOnPageRoutes(t *testing.T) {
	h := newHandler(t, rate.NewMemoryLimiter(cache.NewMemory("", 0), 1, time.Minute))

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet, "/").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet, "/weather.json?lat=1&lng=2").Code)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/static/icons.svg").Code)
}
