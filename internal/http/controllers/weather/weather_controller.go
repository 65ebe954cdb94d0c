// Package weather contiene el controller de la página y de /weather.json.
package weather

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	dto "github.com/dropDatabas3/weatherjohn/internal/http/dto/weather"
	httperrors "github.com/dropDatabas3/weatherjohn/internal/http/errors"
	svc "github.com/dropDatabas3/weatherjohn/internal/http/services/weather"
	"github.com/dropDatabas3/weatherjohn/internal/observability/logger"
	"github.com/dropDatabas3/weatherjohn/internal/session"
)

const weatherCacheControl = "private, max-age=3600"

// Renderer es lo que el controller necesita de views.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data any) error
}

// WeatherController maneja GET/POST / y GET /weather.json.
type WeatherController struct {
	service  svc.WeatherService
	sessions *session.Manager
	views    Renderer
}

// NewWeatherController crea el controller.
func NewWeatherController(service svc.WeatherService, sessions *session.Manager, views Renderer) *WeatherController {
	return &WeatherController{service: service, sessions: sessions, views: views}
}

// Index maneja GET / (página con o sin clima).
func (c *WeatherController) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("WeatherController.Index"))

	q := r.URL.Query()
	query := dto.PageQuery{
		Search: strings.TrimSpace(q.Get("search")),
		Lat:    q.Get("lat"),
		Lng:    q.Get("lng"),
	}

	sess := c.sessions.Get(r)

	data, err := c.service.Page(ctx, query)
	if err != nil {
		httperrors.Write(w, r, err)
		return
	}

	if last := sess.Get(session.KeyLastSearch); last != "" {
		data.Placeholder = last
	}
	if query.Search != "" {
		sess.Set(session.KeyLastSearch, query.Search)
		if err := c.sessions.Commit(w, sess); err != nil {
			log.Warn("session commit failed", logger.Err(err))
		}
	}

	if data.HasWeather() {
		w.Header().Set("Cache-Control", weatherCacheControl)
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	if err := c.views.Render(w, http.StatusOK, "index", data); err != nil {
		log.Error("render failed", logger.Err(err))
		httperrors.Write(w, r, httperrors.ErrInternalServerError.WithCause(err))
	}
}

// Search maneja POST / (form): geocodifica y redirige a /?lat=..&lng=..
func (c *WeatherController) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("WeatherController.Search"))

	if err := r.ParseForm(); err != nil {
		httperrors.Write(w, r, httperrors.ErrBadRequest.WithDetail("invalid form body"))
		return
	}
	city := strings.TrimSpace(r.PostFormValue("search"))
	if city == "" {
		httperrors.Write(w, r, httperrors.ErrSearchNotFound.WithDetail("missing search"))
		return
	}

	coords, err := c.service.Resolve(ctx, city)
	if err != nil {
		httperrors.Write(w, r, err)
		return
	}

	sess := c.sessions.Get(r)
	sess.Set(session.KeyLastSearch, city)
	if err := c.sessions.Commit(w, sess); err != nil {
		log.Warn("session commit failed", logger.Err(err))
	}

	v := url.Values{}
	v.Set("lat", coords.LatString())
	v.Set("lng", coords.LngString())
	http.Redirect(w, r, "/?"+v.Encode(), http.StatusSeeOther)
}

// JSON maneja GET /weather.json?lat=..&lng=..
func (c *WeatherController) JSON(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lng") == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("lat and lng are required"))
		return
	}
	lat, lng, err := svc.ParseCoordinates(q.Get("lat"), q.Get("lng"))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail(err.Error()))
		return
	}

	weather, err := c.service.Forecast(r.Context(), lat, lng)
	if err != nil {
		httperrors.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", weatherCacheControl)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.WeatherResponse{Weather: weather})
}
