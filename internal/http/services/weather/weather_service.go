// Package weather contiene el service de la página: geocoding, clima y view model.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/weatherjohn/internal/geocode"
	dto "github.com/dropDatabas3/weatherjohn/internal/http/dto/weather"
	httperrors "github.com/dropDatabas3/weatherjohn/internal/http/errors"
	"github.com/dropDatabas3/weatherjohn/internal/observability/logger"
	"github.com/dropDatabas3/weatherjohn/internal/weatherkit"
)

const (
	componentWeather = "weather"

	pageTitle          = "Welcome to Go + WeatherKit"
	defaultPlaceholder = "Detroit"
)

// WeatherService define las operaciones de la página.
type WeatherService interface {
	// Resolve geocodifica una ciudad. Falla con ErrSearchNotFound (422).
	Resolve(ctx context.Context, city string) (geocode.Coordinates, error)
	// Forecast trae el clima crudo de WeatherKit.
	Forecast(ctx context.Context, lat, lng float64) (*weatherkit.Weather, error)
	// Page arma los datos del template a partir de la query.
	Page(ctx context.Context, q dto.PageQuery) (*dto.PageData, error)
}

// Deps contiene las dependencias inyectables del service.
type Deps struct {
	Geocoder geocode.Lookuper
	Weather  weatherkit.Provider
	// Location para las etiquetas horarias. nil => hora local del servidor.
	Location *time.Location
}

type weatherService struct {
	deps Deps
}

// NewWeatherService crea el service de la página.
func NewWeatherService(deps Deps) WeatherService {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &weatherService{deps: deps}
}

func (s *weatherService) Resolve(ctx context.Context, city string) (geocode.Coordinates, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentWeather),
		logger.Op("Resolve"),
		logger.City(city),
	)

	if strings.TrimSpace(city) == "" {
		return geocode.Coordinates{}, httperrors.ErrSearchNotFound
	}
	coords, err := s.deps.Geocoder.Lookup(ctx, city)
	if err != nil {
		log.Info("search not found", logger.Err(err))
		return geocode.Coordinates{}, httperrors.ErrSearchNotFound.WithCause(err)
	}
	return coords, nil
}

func (s *weatherService) Forecast(ctx context.Context, lat, lng float64) (*weatherkit.Weather, error) {
	w, err := s.deps.Weather.Weather(ctx, lat, lng)
	if err != nil {
		return nil, mapWeatherError(err)
	}
	return w, nil
}

// mapWeatherError: credencial => 500, resto (status no-2xx, red, decode) => 502.
func mapWeatherError(err error) error {
	switch {
	case errors.Is(err, weatherkit.ErrCredential):
		return httperrors.ErrCredentialUnavailable.WithCause(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return httperrors.ErrServiceUnavailable.WithCause(err)
	default:
		return httperrors.ErrUpstreamUnavailable.WithCause(err)
	}
}

func (s *weatherService) Page(ctx context.Context, q dto.PageQuery) (*dto.PageData, error) {
	data := &dto.PageData{Title: pageTitle, Placeholder: defaultPlaceholder}

	var lat, lng float64
	switch {
	case strings.TrimSpace(q.Search) != "":
		coords, err := s.Resolve(ctx, q.Search)
		if err != nil {
			return nil, err
		}
		lat, lng = coords.Lat, coords.Lng
	case q.Lat != "" && q.Lng != "":
		var err error
		if lat, lng, err = ParseCoordinates(q.Lat, q.Lng); err != nil {
			return nil, httperrors.ErrInvalidParameter.WithDetail(err.Error())
		}
	default:
		return data, nil
	}

	w, err := s.Forecast(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, data, w)
	return data, nil
}

func (s *weatherService) fill(ctx context.Context, data *dto.PageData, w *weatherkit.Weather) {
	data.Weather = w

	if cw := w.CurrentWeather; cw != nil {
		data.Current = &dto.CurrentView{
			AsOf:       cw.AsOf,
			Icon:       s.icon(ctx, cw.ConditionCode, cw.Daylight),
			TempF:      CelsiusToFahrenheit(cw.Temperature),
			FeelsLikeF: CelsiusToFahrenheit(cw.TemperatureApparent),
			UVIndex:    cw.UVIndex,
			Humidity:   FormatPercent(cw.Humidity),
		}
		data.Attribution = cw.Metadata.AttributionURL
	}

	if fh := w.ForecastHourly; fh != nil {
		data.Hours = make([]dto.HourView, 0, len(fh.Hours))
		for _, h := range fh.Hours {
			data.Hours = append(data.Hours, dto.HourView{
				Start:        h.ForecastStart,
				Label:        HourLabel(h.ForecastStart, s.deps.Location),
				Icon:         s.icon(ctx, h.ConditionCode, h.Daylight),
				UVIndex:      h.UVIndex,
				UVBand:       UVBand(h.UVIndex),
				PrecipChance: FormatPercent(h.PrecipitationChance),
				PrecipBand:   PrecipBand(h.PrecipitationChance),
			})
		}
		if data.Attribution == "" {
			data.Attribution = fh.Metadata.AttributionURL
		}
	}

	if raw, err := json.MarshalIndent(dto.WeatherResponse{Weather: w}, "", "  "); err == nil {
		data.RawJSON = string(raw)
	}
}

func (s *weatherService) icon(ctx context.Context, code string, daylight bool) string {
	icon := IconFor(code, daylight)
	if icon == "" {
		logger.From(ctx).Debug("no icon for condition code", logger.Component(componentWeather), logger.String("condition_code", code))
	}
	return icon
}

// ParseCoordinates valida lat/lng de la query.
func ParseCoordinates(latS, lngS string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, errors.New("lat must be a number between -90 and 90")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, errors.New("lng must be a number between -180 and 180")
	}
	return lat, lng, nil
}
