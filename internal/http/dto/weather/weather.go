// Package weather contiene los DTOs de la página y de /weather.json.
package weather

import (
	"time"

	"github.com/dropDatabas3/weatherjohn/internal/weatherkit"
)

// PageQuery son los parámetros de GET /.
type PageQuery struct {
	Search string // ?search=
	Lat    string // ?lat=
	Lng    string // ?lng=
}

// PageData es lo que renderiza el template index.
type PageData struct {
	Title       string
	Placeholder string // última búsqueda de la sesión o "Detroit"
	Weather     *weatherkit.Weather
	Current     *CurrentView
	Hours       []HourView
	Attribution string // link "Weather Data provided by WeatherKit"
	RawJSON     string // bloque <details> con la respuesta completa
}

// HasWeather indica si hay algo que mostrar además del form.
func (p *PageData) HasWeather() bool { return p != nil && p.Weather != nil }

type CurrentView struct {
	AsOf       time.Time
	Icon       string // id del <symbol> en /static/icons.svg
	TempF      int
	FeelsLikeF int
	UVIndex    int
	Humidity   string // "62%"
}

type HourView struct {
	Start        time.Time
	Label        string // "3P", "10A"
	Icon         string
	UVIndex      int
	UVBand       string // green | yellow | orange | red
	PrecipChance string // "30%"
	PrecipBand   string // 40 | 50 | 60 | 80 | 100 (opacidad)
}

// WeatherResponse es el cuerpo de GET /weather.json.
type WeatherResponse struct {
	Weather *weatherkit.Weather `json:"weather"`
}
