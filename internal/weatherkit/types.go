package weatherkit

import "time"

// Weather es la respuesta de /api/v1/weather. Cada data set es opcional:
// solo viene el que se pidió en dataSets.
type Weather struct {
	CurrentWeather *CurrentWeather `json:"currentWeather,omitempty"`
	ForecastHourly *HourlyForecast `json:"forecastHourly,omitempty"`
	ForecastDaily  *DailyForecast  `json:"forecastDaily,omitempty"`
}

type Metadata struct {
	AttributionURL string    `json:"attributionURL"`
	ExpireTime     time.Time `json:"expireTime"`
	Language       string    `json:"language,omitempty"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	ProviderName   string    `json:"providerName,omitempty"`
	ReadTime       time.Time `json:"readTime"`
	ReportedTime   time.Time `json:"reportedTime"`
	Units          string    `json:"units,omitempty"`
	Version        int       `json:"version"`
}

type CurrentWeather struct {
	Name                   string    `json:"name,omitempty"`
	Metadata               Metadata  `json:"metadata"`
	AsOf                   time.Time `json:"asOf"`
	CloudCover             float64   `json:"cloudCover"`
	ConditionCode          string    `json:"conditionCode"`
	Daylight               bool      `json:"daylight"`
	Humidity               float64   `json:"humidity"`
	PrecipitationIntensity float64   `json:"precipitationIntensity"`
	Pressure               float64   `json:"pressure"`
	PressureTrend          string    `json:"pressureTrend"`
	Temperature            float64   `json:"temperature"`
	TemperatureApparent    float64   `json:"temperatureApparent"`
	TemperatureDewPoint    float64   `json:"temperatureDewPoint"`
	UVIndex                int       `json:"uvIndex"`
	Visibility             float64   `json:"visibility"`
	WindDirection          int       `json:"windDirection"`
	WindGust               float64   `json:"windGust"`
	WindSpeed              float64   `json:"windSpeed"`
}

type HourlyForecast struct {
	Name     string                  `json:"name,omitempty"`
	Metadata Metadata                `json:"metadata"`
	Hours    []HourWeatherConditions `json:"hours"`
}

type HourWeatherConditions struct {
	ForecastStart          time.Time `json:"forecastStart"`
	CloudCover             float64   `json:"cloudCover"`
	ConditionCode          string    `json:"conditionCode"`
	Daylight               bool      `json:"daylight"`
	Humidity               float64   `json:"humidity"`
	PrecipitationAmount    float64   `json:"precipitationAmount"`
	PrecipitationIntensity float64   `json:"precipitationIntensity"`
	PrecipitationChance    float64   `json:"precipitationChance"`
	PrecipitationType      string    `json:"precipitationType"`
	Pressure               float64   `json:"pressure"`
	PressureTrend          string    `json:"pressureTrend"`
	SnowfallIntensity      float64   `json:"snowfallIntensity,omitempty"`
	Temperature            float64   `json:"temperature"`
	TemperatureApparent    float64   `json:"temperatureApparent"`
	TemperatureDewPoint    float64   `json:"temperatureDewPoint"`
	UVIndex                int       `json:"uvIndex"`
	Visibility             float64   `json:"visibility"`
	WindDirection          int       `json:"windDirection"`
	WindGust               float64   `json:"windGust"`
	WindSpeed              float64   `json:"windSpeed"`
}

type DailyForecast struct {
	Name     string                 `json:"name,omitempty"`
	Metadata Metadata               `json:"metadata"`
	Days     []DayWeatherConditions `json:"days"`
}

type DayWeatherConditions struct {
	ForecastStart       time.Time `json:"forecastStart"`
	ForecastEnd         time.Time `json:"forecastEnd"`
	ConditionCode       string    `json:"conditionCode"`
	MaxUVIndex          int       `json:"maxUvIndex"`
	PrecipitationChance float64   `json:"precipitationChance"`
	PrecipitationType   string    `json:"precipitationType"`
	TemperatureMax      float64   `json:"temperatureMax"`
	TemperatureMin      float64   `json:"temperatureMin"`
}
