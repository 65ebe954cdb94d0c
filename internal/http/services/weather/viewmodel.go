package weather

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// CelsiusToFahrenheit redondea al entero más cercano; .5 sube (también en negativos).
func CelsiusToFahrenheit(c float64) int {
	return int(math.Floor(c*9/5 + 32 + 0.5))
}

// HourLabel formatea la hora en 12h con sufijo de una letra: 3P, 10A, 12A.
func HourLabel(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	h := t.Hour()
	suffix := "A"
	if h >= 12 {
		suffix = "P"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return strconv.Itoa(h) + suffix
}

// UVBand clasifica el índice UV en la escala de colores de la página.
func UVBand(uv int) string {
	switch {
	case uv >= 8:
		return "red"
	case uv >= 6:
		return "orange"
	case uv >= 3:
		return "yellow"
	default:
		return "green"
	}
}

// PrecipBand devuelve la opacidad (en %) con la que se pinta la probabilidad de lluvia.
func PrecipBand(chance float64) string {
	switch {
	case chance >= 1:
		return "100"
	case chance >= 0.8:
		return "80"
	case chance >= 0.6:
		return "60"
	case chance < 0.3:
		return "40"
	default:
		return "50"
	}
}

// FormatPercent formatea una fracción 0..1 como porcentaje entero ("62%").
func FormatPercent(f float64) string {
	return strconv.Itoa(int(math.Round(f*100))) + "%"
}

// Ids de los <symbol> en /static/icons.svg.
const (
	IconCloud          = "cloud"
	IconCloudSun       = "cloud-sun"
	IconCloudMoon      = "cloud-moon"
	IconCloudRain      = "cloud-rain"
	IconCloudLightning = "cloud-lightning"
	IconSnowflake      = "snowflake"
	IconSun            = "sun"
)

// IconFor mapea un conditionCode de WeatherKit a un símbolo. De noche los
// códigos despejados usan cloud-moon. Códigos desconocidos devuelven "".
func IconFor(code string, daylight bool) string {
	switch strings.TrimSpace(code) {
	case "PartlyCloudy", "MostlyCloudy":
		if !daylight {
			return IconCloudMoon
		}
		return IconCloudSun
	case "Clear", "MostlyClear", "Hot":
		if !daylight {
			return IconCloudMoon
		}
		return IconSun
	case "Cloudy", "Foggy", "Haze", "Smoky", "Breezy", "Windy":
		return IconCloud
	case "Drizzle", "Rain", "HeavyRain", "SunShowers", "FreezingDrizzle", "FreezingRain":
		return IconCloudRain
	case "Thunderstorms", "IsolatedThunderstorms", "ScatteredThunderstorms", "StrongStorms", "Hurricane", "TropicalStorm":
		return IconCloudLightning
	case "Snow", "Flurries", "HeavySnow", "SunFlurries", "Sleet", "WintryMix", "Blizzard", "BlowingSnow", "Hail", "Frigid":
		return IconSnowflake
	default:
		return ""
	}
}
