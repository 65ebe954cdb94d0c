package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field es un alias de zap.Field para que los callers no importen zap.
type Field = zap.Field

// ---- HTTP ----

func RequestID(v string) zap.Field       { return zap.String("request_id", v) }
func Method(v string) zap.Field          { return zap.String("method", v) }
func Path(v string) zap.Field            { return zap.String("path", v) }
func Status(v int) zap.Field             { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func DurationMs(v int64) zap.Field       { return zap.Int64("duration_ms", v) }
func Bytes(v int) zap.Field              { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field        { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field       { return zap.String("user_agent", v) }

// ---- Dominio ----

// City es la búsqueda tal cual la escribió el usuario.
func City(v string) zap.Field   { return zap.String("city", v) }
func Lat(v float64) zap.Field   { return zap.Float64("lat", v) }
func Lng(v float64) zap.Field   { return zap.Float64("lng", v) }
func KeyID(v string) zap.Field  { return zap.String("kid", v) }
func TeamID(v string) zap.Field { return zap.String("team_id", v) }

// Upstream identifica el servicio externo (geocode, weatherkit).
func Upstream(v string) zap.Field { return zap.String("upstream", v) }

// CacheHit indica si la respuesta salió del cache.
func CacheHit(v bool) zap.Field { return zap.Bool("cache_hit", v) }

// ---- Sistema ----

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

// ---- Genéricos ----

func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
