// Package geocode resuelve un nombre de ciudad a coordenadas usando geocode.xyz.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/weatherjohn/internal/cache"
	"github.com/dropDatabas3/weatherjohn/internal/metrics"
	"github.com/dropDatabas3/weatherjohn/internal/observability/logger"
)

const DefaultBaseURL = "https://geocode.xyz"

var (
	// ErrNotFound: la búsqueda no devolvió coordenadas utilizables.
	ErrNotFound = errors.New("geocode: location not found")
	// ErrThrottled: geocode.xyz rechazó el request por cuota (código 006).
	ErrThrottled = errors.New("geocode: throttled")
)

// Coordinates es el resultado de una búsqueda.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LatString formatea la latitud sin ceros de relleno.
func (c Coordinates) LatString() string { return strconv.FormatFloat(c.Lat, 'f', -1, 64) }

// LngString formatea la longitud sin ceros de relleno.
func (c Coordinates) LngString() string { return strconv.FormatFloat(c.Lng, 'f', -1, 64) }

// Lookuper es lo que consume el servicio de la página.
type Lookuper interface {
	Lookup(ctx context.Context, city string) (Coordinates, error)
}

type Options struct {
	BaseURL  string
	AuthKey  string
	HTTP     *http.Client
	Cache    cache.Client // nil => sin cache
	CacheTTL time.Duration // <= 0 => sin cache
}

type Client struct {
	baseURL  string
	authKey  string
	http     *http.Client
	cache    cache.Client
	cacheTTL time.Duration
	group    singleflight.Group
}

func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	cc := opts.Cache
	if opts.CacheTTL <= 0 {
		cc = nil
	}
	return &Client{
		baseURL:  base,
		authKey:  opts.AuthKey,
		http:     hc,
		cache:    cc,
		cacheTTL: opts.CacheTTL,
	}
}

// respuesta de geocode.xyz con ?json=1 (latt/longt llegan como strings)
type xyzResponse struct {
	Latt  json.RawMessage `json:"latt"`
	Longt json.RawMessage `json:"longt"`
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Lookup devuelve las coordenadas de city. Requests concurrentes para la misma
// ciudad se colapsan en uno.
func (c *Client) Lookup(ctx context.Context, city string) (Coordinates, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return Coordinates{}, ErrNotFound
	}
	key := "geo:" + strings.ToLower(city)
	log := logger.From(ctx).With(logger.Component("geocode"), logger.City(city))

	if c.cache != nil {
		var cached Coordinates
		hit, err := cache.GetJSON(ctx, c.cache, key, &cached)
		if err != nil {
			log.Warn("cache read failed", logger.Err(err))
		}
		metrics.RecordCacheLookup("geocode", hit)
		if hit {
			log.Debug("geocode cache hit")
			return cached, nil
		}
	}

	// el fetch compartido no hereda la cancelación del primer caller; lo acota http.Client.Timeout
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		coords, err := c.fetch(shared, city)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			if err := cache.SetJSON(shared, c.cache, key, coords, c.cacheTTL); err != nil {
				log.Warn("cache write failed", logger.Err(err))
			}
		}
		return coords, nil
	})

	select {
	case <-ctx.Done():
		return Coordinates{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Coordinates{}, res.Err
		}
		coords := res.Val.(Coordinates)
		log.Debug("geocode resolved", logger.Lat(coords.Lat), logger.Lng(coords.Lng), zap.Bool("shared", res.Shared))
		return coords, nil
	}
}

func (c *Client) fetch(ctx context.Context, city string) (Coordinates, error) {
	q := url.Values{"json": {"1"}}
	if c.authKey != "" {
		q.Set("auth", c.authKey)
	}
	u := c.baseURL + "/" + url.PathEscape(city) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Coordinates{}, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstream("geocode", "error", time.Since(start))
		return Coordinates{}, fmt.Errorf("geocode: request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream("geocode", strconv.Itoa(resp.StatusCode), time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode: read body: %w", err)
	}
	if resp.StatusCode >= 500 {
		return Coordinates{}, fmt.Errorf("geocode: upstream status %d", resp.StatusCode)
	}

	var out xyzResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if out.Error != nil {
		if out.Error.Code == "006" {
			return Coordinates{}, ErrThrottled
		}
		return Coordinates{}, fmt.Errorf("%w: %s", ErrNotFound, out.Error.Description)
	}

	lat, okLat := parseCoord(out.Latt)
	lng, okLng := parseCoord(out.Longt)
	if !okLat || !okLng || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Coordinates{}, ErrNotFound
	}
	return Coordinates{Lat: lat, Lng: lng}, nil
}

// parseCoord acepta "12.34" o 12.34.
func parseCoord(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
