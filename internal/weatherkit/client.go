// Package weatherkit es el cliente HTTP de Apple WeatherKit REST.
//
// Cada request lleva en Authorization la credencial que emite el
// CredentialSource (ver internal/jwt).
package weatherkit

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
	jwtx "github.com/dropDatabas3/weatherjohn/internal/jwt"
	"github.com/dropDatabas3/weatherjohn/internal/metrics"
	"github.com/dropDatabas3/weatherjohn/internal/observability/logger"
)

const (
	DefaultBaseURL  = "https://weatherkit.apple.com"
	DefaultLanguage = "en-US"
)

// DefaultDataSets son los data sets que pide la página.
var DefaultDataSets = []string{"currentWeather", "forecastHourly"}

// ErrCredential envuelve fallas al emitir la credencial (configuración inválida).
var ErrCredential = errors.New("weatherkit: credential unavailable")

// UpstreamError es una respuesta no-2xx de WeatherKit.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("weatherkit: upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("weatherkit: upstream status %d: %s", e.StatusCode, e.Body)
}

// Provider es lo que consume el servicio de la página.
type Provider interface {
	Weather(ctx context.Context, lat, lng float64) (*Weather, error)
}

// invalidator lo implementa jwt.CachingIssuer.
type invalidator interface {
	Invalidate()
}

type Options struct {
	BaseURL     string
	Language    string
	DataSets    []string
	Credentials jwtx.CredentialSource
	HTTP        *http.Client
	Cache       cache.Client // nil => sin cache
	CacheTTL    time.Duration // <= 0 => sin cache
}

type Client struct {
	baseURL  string
	language string
	dataSets string
	creds    jwtx.CredentialSource
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
	lang := opts.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	ds := opts.DataSets
	if len(ds) == 0 {
		ds = DefaultDataSets
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
		language: lang,
		dataSets: strings.Join(ds, ","),
		creds:    opts.Credentials,
		http:     hc,
		cache:    cc,
		cacheTTL: opts.CacheTTL,
	}
}

// URL arma la URL del recurso weather para una coordenada.
func (c *Client) URL(lat, lng float64) string {
	return fmt.Sprintf("%s/api/v1/weather/%s/%s/%s?%s",
		c.baseURL,
		url.PathEscape(c.language),
		formatCoord(lat),
		formatCoord(lng),
		url.Values{"dataSets": {c.dataSets}}.Encode(),
	)
}

// Weather obtiene el clima actual y el pronóstico para lat/lng.
func (c *Client) Weather(ctx context.Context, lat, lng float64) (*Weather, error) {
	key := "wk:" + c.language + ":" + formatCoord(lat) + ":" + formatCoord(lng)
	log := logger.From(ctx).With(logger.Component("weatherkit"), logger.Lat(lat), logger.Lng(lng))

	if c.cache != nil {
		var cached Weather
		hit, err := cache.GetJSON(ctx, c.cache, key, &cached)
		if err != nil {
			log.Warn("cache read failed", logger.Err(err))
		}
		metrics.RecordCacheLookup("weatherkit", hit)
		if hit {
			log.Debug("weather cache hit")
			return &cached, nil
		}
	}

	// el fetch compartido no hereda la cancelación del primer caller; lo acota http.Client.Timeout
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		w, err := c.fetch(shared, lat, lng)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			if err := cache.SetJSON(shared, c.cache, key, w, c.cacheTTL); err != nil {
				log.Warn("cache write failed", logger.Err(err))
			}
		}
		return w, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		log.Debug("weather fetched", zap.Bool("shared", res.Shared))
		return res.Val.(*Weather), nil
	}
}

func (c *Client) fetch(ctx context.Context, lat, lng float64) (*Weather, error) {
	if c.creds == nil {
		return nil, fmt.Errorf("%w: no credential source", ErrCredential)
	}
	token, err := c.creds.Issue()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredential, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(lat, lng), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstream("weatherkit", "error", time.Since(start))
		return nil, fmt.Errorf("weatherkit: request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream("weatherkit", strconv.Itoa(resp.StatusCode), time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("weatherkit: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			// una credencial cacheada que el proveedor rechaza no se reutiliza
			if inv, ok := c.creds.(invalidator); ok {
				inv.Invalidate()
			}
		}
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	var w Weather
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("weatherkit: decode: %w", err)
	}
	return &w, nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
