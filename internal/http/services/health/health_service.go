// Package health contiene el service para health checks.
package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/weatherjohn/internal/cache"
	dto "github.com/dropDatabas3/weatherjohn/internal/http/dto/health"
	jwtx "github.com/dropDatabas3/weatherjohn/internal/jwt"
	"github.com/dropDatabas3/weatherjohn/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Identity    jwtx.IdentitySource
	// CacheStats consulta el backend; un error marca la cache como caída.
	CacheStats  func(ctx context.Context) (cache.Stats, error)
	CacheDriver string
	Version     string
	Commit      string
	Now         func() time.Time
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &healthService{deps: deps}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	response := dto.HealthResponse{
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  s.deps.Now().UTC(),
		Version:    s.deps.Version,
		Commit:     s.deps.Commit,
	}

	hasErrors := false
	hasCriticalErrors := false

	// 1) Credencial de WeatherKit (crítico: sin ella ninguna página con clima funciona)
	if s.deps.Identity != nil {
		id := s.deps.Identity.Identity()
		response.ActiveKeyID = id.KeyID
		if err := s.checkCredential(id); err != nil {
			response.Components["weatherkit_credential"] = dto.HealthStatus{
				Status:  "error",
				Message: credentialMessage(err),
			}
			hasCriticalErrors = true
			log.Error("credential check failed", logger.Err(err))
		} else {
			response.Components["weatherkit_credential"] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		response.Components["weatherkit_credential"] = dto.HealthStatus{
			Status:  "error",
			Message: "identity not configured",
		}
		hasCriticalErrors = true
	}

	// 2) Cache (no crítico: sin cache se va directo a los upstreams)
	if s.deps.CacheStats != nil {
		st, err := s.deps.CacheStats(ctx)
		if err != nil {
			response.Components["cache"] = dto.HealthStatus{
				Status:  "error",
				Message: s.deps.CacheDriver + " unavailable",
			}
			hasErrors = true
			log.Error("cache unavailable", logger.Err(err))
		} else {
			response.Components["cache"] = dto.HealthStatus{Status: "ok", Message: s.deps.CacheDriver, Cache: &st}
		}
	} else {
		response.Components["cache"] = dto.HealthStatus{Status: "disabled"}
	}

	switch {
	case hasCriticalErrors:
		response.Status = "unavailable"
	case hasErrors:
		response.Status = "degraded"
	default:
		response.Status = "ready"
	}

	return response
}

// checkCredential firma una credencial real y la verifica con la clave pública.
func (s *healthService) checkCredential(id jwtx.Identity) error {
	tok, err := jwtx.IssueCredential(id, jwtx.ES256Signer{}, s.deps.Now())
	if err != nil {
		return err
	}
	priv, err := jwtx.ParseECPrivateKey(id.PrivateKey)
	if err != nil {
		return err
	}
	claims, err := jwtx.VerifyES256(tok, &priv.PublicKey, jwtx.WithTime(s.deps.Now))
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}
	if claims.ID != id.TokenID() {
		return fmt.Errorf("verify failed: unexpected jti %q", claims.ID)
	}
	return nil
}

// credentialMessage expone solo campo y motivo; la causa (x509, etc.) queda en el log.
func credentialMessage(err error) string {
	var ce *jwtx.ConfigurationError
	if errors.As(err, &ce) {
		return ce.Field + " " + ce.Reason
	}
	return "credential self-check failed"
}
