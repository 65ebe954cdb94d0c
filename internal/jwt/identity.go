package jwt

import (
	"os"
	"strings"
)

// Identity agrupa los cuatro valores que WeatherKit necesita para aceptar un token.
type Identity struct {
	TeamID     string
	AppID      string
	KeyID      string
	PrivateKey string // PEM (PKCS8 o SEC1), curva P-256
}

// TokenID es el jti que espera el proveedor: "<team>.<app>".
func (id Identity) TokenID() string {
	return id.TeamID + "." + id.AppID
}

// Validate chequea los valores requeridos en orden fijo y corta en el primero que falta.
func (id Identity) Validate() error {
	if strings.TrimSpace(id.PrivateKey) == "" {
		return ErrMissingPrivateKey
	}
	if strings.TrimSpace(id.AppID) == "" {
		return ErrMissingAppID
	}
	if strings.TrimSpace(id.TeamID) == "" {
		return ErrMissingTeamID
	}
	if strings.TrimSpace(id.KeyID) == "" {
		return ErrMissingKeyID
	}
	return nil
}

// IdentitySource entrega la identidad vigente en cada emisión.
type IdentitySource interface {
	Identity() Identity
}

// StaticIdentity es una identidad fija, cargada y validada al arrancar.
type StaticIdentity Identity

func (s StaticIdentity) Identity() Identity { return Identity(s) }

// EnvIdentity relee el entorno en cada llamada, así un cambio de variables
// se aplica sin reiniciar. Acepta los nombres cortos y los alias APPLE_*/WEATHERKIT_*.
type EnvIdentity struct {
	Getenv func(string) string // nil => os.Getenv
}

func (e EnvIdentity) Identity() Identity {
	get := e.Getenv
	if get == nil {
		get = os.Getenv
	}
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(get(k)); v != "" {
				return v
			}
		}
		return ""
	}
	return Identity{
		TeamID:     first("TEAM_ID", "APPLE_TEAM_ID"),
		AppID:      first("APP_ID", "APPLE_APP_ID"),
		KeyID:      first("KEY_ID", "APPLE_KEY_ID"),
		PrivateKey: NormalizePEM(first("PRIVATE_KEY", "WEATHERKIT_PRIVATE_KEY")),
	}
}

// NormalizePEM acepta claves pegadas en una sola línea con "\n" literales (típico de .env).
func NormalizePEM(s string) string {
	s = strings.TrimSpace(s)
	if s != "" && !strings.Contains(s, "\n") && strings.Contains(s, `\n`) {
		s = strings.ReplaceAll(s, `\n`, "\n")
	}
	return s
}
