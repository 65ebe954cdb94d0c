package jwt

import (
	"errors"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/weatherjohn/internal/metrics"
)

// CredentialTTL es la validez fija de cada credencial.
const CredentialTTL = 60 * time.Second

// BearerPrefix es el esquema que se antepone al token en el header Authorization.
const BearerPrefix = "Bearer "

// CredentialClaims es el claim set que acepta WeatherKit.
type CredentialClaims struct {
	jwtv5.RegisteredClaims
}

// NewCredentialClaims arma sub/iss/jti/iat/exp para una identidad en el instante now.
func NewCredentialClaims(id Identity, now time.Time) *CredentialClaims {
	now = now.UTC()
	return &CredentialClaims{
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   id.AppID,
			Issuer:    id.TeamID,
			ID:        id.TokenID(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(CredentialTTL)),
		},
	}
}

// CredentialHeader devuelve el header extra: kid y el campo "id" que el proveedor exige
// además del jti.
func CredentialHeader(id Identity) map[string]any {
	return map[string]any{
		"kid": id.KeyID,
		"id":  id.TokenID(),
	}
}

// IssueCredential valida la identidad, firma y devuelve "Bearer <jwt>".
// Ante cualquier error devuelve "" y un error tipado; nunca un token parcial.
func IssueCredential(id Identity, signer Signer, now time.Time) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}
	if signer == nil {
		signer = ES256Signer{}
	}

	signed, err := signer.Sign(NewCredentialClaims(id, now), CredentialHeader(id), id.PrivateKey)
	if err != nil {
		return "", err
	}
	if strings.Count(signed, ".") != 2 {
		return "", errors.New("weatherkit credential: signer returned a malformed token")
	}
	return BearerPrefix + signed, nil
}

// CredentialSource es lo que consume el cliente HTTP de WeatherKit.
type CredentialSource interface {
	Issue() (string, error)
}

// Issuer emite credenciales leyendo la identidad en cada llamada. Sin estado compartido:
// es seguro para uso concurrente.
type Issuer struct {
	Source IdentitySource
	Signer Signer
	Now    func() time.Time // nil => time.Now
}

// NewIssuer crea un Issuer con firma ES256.
func NewIssuer(src IdentitySource) *Issuer {
	return &Issuer{Source: src, Signer: ES256Signer{}}
}

// Issue emite una credencial nueva.
func (i *Issuer) Issue() (string, error) {
	now := time.Now
	if i.Now != nil {
		now = i.Now
	}
	tok, err := IssueCredential(i.Source.Identity(), i.Signer, now())
	recordIssue(err)
	return tok, err
}

func recordIssue(err error) {
	switch {
	case err == nil:
		metrics.RecordCredential("ok")
	case IsConfigurationError(err):
		metrics.RecordCredential("config_error")
	default:
		metrics.RecordCredential("sign_error")
	}
}

// Check valida la identidad y que la clave parsee, sin firmar.
func (i *Issuer) Check() error {
	id := i.Source.Identity()
	if err := id.Validate(); err != nil {
		return err
	}
	_, err := ParseECPrivateKey(id.PrivateKey)
	return err
}
