package jwt

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential se devuelve cuando la firma o el formato no validan.
var ErrInvalidCredential = errors.New("invalid_credential")

// Decoded es una credencial separada en header y claims, sin verificar.
type Decoded struct {
	Header map[string]any
	Claims map[string]any
}

// Decode separa un JWT (con o sin prefijo Bearer) sin verificar la firma.
// Sirve para inspección (weatherctl inspect) y tests.
func Decode(token string) (*Decoded, error) {
	token = strings.TrimPrefix(strings.TrimSpace(token), BearerPrefix)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrInvalidCredential, len(parts))
	}
	var out Decoded
	if err := decodeSegment(parts[0], &out.Header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidCredential, err)
	}
	if err := decodeSegment(parts[1], &out.Claims); err != nil {
		return nil, fmt.Errorf("%w: claims: %v", ErrInvalidCredential, err)
	}
	return &out, nil
}

func decodeSegment(seg string, v any) error {
	b, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// VerifyES256 valida la firma ES256 con pub y exp/iat, devolviendo las claims tipadas.
// Acepta el token con o sin prefijo Bearer.
func VerifyES256(token string, pub *ecdsa.PublicKey, opts ...jwtv5.ParserOption) (*CredentialClaims, error) {
	token = strings.TrimPrefix(strings.TrimSpace(token), BearerPrefix)
	opts = append([]jwtv5.ParserOption{jwtv5.WithValidMethods([]string{"ES256"}), jwtv5.WithIssuedAt()}, opts...)

	claims := &CredentialClaims{}
	tok, err := jwtv5.ParseWithClaims(token, claims, func(t *jwtv5.Token) (any, error) {
		return pub, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

// WithTime fija el reloj de validación de exp/iat (tests y self-checks con reloj inyectado).
func WithTime(now func() time.Time) jwtv5.ParserOption {
	return jwtv5.WithTimeFunc(now)
}
