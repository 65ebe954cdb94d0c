package jwt

import (
	"fmt"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Signer firma claims + header con la clave dada y devuelve el JWT compacto.
// La firma real es ES256; en tests se reemplaza por un fake.
type Signer interface {
	Sign(claims jwtv5.Claims, header map[string]any, key string) (string, error)
}

// ES256Signer firma con ECDSA P-256 / SHA-256 usando golang-jwt.
type ES256Signer struct{}

func (ES256Signer) Sign(claims jwtv5.Claims, header map[string]any, key string) (string, error) {
	priv, err := ParseECPrivateKey(key)
	if err != nil {
		return "", err
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodES256, claims)
	for k, v := range header {
		// alg lo fija el método; no se pisa.
		if k == "alg" {
			continue
		}
		tk.Header[k] = v
	}
	signed, err := tk.SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("sign ES256: %w", err)
	}
	return signed, nil
}

// SignerFunc adapta una función a Signer.
type SignerFunc func(claims jwtv5.Claims, header map[string]any, key string) (string, error)

func (f SignerFunc) Sign(claims jwtv5.Claims, header map[string]any, key string) (string, error) {
	return f(claims, header, key)
}
