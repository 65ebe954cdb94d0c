package jwt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
)

// ParseECPrivateKey parsea una clave P-256 en PEM. Acepta "PRIVATE KEY" (PKCS8,
// el formato del .p8 que entrega Apple) y "EC PRIVATE KEY" (SEC1).
func ParseECPrivateKey(pemData string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(NormalizePEM(pemData)))
	if block == nil {
		return nil, invalidKey(errors.New("no PEM block found"))
	}

	var key *ecdsa.PrivateKey
	switch block.Type {
	case "EC PRIVATE KEY":
		k, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, invalidKey(err)
		}
		key = k
	default:
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, invalidKey(err)
		}
		ek, ok := k.(*ecdsa.PrivateKey)
		if !ok {
			return nil, invalidKey(fmt.Errorf("unexpected key type %T", k))
		}
		key = ek
	}

	if key.Curve != elliptic.P256() {
		return nil, invalidKey(fmt.Errorf("curve %s not supported, ES256 requires P-256", key.Curve.Params().Name))
	}
	return key, nil
}

// KeySet es un par P-256 con su KID, pensado para desarrollo y tests.
type KeySet struct {
	Priv *ecdsa.PrivateKey
	KID  string
	Alg  string // "ES256"
}

// NewDevP256 genera una clave P-256 en memoria con un KID dado.
func NewDevP256(kid string) (*KeySet, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeySet{Priv: priv, KID: kid, Alg: "ES256"}, nil
}

// PrivatePEM serializa la clave como PKCS8 ("PRIVATE KEY").
func (k *KeySet) PrivatePEM() (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(k.Priv)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), nil
}

// PublicPEM serializa la pública como PKIX ("PUBLIC KEY").
func (k *KeySet) PublicPEM() (string, error) {
	return PublicKeyPEM(&k.Priv.PublicKey)
}

// PublicKeyPEM serializa una pública ECDSA como PKIX.
func PublicKeyPEM(pub *ecdsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// ParseECPublicKey parsea una pública P-256 en PEM (PKIX).
func ParseECPublicKey(pemData string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(NormalizePEM(pemData)))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	k, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := k.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type %T", k)
	}
	return pub, nil
}

// ----- JWK (serialización de la pública) -----

type jwk struct {
	Kty string `json:"kty"` // "EC"
	Crv string `json:"crv"` // "P-256"
	Kid string `json:"kid"`
	Alg string `json:"alg"` // "ES256"
	Use string `json:"use"` // "sig"
	X   string `json:"x"`
	Y   string `json:"y"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// JWKSJSON devuelve el JWKS (solo la pública) en JSON.
func (k *KeySet) JWKSJSON() []byte {
	pub := k.Priv.PublicKey
	size := (pub.Curve.Params().BitSize + 7) / 8
	j := jwks{
		Keys: []jwk{{
			Kty: "EC",
			Crv: "P-256",
			Kid: k.KID,
			Alg: k.Alg,
			Use: "sig",
			X:   base64.RawURLEncoding.EncodeToString(pub.X.FillBytes(make([]byte, size))),
			Y:   base64.RawURLEncoding.EncodeToString(pub.Y.FillBytes(make([]byte, size))),
		}},
	}
	b, _ := json.Marshal(j)
	return b
}
