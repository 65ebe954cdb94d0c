package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	nonceSizeGCM      = 12  // AES-GCM nonce size recomendado (96 bits)
	requiredKeyLength = 32  // AES-256
	sep               = "." // base64url(nonce).base64url(ciphertext), seguro dentro de una cookie
	hkdfInfo          = "weatherjohn session cookie v1"
)

// ErrInvalidCookie: formato roto o ningún secreto la autentica.
var ErrInvalidCookie = errors.New("session: invalid cookie")

// box cifra con la primera clave y descifra probando todas (rotación de secretos).
type box struct {
	aeads []cipher.AEAD
}

// deriveKey estira un secreto arbitrario a 32 bytes con HKDF-SHA256.
func deriveKey(secret string) ([]byte, error) {
	k := make([]byte, requiredKeyLength)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, k); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return k, nil
}

func newBox(secrets []string) (*box, error) {
	b := &box{}
	for _, s := range secrets {
		if strings.TrimSpace(s) == "" {
			continue
		}
		k, err := deriveKey(s)
		if err != nil {
			return nil, err
		}
		block, err := aes.NewCipher(k)
		if err != nil {
			return nil, fmt.Errorf("aes.NewCipher: %w", err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("cipher.NewGCM: %w", err)
		}
		b.aeads = append(b.aeads, aead)
	}
	if len(b.aeads) == 0 {
		return nil, errors.New("session: at least one secret is required")
	}
	return b, nil
}

// seal cifra plain y devuelve base64url(nonce).base64url(ciphertext).
// name se autentica como associated data: una cookie no se puede renombrar.
func (b *box) seal(name string, plain []byte) (string, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := b.aeads[0].Seal(nil, nonce, plain, []byte(name))
	return base64.RawURLEncoding.EncodeToString(nonce) + sep + base64.RawURLEncoding.EncodeToString(ct), nil
}

func (b *box) open(name, value string) ([]byte, error) {
	parts := strings.Split(value, sep)
	if len(parts) != 2 {
		return nil, ErrInvalidCookie
	}
	nonce, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSizeGCM {
		return nil, ErrInvalidCookie
	}
	ct, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidCookie
	}
	for _, aead := range b.aeads {
		if pt, err := aead.Open(nil, nonce, ct, []byte(name)); err == nil {
			return pt, nil
		}
	}
	return nil, ErrInvalidCookie
}
