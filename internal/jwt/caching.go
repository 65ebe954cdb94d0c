package jwt

import (
	"sync"
	"time"

	"github.com/dropDatabas3/weatherjohn/internal/metrics"
)

// DefaultRenewBefore es el margen antes del exp en que se re-emite.
const DefaultRenewBefore = 10 * time.Second

// CachingIssuer reutiliza la última credencial hasta RenewBefore antes de su expiración.
// Opt-in (weatherkit.token_cache); el comportamiento por defecto es emitir siempre.
type CachingIssuer struct {
	mu          sync.Mutex
	next        *Issuer
	renewBefore time.Duration

	token string
	exp   time.Time
	kid   string // la identidad cambió => no reutilizar
}

// NewCachingIssuer envuelve un Issuer. renewBefore <= 0 usa DefaultRenewBefore.
func NewCachingIssuer(next *Issuer, renewBefore time.Duration) *CachingIssuer {
	if renewBefore <= 0 || renewBefore >= CredentialTTL {
		renewBefore = DefaultRenewBefore
	}
	return &CachingIssuer{next: next, renewBefore: renewBefore}
}

func (c *CachingIssuer) now() time.Time {
	if c.next.Now != nil {
		return c.next.Now()
	}
	return time.Now()
}

// Issue devuelve la credencial cacheada si sigue vigente, o emite una nueva.
func (c *CachingIssuer) Issue() (string, error) {
	id := c.next.Source.Identity()
	cacheKey := id.KeyID + "|" + id.TokenID()
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.kid == cacheKey && now.Before(c.exp.Add(-c.renewBefore)) {
		metrics.RecordCredential("cached")
		return c.token, nil
	}

	tok, err := IssueCredential(id, c.next.Signer, now)
	recordIssue(err)
	if err != nil {
		c.token = ""
		return "", err
	}
	c.token = tok
	c.kid = cacheKey
	c.exp = now.Add(CredentialTTL)
	return tok, nil
}

// Invalidate descarta la credencial cacheada (por ejemplo tras un 401 del proveedor).
func (c *CachingIssuer) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
