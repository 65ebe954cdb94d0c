// Package session implementa la sesión en cookie cifrada (__session).
//
// Toda la sesión vive en la cookie: AES-256-GCM con clave derivada por HKDF de
// los secretos configurados. El primer secreto cifra; todos descifran.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dropDatabas3/weatherjohn/internal/observability/logger"
)

const (
	DefaultCookieName = "__session"
	DefaultTTL        = 7 * 24 * time.Hour

	// KeyLastSearch guarda la última ciudad buscada.
	KeyLastSearch = "last_search"
)

type Options struct {
	CookieName string
	Secrets    []string
	TTL        time.Duration
	Secure     bool
}

// Manager lee y escribe sesiones. Seguro para uso concurrente.
type Manager struct {
	name   string
	ttl    time.Duration
	secure bool
	box    *box
	now    func() time.Time
}

// NewManager valida los secretos. Sin secretos genera uno efímero (solo dev):
// las sesiones no sobreviven a un reinicio.
func NewManager(opts Options) (*Manager, error) {
	secrets := opts.Secrets
	if len(secrets) == 0 {
		var b [32]byte
		if _, err := rand.Read(b[:]); err != nil {
			return nil, err
		}
		secrets = []string{base64.StdEncoding.EncodeToString(b[:])}
		logger.L().Warn("session: no secrets configured, using an ephemeral key", logger.Component("session"))
	}
	bx, err := newBox(secrets)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		name:   opts.CookieName,
		ttl:    opts.TTL,
		secure: opts.Secure,
		box:    bx,
		now:    time.Now,
	}
	if m.name == "" {
		m.name = DefaultCookieName
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	return m, nil
}

// Session son los valores de una sesión. El zero value es una sesión vacía.
type Session struct {
	values map[string]string
	dirty  bool
}

func (s *Session) Get(key string) string {
	if s == nil || s.values == nil {
		return ""
	}
	return s.values[key]
}

func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = map[string]string{}
	}
	if s.values[key] != value {
		s.values[key] = value
		s.dirty = true
	}
}

func (s *Session) Unset(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// Dirty reporta si hubo cambios desde Get.
func (s *Session) Dirty() bool { return s != nil && s.dirty }

type payload struct {
	Values map[string]string `json:"v"`
	Exp    int64             `json:"exp"`
}

// Get devuelve la sesión del request. Cookie ausente, vencida o adulterada
// equivale a sesión vacía.
func (m *Manager) Get(r *http.Request) *Session {
	c, err := r.Cookie(m.name)
	if err != nil || c.Value == "" {
		return &Session{}
	}
	pt, err := m.box.open(m.name, c.Value)
	if err != nil {
		logger.From(r.Context()).Debug("session cookie rejected", logger.Component("session"), logger.Err(err))
		return &Session{}
	}
	var p payload
	if err := json.Unmarshal(pt, &p); err != nil || m.now().Unix() >= p.Exp {
		return &Session{}
	}
	return &Session{values: p.Values}
}

// Commit escribe la cookie si la sesión cambió.
func (m *Manager) Commit(w http.ResponseWriter, s *Session) error {
	if !s.Dirty() {
		return nil
	}
	if len(s.values) == 0 {
		m.Destroy(w)
		return nil
	}
	exp := m.now().Add(m.ttl)
	b, err := json.Marshal(payload{Values: s.values, Exp: exp.Unix()})
	if err != nil {
		return err
	}
	v, err := m.box.seal(m.name, b)
	if err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(v, exp, int(m.ttl.Seconds())))
	s.dirty = false
	return nil
}

// Destroy borra la cookie.
func (m *Manager) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", time.Unix(0, 0), -1))
}

func (m *Manager) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
