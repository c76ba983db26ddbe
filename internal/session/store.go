package session

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sourzer/sourzer-web/internal/domain"
)

// Store loads and persists the AuthSession for a request.
//
// Load never fails: an absent, expired or tampered record is treated as "no
// session" and returns nil.
type Store interface {
	Load(r *http.Request) *domain.AuthSession
	Save(w http.ResponseWriter, s *domain.AuthSession) error
	Clear(w http.ResponseWriter)
}

// =============================================================================
// CookieStore
// =============================================================================

// claims carries the AuthSession fields in an HS256-signed token.
type claims struct {
	jwt.RegisteredClaims
	Username        string `json:"username"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// CookieStore keeps the session in a signed cookie. The signature only
// stops clients from forging the record; the admin gate is still a
// convenience check, not access control.
type CookieStore struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewCookieStore creates a CookieStore. secret must not be empty.
func NewCookieStore(secret []byte, ttl time.Duration, secure bool) (*CookieStore, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: empty secret")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CookieStore{secret: secret, ttl: ttl, secure: secure, now: time.Now}, nil
}

// Load implements Store.
func (c *CookieStore) Load(r *http.Request) *domain.AuthSession {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	var cl claims
	token, err := jwt.ParseWithClaims(cookie.Value, &cl,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil
	}
	return &domain.AuthSession{Username: cl.Username, IsAuthenticated: cl.IsAuthenticated}
}

// Save implements Store.
func (c *CookieStore) Save(w http.ResponseWriter, s *domain.AuthSession) error {
	if s == nil {
		c.Clear(w)
		return nil
	}
	now := c.now()
	expires := now.Add(c.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Username:        s.Username,
		IsAuthenticated: s.IsAuthenticated,
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return fmt.Errorf("session: sign: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     CookiePath,
		Expires:  expires,
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear implements Store.
func (c *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// =============================================================================
// MemoryStore
// =============================================================================

// MemoryStore holds a single record shared by every request, the way a
// single browser's local storage would. Intended for tests.
type MemoryStore struct {
	mu      sync.Mutex
	session *domain.AuthSession
}

// NewMemoryStore returns a store seeded with s, which may be nil.
func NewMemoryStore(s *domain.AuthSession) *MemoryStore {
	return &MemoryStore{session: s}
}

// Load implements Store.
func (m *MemoryStore) Load(r *http.Request) *domain.AuthSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	cp := *m.session
	return &cp
}

// Save implements Store.
func (m *MemoryStore) Save(w http.ResponseWriter, s *domain.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == nil {
		m.session = nil
		return nil
	}
	cp := *s
	m.session = &cp
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(w http.ResponseWriter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
}
