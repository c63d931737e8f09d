package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

const defaultCookieName = "tileboard_session"
const defaultTTL = 24 * time.Hour

// Claims is the JWT payload for a dashboard session. CSRF carries the
// double-submit token the API routes verify against the X-CSRF-TOKEN header.
type Claims struct {
	UserID string `json:"user_id"`
	CSRF   string `json:"csrf"`
	jwt.RegisteredClaims
}

// Config configures the session manager.
type Config struct {
	// Secret signs session tokens. Required.
	Secret     []byte
	CookieName string
	TTL        time.Duration
	// Secure marks issued cookies HTTPS-only.
	Secure bool
}

// Manager issues and validates signed session cookies.
type Manager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
}

// New builds a session manager.
func New(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("session: secret is required")
	}
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = defaultCookieName
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{secret: cfg.Secret, cookieName: cookieName, ttl: ttl, secure: cfg.Secure}, nil
}

// Issue creates a signed session token with a fresh CSRF token.
func (m *Manager) Issue(userID string) (token string, csrf string, expires time.Time, err error) {
	if userID == "" {
		return "", "", time.Time{}, fmt.Errorf("session: user id is required")
	}
	csrf = uuid.NewString()
	expires = time.Now().Add(m.ttl)
	claims := &Claims{
		UserID: userID,
		CSRF:   csrf,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "tileboard",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("session: sign token: %w", err)
	}
	return signed, csrf, expires, nil
}

// Validate parses a session token and returns its claims.
func (m *Manager) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("session: unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, tiles.ErrUnauthorized
	}
	return claims, nil
}

// CookieName reports the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Cookie builds the session cookie for an issued token. Callers that do
// not hold an http.ResponseWriter can serialize it into a Set-Cookie
// header themselves.
func (m *Manager) Cookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetCookie writes the session cookie onto a response.
func (m *Manager) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, m.Cookie(token, expires))
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClaimsFromRequest reads and validates the session cookie on a request.
func (m *Manager) ClaimsFromRequest(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, tiles.ErrUnauthorized
	}
	return m.Validate(cookie.Value)
}

// ClaimsFromCookieHeader validates a session carried in a raw Cookie
// header value, for transports that expose headers but not *http.Request.
func (m *Manager) ClaimsFromCookieHeader(raw string) (*Claims, error) {
	if raw == "" {
		return nil, tiles.ErrUnauthorized
	}
	r := &http.Request{Header: http.Header{"Cookie": {raw}}}
	return m.ClaimsFromRequest(r)
}

// Resolver returns a viewer resolver for the httpapi handlers.
func (m *Manager) Resolver() func(*http.Request) (tiles.ViewerContext, bool) {
	return func(r *http.Request) (tiles.ViewerContext, bool) {
		claims, err := m.ClaimsFromRequest(r)
		if err != nil {
			return tiles.ViewerContext{}, false
		}
		return tiles.ViewerContext{UserID: claims.UserID, Path: r.URL.RequestURI()}, true
	}
}

// CSRFSource returns the session's CSRF token for double-submit checks.
func (m *Manager) CSRFSource() func(*http.Request) string {
	return func(r *http.Request) string {
		claims, err := m.ClaimsFromRequest(r)
		if err != nil {
			return ""
		}
		return claims.CSRF
	}
}
