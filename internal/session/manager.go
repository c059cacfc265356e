package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the name of the session cookie.
const CookieName = "legalbuddy.sid"

const tokenIssuer = "legalbuddy"

var errInvalidToken = errors.New("invalid session token")

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Secret       string
	TTL          time.Duration
	SecureCookie bool
}

// Manager resolves the session of a request and issues session cookies.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager creates a session manager backed by store.
func NewManager(store Store, cfg ManagerConfig) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Manager{
		store:  store,
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		secure: cfg.SecureCookie,
		now:    time.Now,
	}, nil
}

// Resolve returns the session named by the request cookie. When the cookie is
// missing, invalid or points to an expired record, a new session is created
// and created is true.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (s *Session, created bool, err error) {
	if c, cerr := r.Cookie(CookieName); cerr == nil {
		if id, perr := m.parseToken(c.Value); perr == nil {
			s, err = m.store.Load(ctx, id)
			if err == nil {
				return s, false, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return nil, false, err
			}
		}
	}

	s = New()
	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Cookie builds the cookie carrying a signed token for s.
func (m *Manager) Cookie(s *Session) (*http.Cookie, error) {
	token, err := m.signToken(s.ID)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func (m *Manager) signToken(sessionID string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parseToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid || claims.ID == "" {
		return "", errInvalidToken
	}
	return claims.ID, nil
}
