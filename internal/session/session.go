// Package session stores the authenticated athlete's identity and API
// tokens in a signed cookie, so the server itself stays stateless.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	cookieName = "mystrava_session"
	sessionTTL = 30 * 24 * time.Hour
)

// ErrNoSession is returned when the request carries no session cookie
var ErrNoSession = errors.New("no session")

// ErrInvalidSession wraps signature and claim validation failures
var ErrInvalidSession = errors.New("invalid session")

// AuthContext is the decoded session: who the athlete is and the tokens to
// talk to the remote API on their behalf
type AuthContext struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Premium      bool
	Profile      string
}

// NeedsRefresh reports whether the access token is expired or about to
// expire
func (a *AuthContext) NeedsRefresh() bool {
	return time.Now().After(a.ExpiresAt.Add(-5 * time.Minute))
}

type sessionClaims struct {
	AccessToken  string `json:"atk"`
	RefreshToken string `json:"rtk"`
	TokenExpires int64  `json:"tex"`
	Premium      bool   `json:"prm,omitempty"`
	Profile      string `json:"pfl,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session cookies
type Manager struct {
	secret []byte
	secure bool
	logger *slog.Logger
}

// NewManager creates a session manager. secure controls the cookie's Secure
// flag and should be true everywhere except local development.
func NewManager(secret string, secure bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{secret: []byte(secret), secure: secure, logger: logger}
}

// Issue signs auth into a session cookie on the response
func (m *Manager) Issue(w http.ResponseWriter, auth *AuthContext) error {
	now := time.Now()
	claims := sessionClaims{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		TokenExpires: auth.ExpiresAt.Unix(),
		Premium:      auth.Premium,
		Profile:      auth.Profile,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(auth.AthleteID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// FromRequest verifies the session cookie and returns the decoded auth
// context. Returns ErrNoSession when the cookie is absent and
// ErrInvalidSession when it fails verification.
func (m *Manager) FromRequest(r *http.Request) (*AuthContext, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil, ErrNoSession
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		m.logger.Debug("session rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid {
		return nil, ErrInvalidSession
	}

	athleteID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || athleteID == 0 {
		return nil, ErrInvalidSession
	}

	return &AuthContext{
		AthleteID:    athleteID,
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
		ExpiresAt:    time.Unix(claims.TokenExpires, 0),
		Premium:      claims.Premium,
		Profile:      claims.Profile,
	}, nil
}

// Clear expires the session cookie
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
