package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie holds the signed session token.
	SessionCookie = "recipebox_session"
	// StateCookie holds the OAuth state between redirect and callback.
	StateCookie = "recipebox_oauth_state"

	sessionTTL = 7 * 24 * time.Hour
	stateTTL   = 10 * time.Minute
	issuer     = "recipebox"
)

// ErrInvalidSession is returned for missing, expired or tampered sessions.
var ErrInvalidSession = errors.New("invalid session")

// Claims is the payload of a session token.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies session cookies.
type Sessions struct {
	secret []byte
	secure bool
	now    func() time.Time
}

// NewSessions creates Sessions signing with secret. secure marks cookies
// as HTTPS-only.
func NewSessions(secret string, secure bool) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		secure: secure,
		now:    time.Now,
	}
}

// Issue signs a session token for userID.
func (s *Sessions) Issue(userID string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return token, nil
}

// Parse verifies a session token and returns the user ID it carries.
func (s *Sessions) Parse(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidSession
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.UserID == "" {
		return "", ErrInvalidSession
	}
	return claims.UserID, nil
}

// SetCookie issues a session for userID and writes it to w.
func (s *Sessions) SetCookie(w http.ResponseWriter, userID string) error {
	token, err := s.Issue(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(SessionCookie, token, int(sessionTTL.Seconds())))
	return nil
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(SessionCookie, "", -1))
}

// UserID returns the user ID of the session attached to r.
func (s *Sessions) UserID(r *http.Request) (string, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", ErrInvalidSession
	}
	return s.Parse(c.Value)
}

// NewState generates an OAuth state value and stores it in a short-lived
// cookie.
func (s *Sessions) NewState(w http.ResponseWriter) (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, s.cookie(StateCookie, state, int(stateTTL.Seconds())))
	return state, nil
}

// VerifyState compares the state echoed by the provider with the cookie and
// expires the cookie either way.
func (s *Sessions) VerifyState(w http.ResponseWriter, r *http.Request) bool {
	http.SetCookie(w, s.cookie(StateCookie, "", -1))

	c, err := r.Cookie(StateCookie)
	if err != nil || c.Value == "" {
		return false
	}
	return c.Value == r.URL.Query().Get("state")
}

func (s *Sessions) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
