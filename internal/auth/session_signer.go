package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionTTL defines the fallback lifetime of a visitor session.
const DefaultSessionTTL = 12 * time.Hour

// SignerConfig bundles the configuration required to build a SessionSigner.
type SignerConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Clock  func() time.Time
}

// SessionClaims are the claims carried by the session cookie.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Session is an issued session and its encoded cookie value.
type Session struct {
	ID        string
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionSigner issues and validates signed session cookies.
type SessionSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionSigner constructs a signer when provided with the required configuration.
func NewSessionSigner(cfg SignerConfig) (*SessionSigner, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session: secret must be provided")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &SessionSigner{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// TTL reports how long issued sessions stay valid.
func (s *SessionSigner) TTL() time.Duration {
	return s.ttl
}

// Issue starts a new session with a random identifier.
func (s *SessionSigner) Issue() (*Session, error) {
	return s.sign(uuid.NewString())
}

func (s *SessionSigner) sign(sessionID string) (*Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("session: sign token: %w", err)
	}

	return &Session{ID: sessionID, Value: signed, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

// Validate parses a cookie value and returns the session id it carries.
func (s *SessionSigner) Validate(value string) (string, error) {
	if value == "" {
		return "", errors.New("session: cookie value is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)

	var claims SessionClaims
	_, err := parser.ParseWithClaims(value, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("session: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return "", errors.New("session: invalid issuer")
	}

	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", errors.New("session: malformed session id")
	}

	return claims.SessionID, nil
}
