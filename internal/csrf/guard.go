// Package csrf issues, verifies and rotates the per-session anti-forgery token
// that must accompany every guestbook mutation.
package csrf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/guestbook/internal/cache"
	"github.com/charlesng35/guestbook/pkg/crypto"
)

const (
	// DefaultTokenBytes yields 192 bits of entropy per token.
	DefaultTokenBytes = 24
	// DefaultTTL bounds how long an idle session keeps its token.
	DefaultTTL = 12 * time.Hour

	minTokenBytes = 16
	keyPrefix     = "csrf:"
)

// ErrSessionRequired is returned when a token is requested without a session id.
var ErrSessionRequired = errors.New("csrf: session id is required")

// Guard owns the token of every active session. Tokens are kept in a cache.Store
// keyed by session id and expire together with the session.
type Guard struct {
	store      cache.Store
	ttl        time.Duration
	tokenBytes int
	locks      *keyedMutex
	generate   func(int) (string, error)
}

// Option customises a Guard.
type Option func(*Guard)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithTokenBytes overrides the number of random bytes per token. Values below 16 are ignored.
func WithTokenBytes(n int) Option {
	return func(g *Guard) {
		if n >= minTokenBytes {
			g.tokenBytes = n
		}
	}
}

// NewGuard constructs a Guard on top of store.
func NewGuard(store cache.Store, opts ...Option) (*Guard, error) {
	if store == nil {
		return nil, errors.New("csrf: token store is required")
	}

	g := &Guard{
		store:      store,
		ttl:        DefaultTTL,
		tokenBytes: DefaultTokenBytes,
		locks:      newKeyedMutex(),
		generate:   crypto.GenerateToken,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// CurrentToken returns the session's token, issuing a fresh one when none exists.
func (g *Guard) CurrentToken(ctx context.Context, sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrSessionRequired
	}

	if token, ok, err := g.lookup(ctx, sessionID); err != nil || ok {
		return token, err
	}

	// Concurrent first requests of one session must agree on a single token.
	unlock := g.locks.Lock("issue:" + sessionID)
	defer unlock()

	if token, ok, err := g.lookup(ctx, sessionID); err != nil || ok {
		return token, err
	}
	return g.issue(ctx, sessionID)
}

// Verify reports whether supplied matches the session's current token. The
// comparison runs in constant time; a session without a token never verifies.
func (g *Guard) Verify(ctx context.Context, sessionID, supplied string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, nil
	}

	current, _, err := g.lookup(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return crypto.TokensEqual(current, supplied), nil
}

// Rotate replaces the session's token and returns the new value.
func (g *Guard) Rotate(ctx context.Context, sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrSessionRequired
	}
	return g.issue(ctx, sessionID)
}

// Lock serialises verify-then-rotate sequences of one session within this process.
// The returned function releases the lock and is safe to call more than once.
func (g *Guard) Lock(sessionID string) (unlock func()) {
	return g.locks.Lock("mutate:" + strings.TrimSpace(sessionID))
}

func (g *Guard) lookup(ctx context.Context, sessionID string) (string, bool, error) {
	value, ok, err := g.store.Get(ctx, keyPrefix+sessionID)
	if err != nil {
		return "", false, fmt.Errorf("csrf: load token: %w", err)
	}
	if !ok || len(value) == 0 {
		return "", false, nil
	}
	return string(value), true, nil
}

func (g *Guard) issue(ctx context.Context, sessionID string) (string, error) {
	token, err := g.generate(g.tokenBytes)
	if err != nil {
		return "", fmt.Errorf("csrf: generate token: %w", err)
	}
	if err := g.store.Set(ctx, keyPrefix+sessionID, []byte(token), g.ttl); err != nil {
		return "", fmt.Errorf("csrf: store token: %w", err)
	}
	return token, nil
}
