// Package session holds the authentication state of the client: whether a
// credential is stored, which user it belongs to and the hooks to run when
// the user logs out.
//
// The credential is read through Context, which returns an immutable value
// that callers pass explicitly into every resource operation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/common"
	"github.com/dmitrijs2005/mealkeeper/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Store persists the credential between runs.
type Store interface {
	Load(ctx context.Context) (string, models.Credential, error)
	Save(ctx context.Context, username string, cred models.Credential) error
	Clear(ctx context.Context) error
}

// Context is a snapshot of the session taken at call time.
type Context struct {
	Username    string
	AccessToken string
}

// Authorized reports whether the context carries an access token.
func (c Context) Authorized() bool { return c.AccessToken != "" }

type Session struct {
	store Store
	log   logging.Logger

	mu       sync.RWMutex
	username string
	cred     models.Credential
	hooks    []func(context.Context)
}

// Open reads the stored credential once and returns the session.
func Open(ctx context.Context, store Store, log logging.Logger) (*Session, error) {
	if log == nil {
		log = logging.NewNop()
	}
	username, cred, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	s := &Session{store: store, log: log, username: username, cred: cred}
	if s.IsAuthenticated() {
		log.Debug(ctx, "session restored", "username", username)
	}
	return s, nil
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.Access != ""
}

// Login persists the credential and marks the session authenticated.
// The in-memory state changes only when the store accepted the write.
func (s *Session) Login(ctx context.Context, username string, cred models.Credential) error {
	if cred.Access == "" {
		return fmt.Errorf("login: %w", common.ErrInvalidToken)
	}
	if err := s.store.Save(ctx, username, cred); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	s.mu.Lock()
	s.username = username
	s.cred = cred
	s.mu.Unlock()

	s.log.Info(ctx, "logged in", "username", username)
	return nil
}

// UpdateCredential replaces the token pair of the current user, e.g. after a
// refresh.
func (s *Session) UpdateCredential(ctx context.Context, cred models.Credential) error {
	s.mu.RLock()
	username := s.username
	authenticated := s.cred.Access != ""
	s.mu.RUnlock()

	if !authenticated {
		return ErrNotAuthenticated
	}
	return s.Login(ctx, username, cred)
}

// Logout clears the persisted and in-memory credential and runs the logout
// hooks. Hooks run even when clearing the store failed; the error is
// returned afterwards.
func (s *Session) Logout(ctx context.Context) error {
	clearErr := s.store.Clear(ctx)

	s.mu.Lock()
	username := s.username
	s.username = ""
	s.cred = models.Credential{}
	hooks := append([]func(context.Context){}, s.hooks...)
	s.mu.Unlock()

	for _, h := range hooks {
		h(ctx)
	}

	if clearErr != nil {
		return fmt.Errorf("logout: %w", clearErr)
	}
	s.log.Info(ctx, "logged out", "username", username)
	return nil
}

// OnLogout registers fn to be called on every Logout.
func (s *Session) OnLogout(fn func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Session) Context() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Context{Username: s.username, AccessToken: s.cred.Access}
}

func (s *Session) Credential() models.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

// Expiry decodes the exp claim of the access token. The signature is not
// verified; the API owns the token.
func (s *Session) Expiry() (time.Time, error) {
	s.mu.RLock()
	access := s.cred.Access
	s.mu.RUnlock()

	if access == "" {
		return time.Time{}, ErrNotAuthenticated
	}
	return TokenExpiry(access)
}

// Expired reports whether the access token is past its exp claim at now.
// Tokens that carry no readable expiry are never considered expired.
func (s *Session) Expired(now time.Time) bool {
	exp, err := s.Expiry()
	if err != nil || exp.IsZero() {
		return false
	}
	return !now.Before(exp)
}

// TokenExpiry returns the exp claim of a JWT, or the zero time when the
// token has none.
func TokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}
