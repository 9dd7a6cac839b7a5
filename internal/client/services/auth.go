// Package services contains application services for the mealkeeper client.
// This file defines the authentication service: login, register, token
// refresh, logout and the API liveness check.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/session"
	"github.com/dmitrijs2005/mealkeeper/internal/common"
	"github.com/dmitrijs2005/mealkeeper/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: exchange username/password for a token pair and store it in the session.
//   - Register: create a new user on the server. It does not log in.
//   - Refresh: trade the stored refresh token for a new access token.
//   - Logout: clear the session (and, via its hooks, every cache).
//   - Ping: check API liveness.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) error
	Register(ctx context.Context, username, email string, password []byte) (models.User, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

// AuthAPI is the part of the API client the auth service needs.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (models.Credential, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.User, error)
	RefreshToken(ctx context.Context, refresh string) (models.Credential, error)
	Ping(ctx context.Context) error
}

type authService struct {
	api  AuthAPI
	sess *session.Session
	log  logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and session.
func NewAuthService(api AuthAPI, sess *session.Session, log logging.Logger) AuthService {
	if log == nil {
		log = logging.NewNop()
	}
	return &authService{api: api, sess: sess, log: log}
}

// Login authenticates against the API and persists the returned credential.
// The password slice is wiped before returning.
func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	defer common.WipeByteArray(password)

	cred, err := a.api.Login(ctx, username, string(password))
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	if err := a.sess.Login(ctx, username, cred); err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}
	return nil
}

// Register creates a new account on the server. The password slice is wiped
// before returning.
func (a *authService) Register(ctx context.Context, username, email string, password []byte) (models.User, error) {
	defer common.WipeByteArray(password)

	u, err := a.api.Register(ctx, models.RegisterRequest{
		Username: username,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		return models.User{}, fmt.Errorf("register error: %w", err)
	}
	a.log.Info(ctx, "user registered", "username", username)
	return u, nil
}

func (a *authService) Refresh(ctx context.Context) error {
	cur := a.sess.Credential()
	if cur.Access == "" {
		return session.ErrNotAuthenticated
	}
	if cur.Refresh == "" {
		return fmt.Errorf("refresh error: %w", common.ErrInvalidToken)
	}

	cred, err := a.api.RefreshToken(ctx, cur.Refresh)
	if err != nil {
		return fmt.Errorf("refresh error: %w", err)
	}
	if err := a.sess.UpdateCredential(ctx, cred); err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}
	a.log.Debug(ctx, "access token refreshed")
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.sess.Logout(ctx)
}

// Ping proxies a liveness check to the API client.
func (a *authService) Ping(ctx context.Context) error {
	return a.api.Ping(ctx)
}
