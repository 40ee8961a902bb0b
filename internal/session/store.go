// Package session holds the client's one bearer-token session.
package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/sweetshop/sweetshop-client/internal/auth/client"
	"github.com/sweetshop/sweetshop-client/internal/auth/jwt"
	"github.com/sweetshop/sweetshop-client/pkg/errors"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
)

// Fallback messages when the backend gives no reason
const (
	MsgLoginFailed  = "Login failed. Please check your credentials."
	MsgSignupFailed = "Registration failed. Please try again."
)

// AuthGateway is the backend's authentication API
type AuthGateway interface {
	Login(ctx context.Context, creds client.Credentials) (string, error)
	Signup(ctx context.Context, profile client.Profile) (string, error)
	CheckToken(ctx context.Context, token string) (bool, error)
}

// TokenRepository persists the token between runs
type TokenRepository interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Session is the authenticated identity, reduced to its bearer token
type Session struct {
	Token string `json:"token"`
}

// Store is the single session of a client process. It is created once in
// main and passed to whatever needs identity.
type Store struct {
	mu     sync.RWMutex
	token  string
	auth   AuthGateway
	tokens TokenRepository
	logger *logger.Logger
}

// NewStore creates an unauthenticated store
func NewStore(auth AuthGateway, tokens TokenRepository, log *logger.Logger) *Store {
	return &Store{
		auth:   auth,
		tokens: tokens,
		logger: log.WithComponent("session"),
	}
}

// Restore loads a persisted token and keeps it only if the backend still
// accepts it. Failing to reach the backend keeps the token; the next
// protected call will reveal whether it is still good.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	ok, err := s.auth.CheckToken(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not verify stored token, keeping it")
	} else if !ok {
		s.logger.Info().Msg("stored token rejected by backend, discarding it")
		if err := s.tokens.Clear(ctx); err != nil {
			s.logger.Error().Err(err).Msg("failed to clear rejected token")
		}
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.logger.Info().Str("subject", jwt.Subject(token)).Msg("session restored")
	return nil
}

// Login authenticates and, on success, makes the returned token current.
// On failure the session is left exactly as it was.
func (s *Store) Login(ctx context.Context, req LoginRequest) (Session, error) {
	if err := preflight(req); err != nil {
		return Session{}, err
	}

	token, err := s.auth.Login(ctx, req.credentials())
	if err != nil {
		s.logger.Info().Err(err).Str("email", req.Email).Msg("login rejected")
		return Session{}, errors.Wrap(err, "LOGIN_FAILED", errors.UserMessage(err, MsgLoginFailed), errors.StatusCode(err, http.StatusBadGateway))
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := s.tokens.Save(ctx, token); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist token")
	}

	s.logger.Info().Str("email", req.Email).Bool("admin", jwt.HasRole(token, jwt.RoleAdmin)).Msg("logged in")
	return Session{Token: token}, nil
}

// Logout forgets the token. It cannot fail; storage errors are logged.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear persisted token")
	}
	s.logger.Info().Msg("logged out")
}

// Signup registers an account. It never changes the session.
func (s *Store) Signup(ctx context.Context, req SignupRequest) (string, error) {
	if err := preflight(req); err != nil {
		return "", err
	}

	msg, err := s.auth.Signup(ctx, req.profile())
	if err != nil {
		s.logger.Info().Err(err).Str("email", req.Email).Msg("signup rejected")
		return "", errors.Wrap(err, "SIGNUP_FAILED", errors.UserMessage(err, MsgSignupFailed), errors.StatusCode(err, http.StatusBadGateway))
	}
	return msg, nil
}

// CurrentToken returns the bearer token, or "" when logged out
func (s *Store) CurrentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a token is held
func (s *Store) IsAuthenticated() bool {
	return s.CurrentToken() != ""
}

// HasRole decodes the current token on every call. It is advisory: it
// decides what to show, never what the backend will allow.
func (s *Store) HasRole(role string) bool {
	return jwt.HasRole(s.CurrentToken(), role)
}

// IsAdmin reports whether the current token carries the admin role
func (s *Store) IsAdmin() bool {
	return s.HasRole(jwt.RoleAdmin)
}
