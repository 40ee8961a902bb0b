package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/sweetshop/sweetshop-client/internal/backend"
	"github.com/sweetshop/sweetshop-client/pkg/errors"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
)

// AuthClient talks to the backend's /api/auth endpoints
type AuthClient struct {
	backend *backend.Client
	logger  *logger.Logger
}

// NewAuthClient creates a new auth gateway
func NewAuthClient(b *backend.Client, log *logger.Logger) *AuthClient {
	return &AuthClient{
		backend: b,
		logger:  log,
	}
}

// Credentials is the login payload
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the signup payload
type Profile struct {
	Name          string `json:"name"`
	ContactNumber string `json:"contactNumber"`
	Email         string `json:"email"`
	Password      string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login exchanges credentials for a bearer token. A 2xx reply that carries
// no token is treated as a rejection with the backend's message.
func (c *AuthClient) Login(ctx context.Context, creds Credentials) (string, error) {
	var resp loginResponse
	err := c.backend.Do(ctx, backend.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   creds,
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.Token == "" {
		return "", errors.Remote(http.StatusUnauthorized, resp.Message)
	}

	c.logger.Info().Str("email", creds.Email).Msg("login accepted")
	return resp.Token, nil
}

// Signup registers a new account and returns the backend's confirmation
func (c *AuthClient) Signup(ctx context.Context, profile Profile) (string, error) {
	var resp backend.MessageResponse
	err := c.backend.Do(ctx, backend.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/signup",
		Body:   profile,
	}, &resp)
	if err != nil {
		return "", err
	}

	c.logger.Info().Str("email", profile.Email).Msg("signup accepted")
	return resp.Message, nil
}

// CheckToken asks the backend whether token is still accepted.
// A 401/403 is a definite "no"; other failures are returned as errors.
func (c *AuthClient) CheckToken(ctx context.Context, token string) (bool, error) {
	var resp backend.MessageResponse
	err := c.backend.Do(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   "/api/auth/checkToken",
		Token:  token,
	}, &resp)
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) &&
			(appErr.StatusCode == http.StatusUnauthorized || appErr.StatusCode == http.StatusForbidden) {
			return false, nil
		}
		return false, err
	}

	return strings.EqualFold(strings.TrimSpace(resp.Message), "true"), nil
}
