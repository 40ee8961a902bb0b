package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetshop/sweetshop-client/internal/auth/jwt"
	"github.com/sweetshop/sweetshop-client/internal/backend"
	"github.com/sweetshop/sweetshop-client/internal/backend/backendtest"
	"github.com/sweetshop/sweetshop-client/pkg/errors"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
)

func newClient(t *testing.T) (*AuthClient, *backendtest.FakeBackend) {
	t.Helper()
	fb := backendtest.NewSeededBackend(t)
	return NewAuthClient(backend.NewClient(fb.URL(), 5*time.Second, logger.Nop()), logger.Nop()), fb
}

func TestLogin(t *testing.T) {
	c, _ := newClient(t)

	token, err := c.Login(context.Background(), Credentials{
		Email:    backendtest.AdminUser.Email,
		Password: backendtest.AdminUser.Password,
	})
	require.NoError(t, err)
	assert.True(t, jwt.HasRole(token, jwt.RoleAdmin))
	assert.Equal(t, backendtest.AdminUser.Email, jwt.Subject(token))
}

func TestLogin_BadCredentials(t *testing.T) {
	c, _ := newClient(t)

	token, err := c.Login(context.Background(), Credentials{Email: backendtest.ShopUser.Email, Password: "wrong"})
	require.Error(t, err)
	assert.Empty(t, token)
	assert.Equal(t, "Bad Credentials", errors.UserMessage(err, "fallback"))
}

func TestLogin_SuccessWithoutToken(t *testing.T) {
	c, fb := newClient(t)
	fb.FailNext(http.MethodPost, "/api/auth/login", http.StatusOK, "Wait for admin approval")

	_, err := c.Login(context.Background(), Credentials{Email: "a@b.c", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, "Wait for admin approval", errors.UserMessage(err, "fallback"))
}

func TestSignup(t *testing.T) {
	c, fb := newClient(t)
	profile := Profile{Name: "Asha", ContactNumber: "9999999999", Email: "asha@sweetshop.test", Password: "secret1"}

	msg, err := c.Signup(context.Background(), profile)
	require.NoError(t, err)
	assert.Equal(t, "Successfully Registered", msg)

	calls := fb.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "9999999999", calls[0].Body["contactNumber"])

	_, err = c.Signup(context.Background(), profile)
	assert.Equal(t, "Email already exists", errors.UserMessage(err, "fallback"))
}

func TestCheckToken(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	ok, err := c.CheckToken(ctx, backendtest.NewToken(t, "user@sweetshop.test", "user"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CheckToken(ctx, "forged.token.value")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckToken_ServerErrorIsReturned(t *testing.T) {
	c, fb := newClient(t)
	fb.FailNext(http.MethodGet, "/api/auth/checkToken", http.StatusInternalServerError, "")

	ok, err := c.CheckToken(context.Background(), backendtest.NewToken(t, "user@sweetshop.test", "user"))
	assert.Error(t, err)
	assert.False(t, ok)
}
