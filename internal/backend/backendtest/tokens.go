package backendtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// TestSigningKey signs tokens minted by the fake backend
const TestSigningKey = "sweetshop-test-signing-key"

// NewToken mints an HS256 token with the given subject and role claim
func NewToken(t *testing.T, subject, role string) string {
	t.Helper()
	token, err := signToken(subject, role)
	require.NoError(t, err)
	return token
}

func signToken(subject, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestSigningKey))
}

func verifyToken(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(TestSigningKey), nil
	})
	if err != nil || !parsed.Valid {
		return nil, false
	}
	return claims, true
}
