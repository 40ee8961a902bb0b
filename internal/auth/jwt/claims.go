// Package jwt reads bearer tokens issued by the SweetShop backend.
//
// Nothing here verifies a signature. The client has no key and uses the
// claims only to show or hide affordances; the backend re-validates the token
// on every protected call.
package jwt

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sweetshop/sweetshop-client/pkg/errors"
)

// RoleAdmin is the role allowed to delete and restock
const RoleAdmin = "admin"

// Claims is the subset of the backend's token payload the client reads
type Claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Inspect decodes the token payload without verifying it
func Inspect(token string) (*Claims, error) {
	if token == "" {
		return nil, errors.Unauthorized("no token")
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "TOKEN_INVALID", "token payload could not be decoded", 401)
	}

	return claims, nil
}

// HasRole reports whether the token's role claim equals role, ignoring case.
// Any decoding failure yields false.
func HasRole(token, role string) bool {
	claims, err := Inspect(token)
	if err != nil {
		return false
	}
	return claims.Role != "" && strings.EqualFold(claims.Role, role)
}

// Subject returns the token's subject, or "" when it cannot be decoded
func Subject(token string) string {
	claims, err := Inspect(token)
	if err != nil {
		return ""
	}
	return claims.Subject
}
