// Package auth authenticates bearer tokens and carries the caller's claims
// through the request context.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeAdmin grants every scope.
const ScopeAdmin = "admin"

// Claims are the JWT claims understood by the service. Scopes may arrive as a
// space separated "scope" string, a "scopes" array, or both.
type Claims struct {
	Scope  string   `json:"scope,omitempty"`
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// AllScopes returns the de-duplicated union of Scope and Scopes in order.
func (c *Claims) AllScopes() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0, len(c.Scopes)+1)
	for _, scope := range append(strings.Fields(c.Scope), c.Scopes...) {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		out = append(out, scope)
	}
	return out
}

// HasScope reports whether the claims grant scope. admin grants everything.
func (c *Claims) HasScope(scope string) bool {
	scopes := c.AllScopes()
	return slices.Contains(scopes, scope) || slices.Contains(scopes, ScopeAdmin)
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("auth: empty token")
	}
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("auth: missing subject")
	}
	return claims, nil
}

// IssueToken signs an HS256 token for subject with the given scopes.
func IssueToken(secret []byte, subject string, scopes []string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("auth: empty secret")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("auth: subject is required")
	}
	if ttl <= 0 {
		return "", errors.New("auth: ttl must be positive")
	}

	now := time.Now().UTC()
	claims := Claims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}
