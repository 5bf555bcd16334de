// Package auth verifies the bearer tokens gate agents and administrators
// present. Tokens are HS256 JWTs minted by the campus identity service;
// this package never issues them outside of development tooling.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
	ErrForbidden    = errors.New("role not permitted")
)

type Role string

const (
	RoleSecurity Role = "security"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleSecurity || r == RoleAdmin
}

// Identity is the authenticated caller. Agent is the JWT subject and is
// what the scan log records.
type Identity struct {
	Agent string
	Role  Role
}

// Claims represents the JWT claims of an agent token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	key []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	return &Verifier{key: []byte(secret)}, nil
}

// Verify checks signature, expiry, subject and role.
func (v *Verifier) Verify(token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrInvalidToken
	}
	if !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	id := Identity{Agent: strings.TrimSpace(claims.Subject), Role: Role(claims.Role)}
	if id.Agent == "" || !id.Role.Valid() {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}

// VerifyHeader accepts an Authorization header value ("Bearer <jwt>").
func (v *Verifier) VerifyHeader(header string) (Identity, error) {
	token, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return Identity{}, ErrMissingToken
	}
	return v.Verify(strings.TrimSpace(token))
}

// Sign mints an HS256 token for id. Used by development tooling and tests.
func Sign(secret string, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Agent,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	s, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Allowed reports whether id holds one of roles.
func (id Identity) Allowed(roles ...Role) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}

type contextKeyIdentity struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity{}, id)
}

// FromContext returns the identity stored by the transport middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKeyIdentity{}).(Identity)
	return id, ok
}
