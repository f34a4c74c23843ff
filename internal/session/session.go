// Package session derives the caller's identity from the bearer token.
// The backend stays authoritative: the token is decoded, never verified,
// and the result only decides what the dashboard renders.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"

	"webomat/internal/models"
)

var (
	ErrNoToken      = errors.New("session: no token")
	ErrTokenExpired = errors.New("session: token expired")
	// ErrNotVerified is returned by Verify when no profile source is set.
	ErrNotVerified = errors.New("session: token not verified")
	// ErrUserMismatch means the backend profile belongs to someone other
	// than the token's subject.
	ErrUserMismatch = errors.New("session: token subject does not match profile")
)

// Identity is what the dashboard knows about the caller.
type Identity struct {
	UserID    string
	Email     string
	Role      string
	SellerID  string
	ExpiresAt time.Time
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Expired reports whether the token's exp claim is before now. Tokens
// without exp never expire here.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// FromToken decodes the claims of an access token.
func FromToken(token string) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return Identity{}, ErrNoToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("session: decode token: %w", err)
	}

	id := Identity{
		UserID:   claimString(claims, "user_id"),
		Email:    claimString(claims, "email"),
		Role:     claimString(claims, "role"),
		SellerID: claimString(claims, "seller_id"),
	}
	sub := claimString(claims, "sub")
	if id.UserID == "" {
		id.UserID = sub
	}
	if id.Email == "" && strings.Contains(sub, "@") {
		id.Email = sub
	}
	switch exp := claims["exp"].(type) {
	case float64:
		id.ExpiresAt = time.Unix(int64(exp), 0)
	case int64:
		id.ExpiresAt = time.Unix(exp, 0)
	}
	return id, nil
}

func claimString(c jwt.MapClaims, key string) string {
	s, _ := c[key].(string)
	return s
}

// Profile fetches the current user; the API client's Me satisfies it.
type Profile func(ctx context.Context) (*models.User, error)

// Resolver turns a token into an Identity, asking the backend when the
// token carries no role.
type Resolver struct {
	profile Profile
	now     func() time.Time
}

func NewResolver(profile Profile) *Resolver {
	return &Resolver{profile: profile, now: time.Now}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (Identity, error) {
	id, err := r.decode(token)
	if err != nil {
		return Identity{}, err
	}
	if id.Role != "" || r.profile == nil {
		return id, nil
	}

	u, err := r.profile(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("session: load profile: %w", err)
	}
	return merge(id, u), nil
}

// Verify is Resolve for callers that never reach the backend afterwards:
// the profile is always fetched, so a token the backend refuses yields no
// identity. ctx must carry the token for the profile call.
func (r *Resolver) Verify(ctx context.Context, token string) (Identity, error) {
	id, err := r.decode(token)
	if err != nil {
		return Identity{}, err
	}
	if r.profile == nil {
		return Identity{}, ErrNotVerified
	}

	u, err := r.profile(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("session: verify token: %w", err)
	}
	if u == nil {
		return Identity{}, ErrNotVerified
	}
	if id.Role == "" {
		return merge(id, u), nil
	}
	// Keep the token-derived identity so the key matches what Resolve
	// hands the handlers.
	if id.UserID != u.ID && id.UserID != u.Email && (id.Email == "" || id.Email != u.Email) {
		return Identity{}, ErrUserMismatch
	}
	return id, nil
}

func (r *Resolver) decode(token string) (Identity, error) {
	id, err := FromToken(token)
	if err != nil {
		return Identity{}, err
	}
	if id.Expired(r.now()) {
		return Identity{}, ErrTokenExpired
	}
	return id, nil
}

func merge(id Identity, u *models.User) Identity {
	id.Role = u.Role
	if u.ID != "" {
		id.UserID = u.ID
	}
	if u.Email != "" {
		id.Email = u.Email
	}
	if u.SellerID != nil {
		id.SellerID = *u.SellerID
	}
	return id
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
