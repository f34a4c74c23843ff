package credentials

import (
	"context"

	"webomat/internal/models"
)

type ctxKey int

const (
	tokenKey ctxKey = iota
	userKey
)

// WithToken returns a context carrying the caller's bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// WithUser returns a context carrying the caller's profile.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// FromContext reads credentials from the request context. A server host serves
// many callers from one client, so nothing is ever written back.
type FromContext struct{}

func (FromContext) Token(ctx context.Context) (string, error) {
	token, _ := ctx.Value(tokenKey).(string)
	return token, nil
}

func (FromContext) SetToken(context.Context, string) error { return nil }

func (FromContext) User(ctx context.Context) (*models.User, error) {
	user, _ := ctx.Value(userKey).(*models.User)
	return user, nil
}

func (FromContext) SetUser(context.Context, *models.User) error { return nil }

func (FromContext) Clear(context.Context) error { return nil }
