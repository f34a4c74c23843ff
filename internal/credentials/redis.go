package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"webomat/internal/models"
)

// Redis keeps credentials in Redis so several host processes of one
// installation share a single session.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis creates a store whose keys live under "webomat:<namespace>:".
func NewRedis(rdb *redis.Client, namespace string) *Redis {
	namespace = strings.ToLower(strings.TrimSpace(namespace))
	if namespace == "" {
		namespace = "default"
	}
	return &Redis{rdb: rdb, prefix: fmt.Sprintf("webomat:%s:", namespace)}
}

func (r *Redis) key(name string) string {
	return r.prefix + name
}

func (r *Redis) Token(ctx context.Context) (string, error) {
	token, err := r.rdb.Get(ctx, r.key(KeyToken)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get token: %w", err)
	}
	return token, nil
}

func (r *Redis) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return r.rdb.Del(ctx, r.key(KeyToken)).Err()
	}
	return r.rdb.Set(ctx, r.key(KeyToken), token, 0).Err()
}

func (r *Redis) User(ctx context.Context) (*models.User, error) {
	raw, err := r.rdb.Get(ctx, r.key(KeyUser)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get user: %w", err)
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, ErrCorrupted
	}
	return &user, nil
}

func (r *Redis) SetUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return r.rdb.Del(ctx, r.key(KeyUser)).Err()
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return r.rdb.Set(ctx, r.key(KeyUser), raw, 0).Err()
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key(KeyToken), r.key(KeyUser)).Err()
}
