package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"qart_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

const UserCacheTTL = 5 * time.Minute

// UserFinder est la partie du dépôt utilisateurs derrière le cache
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// UserCache met en cache les comptes résolus par le middleware d'auth.
// Le hash du mot de passe n'est jamais écrit dans Redis (json:"-").
type UserCache struct {
	client *redis.Client
	users  UserFinder
	ttl    time.Duration
}

var _ UserFinder = (*UserCache)(nil)

func NewUserCache(client *redis.Client, users UserFinder, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = UserCacheTTL
	}
	return &UserCache{client: client, users: users, ttl: ttl}
}

func userKey(id string) string {
	return "user:" + id
}

// FindByID lit Redis puis retombe sur le dépôt
func (c *UserCache) FindByID(ctx context.Context, id string) (*models.User, error) {
	key := userKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var user models.User
		if json.Unmarshal(data, &user) == nil {
			return &user, nil
		}
	} else if err != redis.Nil {
		log.Printf("⚠️ Cache utilisateur indisponible: %v", err)
	}

	user, err := c.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			log.Printf("⚠️ Mise en cache de %s impossible: %v", id, err)
		}
	}
	return user, nil
}

func (c *UserCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, userKey(userID)).Err()
}
