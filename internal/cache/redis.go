package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store regroupe les usages "clé simple" de Redis : blacklist JWT, rate limit, idempotence
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// --- Blacklist JWT (révocation avant expiration) ---

// BlacklistToken révoque un jti jusqu'à l'expiration naturelle du token
func (s *Store) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := fmt.Sprintf("blacklist:%s", tokenID)
	return s.client.Set(ctx, key, "revoked", ttl).Err()
}

func (s *Store) IsTokenBlacklisted(ctx context.Context, tokenID string) bool {
	key := fmt.Sprintf("blacklist:%s", tokenID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		log.Printf("⚠️ Erreur vérification blacklist: %v", err)
		return false
	}
	return exists > 0
}

// --- Rate Limiting ---

// IncrementRateLimit incrémente le compteur et repousse l'expiration de la fenêtre
func (s *Store) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *Store) GetRateLimit(ctx context.Context, key string) (int64, error) {
	val, err := s.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

func (s *Store) TTL(ctx context.Context, key string) time.Duration {
	return s.client.TTL(ctx, key).Val()
}

func (s *Store) Exists(ctx context.Context, key string) bool {
	return s.client.Exists(ctx, key).Val() > 0
}

func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// --- Idempotence ---

// MarkOnce retourne true seulement pour le premier appelant qui pose la clé
func (s *Store) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}

func (s *Store) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
