package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

const DefaultSignedURLTTL = 15 * time.Minute

// ImageStore signe les clés d'images produits stockées dans le bucket MinIO
type ImageStore struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

func NewImageStore(client *minio.Client, bucket string, ttl time.Duration) *ImageStore {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return &ImageStore{client: client, bucket: bucket, ttl: ttl}
}

// SignedURL génère une URL GET temporaire pour la clé (ex: products/lamp.png)
func (s *ImageStore) SignedURL(ctx context.Context, key string) (string, error) {
	// Nettoie un éventuel préfixe de bucket pour ne garder que le chemin relatif
	key = strings.TrimPrefix(key, "/")
	key = strings.TrimPrefix(key, s.bucket+"/")

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return presignedURL.String(), nil
}
