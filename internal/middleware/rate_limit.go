package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"qart_back_end/internal/cache"

	"github.com/gin-gonic/gin"
)

const (
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3
	CartMaxRequests     = 20 // par minute

	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
	CartWindow       = 1 * time.Minute

	LoginMaxBodyBytes = 64 << 10
)

// RateLimiter applique les limites par email, IP ou compte à partir des compteurs Redis
type RateLimiter struct {
	store *cache.Store
}

func NewRateLimiter(store *cache.Store) *RateLimiter {
	return &RateLimiter{store: store}
}

// Login limite les tentatives de connexion échouées par email
func (l *RateLimiter) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, LoginMaxBodyBytes)
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"code":    http.StatusRequestEntityTooLarge,
				"message": "Request body too large",
			})
			return
		}
		// Remettre le body pour le handler
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		email := strings.ToLower(strings.TrimSpace(input.Email))
		key := "login_attempts:" + email
		cooldownKey := "login_cooldown:" + email

		if l.store.Exists(ctx, cooldownKey) {
			tooMany(c, l.store.TTL(ctx, cooldownKey))
			return
		}

		attempts, _ := l.store.GetRateLimit(ctx, key)
		if attempts >= LoginMaxAttempts {
			if err := l.store.Set(ctx, cooldownKey, "1", LoginCooldown); err != nil {
				log.Printf("⚠️ Rate limit login indisponible: %v", err)
			}
			_ = l.store.Delete(ctx, key)
			tooMany(c, LoginCooldown)
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			if _, err := l.store.IncrementRateLimit(ctx, key, LoginCooldown); err != nil {
				log.Printf("⚠️ Rate limit login indisponible: %v", err)
			}
		case http.StatusOK:
			_ = l.store.Delete(ctx, key, cooldownKey)
		}
	}
}

// Register limite les inscriptions réussies par IP
func (l *RateLimiter) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()
		key := "register_attempts:" + ip
		cooldownKey := "register_cooldown:" + ip

		if l.store.Exists(ctx, cooldownKey) {
			tooMany(c, l.store.TTL(ctx, cooldownKey))
			return
		}

		attempts, _ := l.store.GetRateLimit(ctx, key)
		if attempts >= RegisterMaxAttempts {
			_ = l.store.Set(ctx, cooldownKey, "1", RegisterCooldown)
			_ = l.store.Delete(ctx, key)
			tooMany(c, RegisterCooldown)
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusCreated {
			if _, err := l.store.IncrementRateLimit(ctx, key, RegisterCooldown); err != nil {
				log.Printf("⚠️ Rate limit inscription indisponible: %v", err)
			}
		}
	}
}

// Cart limite les mutations de panier par compte (anti-spam)
func (l *RateLimiter) Cart() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" {
			c.Next()
			return
		}

		n, err := l.store.IncrementRateLimit(c.Request.Context(), "cart_mutations:"+userID, CartWindow)
		if err != nil {
			log.Printf("⚠️ Rate limit panier indisponible: %v", err)
			c.Next()
			return
		}
		if n > CartMaxRequests {
			tooMany(c, CartWindow)
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", CartMaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", CartMaxRequests-n))
		c.Next()
	}
}

func tooMany(c *gin.Context, retryAfter time.Duration) {
	c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"code":    http.StatusTooManyRequests,
		"message": fmt.Sprintf("Too many requests, retry in %d minutes", int(retryAfter.Minutes())+1),
	})
}
