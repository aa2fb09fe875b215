package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"qart_back_end/internal/models"
	"qart_back_end/internal/repository"
	"qart_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextAccount     = "account"
	ContextUserID      = "user_id"
	ContextTokenID     = "jti"
	ContextTokenExpiry = "token_exp"

	msgPleaseAuthenticate = "Please authenticate"
)

type TokenParser interface {
	Parse(token string) (*utils.Claims, error)
}

type AccountResolver interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type RevocationChecker interface {
	IsTokenBlacklisted(ctx context.Context, tokenID string) bool
}

// AuthRequired vérifie le bearer token et place le compte résolu dans le contexte gin.
// revoked peut être nil (pas de Redis).
func AuthRequired(tokens TokenParser, accounts AccountResolver, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, msgPleaseAuthenticate)
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, msgPleaseAuthenticate)
			return
		}

		if revoked != nil && revoked.IsTokenBlacklisted(c.Request.Context(), claims.ID) {
			log.Printf("❌ Token révoqué utilisé pour %s", claims.Subject)
			abort(c, http.StatusUnauthorized, msgPleaseAuthenticate)
			return
		}

		account, err := accounts.FindByID(c.Request.Context(), claims.Subject)
		if err != nil {
			if !errors.Is(err, repository.ErrUserNotFound) {
				log.Printf("❌ Résolution du compte %s: %v", claims.Subject, err)
			}
			abort(c, http.StatusUnauthorized, msgPleaseAuthenticate)
			return
		}

		c.Set(ContextAccount, account)
		c.Set(ContextUserID, account.ID)
		c.Set(ContextTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExpiry, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// CurrentAccount retourne le compte posé par AuthRequired
func CurrentAccount(c *gin.Context) *models.User {
	v, ok := c.Get(ContextAccount)
	if !ok {
		return nil
	}
	account, _ := v.(*models.User)
	return account
}

// TokenExpiry retourne l'expiration du token courant, zéro si absent
func TokenExpiry(c *gin.Context) time.Time {
	v, ok := c.Get(ContextTokenExpiry)
	if !ok {
		return time.Time{}
	}
	exp, _ := v.(time.Time)
	return exp
}

// bearerToken lit le header Authorization, ou ?token= pour les WebSockets navigateur
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if c.IsWebsocket() {
			if token := c.Query("token"); token != "" {
				return token, true
			}
		}
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": status, "message": message})
}
