package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"qart_back_end/internal/middleware"
	"qart_back_end/internal/models"
	"qart_back_end/internal/service"

	"github.com/gin-gonic/gin"
)

type TokenIssuer interface {
	Generate(user *models.User) (string, time.Time, error)
}

// TokenRevoker blackliste un jti jusqu'à son expiration
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error
}

type AuthHandler struct {
	users   *service.UserService
	tokens  TokenIssuer
	revoker TokenRevoker
}

// NewAuthHandler : revoker peut être nil, le logout reste alors sans effet côté serveur
func NewAuthHandler(users *service.UserService, tokens TokenIssuer, revoker TokenRevoker) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, revoker: revoker}
}

type registerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register : POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input registerInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.users.Create(c.Request.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

// Login : POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input loginInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

// Logout : POST /auth/logout, révoque le token courant
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.revoker != nil {
		jti := c.GetString(middleware.ContextTokenID)
		ttl := time.Until(middleware.TokenExpiry(c))
		if err := h.revoker.BlacklistToken(c.Request.Context(), jti, ttl); err != nil {
			respondError(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, expires, err := h.tokens.Generate(user)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("✅ Token émis pour %s", user.Email)
	c.JSON(status, gin.H{
		"user": user,
		"token": gin.H{
			"access": gin.H{
				"token":   token,
				"expires": expires,
			},
		},
	})
}
