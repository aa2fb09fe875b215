package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
)

// withProvider expose le provider de la route à gothic, qui le lit dans la query
func withProvider(c *gin.Context) bool {
	provider := c.Param("provider")
	if provider == "" {
		respondMessage(c, http.StatusBadRequest, "No provider specified")
		return false
	}
	if _, err := goth.GetProvider(provider); err != nil {
		respondMessage(c, http.StatusNotFound, "Unknown provider")
		return false
	}

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()
	return true
}

// BeginOAuth : GET /auth/oauth/:provider
func (h *AuthHandler) BeginOAuth(c *gin.Context) {
	if !withProvider(c) {
		return
	}
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// OAuthCallback : GET /auth/oauth/:provider/callback
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	if !withProvider(c) {
		return
	}

	gu, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.Printf("❌ OAuth %s: %v", c.Param("provider"), err)
		respondMessage(c, http.StatusUnauthorized, "OAuth authentication failed")
		return
	}
	if gu.Email == "" {
		respondMessage(c, http.StatusBadRequest, "Provider did not return an email")
		return
	}

	name := gu.Name
	if name == "" {
		name = gu.NickName
	}
	user, err := h.users.FindOrCreateOAuth(c.Request.Context(), gu.Provider, gu.Email, name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}
