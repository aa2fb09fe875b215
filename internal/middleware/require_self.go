package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireSelf refuse l'accès aux ressources d'un autre utilisateur (:userId différent du compte)
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := CurrentAccount(c)
		if account == nil {
			abort(c, http.StatusUnauthorized, msgPleaseAuthenticate)
			return
		}
		if c.Param(param) != account.ID {
			abort(c, http.StatusForbidden, "User not authorized to access this resource")
			return
		}
		c.Next()
	}
}
