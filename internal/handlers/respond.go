package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"qart_back_end/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const msgInternal = "Internal server error"

// respondError traduit une erreur de service en {"code","message"}
func respondError(c *gin.Context, err error) {
	if apiErr, ok := service.AsAPIError(err); ok {
		c.JSON(apiErr.Status, gin.H{"code": apiErr.Status, "message": apiErr.Message})
		return
	}
	log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": msgInternal})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"code": status, "message": message})
}

// bindJSON renvoie false (et répond 400) si le body est invalide
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondMessage(c, http.StatusBadRequest, bindingMessage(err))
		return false
	}
	return true
}

func bindingMessage(err error) string {
	if errors.Is(err, io.EOF) {
		return "Request body is required"
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			return "\"" + field + "\" is required"
		case "email":
			return "\"" + field + "\" must be a valid email"
		case "min":
			return "\"" + field + "\" must be at least " + fe.Param() + " characters"
		default:
			return "\"" + field + "\" is invalid"
		}
	}
	return "Invalid request body"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
