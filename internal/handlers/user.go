package handlers

import (
	"net/http"

	"qart_back_end/internal/middleware"
	"qart_back_end/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// 👤 GET /users/:userId (?q=address : adresse seule)
func (h *UserHandler) Get(c *gin.Context) {
	user := middleware.CurrentAccount(c)
	if c.Query("q") == "address" {
		c.JSON(http.StatusOK, gin.H{"address": user.Address})
		return
	}
	c.JSON(http.StatusOK, user)
}

type addressInput struct {
	Address string `json:"address" binding:"required"`
}

// 🏠 PUT /users/:userId
func (h *UserHandler) SetAddress(c *gin.Context) {
	var input addressInput
	if !bindJSON(c, &input) {
		return
	}

	address, err := h.users.SetAddress(c.Request.Context(), middleware.CurrentAccount(c), input.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address})
}
