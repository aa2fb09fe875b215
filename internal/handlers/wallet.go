package handlers

import (
	"io"
	"net/http"

	"qart_back_end/internal/middleware"
	"qart_back_end/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 65536

type WalletHandler struct {
	wallet *service.WalletService
}

func NewWalletHandler(wallet *service.WalletService) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

type topUpInput struct {
	Amount float64 `json:"amount" binding:"required"`
}

// 💳 POST /wallet/topup
func (h *WalletHandler) TopUp(c *gin.Context) {
	var input topUpInput
	if !bindJSON(c, &input) {
		return
	}

	topUp, err := h.wallet.CreateTopUp(c.Request.Context(), middleware.CurrentAccount(c), input.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, topUp)
}

// 📤 POST /webhooks/stripe
func (h *WalletHandler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondMessage(c, http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}

	if err := h.wallet.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
