package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"qart_back_end/internal/cache"
	"qart_back_end/internal/middleware"
	"qart_back_end/internal/models"
	"qart_back_end/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// CartSubscriber fournit le flux des changements de panier d'un compte
type CartSubscriber interface {
	Subscribe(ctx context.Context, email string) (<-chan cache.CartEvent, func() error, error)
}

type CartHandler struct {
	carts    *service.CartService
	events   CartSubscriber
	upgrader websocket.Upgrader
}

// NewCartHandler : events peut être nil (pas de Redis), la synchro temps réel est alors indisponible.
// Une origine vide autorise toutes les origines.
func NewCartHandler(carts *service.CartService, events CartSubscriber, allowedOrigin string) *CartHandler {
	return &CartHandler{
		carts:  carts,
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

type cartLineInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
}

// 🛒 GET /cart
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), middleware.CurrentAccount(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// 🛒 POST /cart
func (h *CartHandler) Add(c *gin.Context) {
	var input cartLineInput
	if !bindJSON(c, &input) {
		return
	}

	cart, err := h.carts.AddProduct(c.Request.Context(), middleware.CurrentAccount(c), input.ProductID, *input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cart)
}

// 🛒 PUT /cart (quantité 0 : la ligne est retirée)
func (h *CartHandler) Update(c *gin.Context) {
	var input cartLineInput
	if !bindJSON(c, &input) {
		return
	}

	cart, err := h.carts.UpdateProduct(c.Request.Context(), middleware.CurrentAccount(c), input.ProductID, *input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// 🛒 DELETE /cart/:productId
func (h *CartHandler) Remove(c *gin.Context) {
	if _, err := h.carts.RemoveProduct(c.Request.Context(), middleware.CurrentAccount(c), c.Param("productId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// 💳 PUT /cart/checkout
func (h *CartHandler) Checkout(c *gin.Context) {
	receipt, err := h.carts.Checkout(c.Request.Context(), middleware.CurrentAccount(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

type cartMessage struct {
	Type  string       `json:"type"`
	Event string       `json:"event,omitempty"`
	Cart  *models.Cart `json:"cart,omitempty"`
	Total float64      `json:"total"`
	Count int          `json:"count"`
}

// Sync : GET /cart/ws, pousse l'état du panier à chaque changement publié sur Redis
func (h *CartHandler) Sync(c *gin.Context) {
	if h.events == nil {
		respondMessage(c, http.StatusServiceUnavailable, "Cart sync is not available")
		return
	}
	user := middleware.CurrentAccount(c)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, closeSub, err := h.events.Subscribe(ctx, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeSub()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	// la lecture ne sert qu'à détecter la déconnexion du client
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.writeCart(ctx, conn, user, "connected", ""); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.writeCart(ctx, conn, user, "cart_updated", ev.Type); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *CartHandler) writeCart(ctx context.Context, conn *websocket.Conn, user *models.User, msgType, event string) error {
	msg := cartMessage{Type: msgType, Event: event}
	cart, err := h.carts.GetCart(ctx, user)
	if err == nil {
		msg.Cart = cart
		msg.Total = cart.Total()
		msg.Count = len(cart.CartItems)
	} else if _, ok := service.AsAPIError(err); !ok {
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}
