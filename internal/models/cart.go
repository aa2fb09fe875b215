package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID            string     `json:"_id" bson:"_id"`
	Email         string     `json:"email" bson:"email"`
	CartItems     []CartItem `json:"cartItems" bson:"cartItems"`
	PaymentOption string     `json:"paymentOption" bson:"paymentOption"`
	Version       int64      `json:"-" bson:"version"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// CartItem embarque une copie du produit au moment de l'ajout
type CartItem struct {
	Product  Product `json:"product" bson:"product"`
	Quantity int     `json:"quantity" bson:"quantity"`
}

// IndexOf retourne la position de la ligne du produit, -1 si absent
func (c *Cart) IndexOf(productID string) int {
	for i := range c.CartItems {
		if c.CartItems[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) IsEmpty() bool {
	return len(c.CartItems) == 0
}

// Total calcule la somme cost × quantity en décimal pour éviter les erreurs d'arrondi
func (c *Cart) Total() float64 {
	total := decimal.Zero
	for _, item := range c.CartItems {
		line := decimal.NewFromFloat(item.Product.Cost).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Clone copie le panier pour que les lectures ne partagent pas la slice des lignes
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.CartItems = make([]CartItem, len(c.CartItems))
	copy(cp.CartItems, c.CartItems)
	return &cp
}

type Receipt struct {
	ID        string     `json:"receiptId"`
	Email     string     `json:"email"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	Balance   float64    `json:"walletMoney"`
	CreatedAt time.Time  `json:"createdAt"`
}
