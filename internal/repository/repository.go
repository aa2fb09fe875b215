package repository

import (
	"context"
	"errors"

	"qart_back_end/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already taken")
	ErrProductNotFound   = errors.New("product not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrVersionConflict   = errors.New("cart version conflict")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateAddress(ctx context.Context, id, address string) error
	// CreditWallet retourne le solde stocké après crédit, arrondi au centime
	CreditWallet(ctx context.Context, id string, amount float64) (float64, error)
}

type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Upsert(ctx context.Context, product models.Product) error
}

// CartRepository : toutes les écritures sont conditionnées par Cart.Version.
// Create et Save retournent ErrVersionConflict si le document a changé entre-temps.
type CartRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Save(ctx context.Context, cart *models.Cart) error
}

// CheckoutCommitter applique le débit du wallet et le vidage du panier en une seule transaction.
// La version du panier est vérifiée avant le solde : ErrVersionConflict si le panier a changé,
// puis ErrInsufficientFunds si le solde stocké est inférieur à total.
// Retourne le solde stocké après débit.
type CheckoutCommitter interface {
	CommitCheckout(ctx context.Context, cart *models.Cart, userID string, total float64) (float64, error)
}
