package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"qart_back_end/internal/models"
	"qart_back_end/internal/repository"

	"github.com/google/uuid"
)

const (
	CartEventUpdated = "updated"
	CartEventCleared = "cleared"

	receiptSendTimeout = 30 * time.Second
)

// CartPublisher diffuse les changements de panier aux clients connectés
type CartPublisher interface {
	PublishCart(ctx context.Context, email, event string) error
}

type ReceiptSender interface {
	SendReceipt(ctx context.Context, user *models.User, receipt *models.Receipt) error
}

// AccountCache est invalidé après chaque mutation d'un compte
type AccountCache interface {
	Invalidate(ctx context.Context, userID string) error
}

type CartOptions struct {
	DefaultAddress       string
	DefaultPaymentOption string
	MaxRetries           int
	Events               CartPublisher
	Receipts             ReceiptSender
	Accounts             AccountCache
}

type CartService struct {
	carts     repository.CartRepository
	products  repository.ProductRepository
	users     repository.UserRepository
	committer repository.CheckoutCommitter
	opts      CartOptions
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, users repository.UserRepository, committer repository.CheckoutCommitter, opts CartOptions) *CartService {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &CartService{carts: carts, products: products, users: users, committer: committer, opts: opts}
}

func (s *CartService) GetCart(ctx context.Context, user *models.User) (*models.Cart, error) {
	cart, err := s.carts.FindByEmail(ctx, user.Email)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, NotFound(msgNoCart)
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// AddProduct ajoute une nouvelle ligne. Un produit déjà présent est refusé, jamais fusionné.
func (s *CartService) AddProduct(ctx context.Context, user *models.User, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, BadRequest(msgInvalidQuantity)
	}

	var product *models.Product
	var cart *models.Cart
	err := s.withRetry(user.Email, func() error {
		var err error
		cart, err = s.findOrCreate(ctx, user.Email)
		if err != nil {
			return err
		}
		if cart.IndexOf(productID) >= 0 {
			return BadRequest(msgAlreadyInCart)
		}
		if product == nil {
			if product, err = s.lookupProduct(ctx, productID, msgProductNotInDB); err != nil {
				return err
			}
		}
		cart.CartItems = append(cart.CartItems, models.CartItem{Product: *product, Quantity: quantity})
		return s.carts.Save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, user.Email, CartEventUpdated)
	return cart, nil
}

// UpdateProduct écrase la quantité d'une ligne existante, 0 retire la ligne
func (s *CartService) UpdateProduct(ctx context.Context, user *models.User, productID string, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, BadRequest(msgNegativeQuantity)
	}

	checked := false
	var cart *models.Cart
	err := s.withRetry(user.Email, func() error {
		var err error
		if cart, err = s.GetCart(ctx, user); err != nil {
			return err
		}
		if !checked {
			if _, err := s.lookupProduct(ctx, productID, msgProductNotExist); err != nil {
				return err
			}
			checked = true
		}
		idx := cart.IndexOf(productID)
		if idx < 0 {
			return NotFound(msgProductNotInCart)
		}
		if quantity == 0 {
			cart.CartItems = append(cart.CartItems[:idx], cart.CartItems[idx+1:]...)
		} else {
			cart.CartItems[idx].Quantity = quantity
		}
		return s.carts.Save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, user.Email, CartEventUpdated)
	return cart, nil
}

func (s *CartService) RemoveProduct(ctx context.Context, user *models.User, productID string) (*models.Cart, error) {
	var cart *models.Cart
	err := s.withRetry(user.Email, func() error {
		var err error
		if cart, err = s.GetCart(ctx, user); err != nil {
			return err
		}
		idx := cart.IndexOf(productID)
		if idx < 0 {
			return NotFound(msgProductNotInCart)
		}
		cart.CartItems = append(cart.CartItems[:idx], cart.CartItems[idx+1:]...)
		return s.carts.Save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, user.Email, CartEventUpdated)
	return cart, nil
}

// Checkout débite le wallet du total et vide le panier dans une seule transaction.
// Adresse et solde sont relus dans le stockage, le compte résolu peut venir d'un cache périmé.
// Le compte passé en paramètre est mis à jour avec le solde stocké.
func (s *CartService) Checkout(ctx context.Context, user *models.User) (*models.Receipt, error) {
	var items []models.CartItem
	var total, balance float64
	err := s.withRetry(user.Email, func() error {
		cart, err := s.GetCart(ctx, user)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return BadRequest(msgCartEmpty)
		}

		fresh, err := s.users.FindByID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return NotFound(msgUserNotFound)
			}
			return fmt.Errorf("get user: %w", err)
		}
		user.Address, user.WalletMoney = fresh.Address, fresh.WalletMoney

		if !user.HasAddress(s.opts.DefaultAddress) {
			return BadRequest(msgAddressNotSet)
		}
		total = cart.Total()
		if !models.CoversMoney(user.WalletMoney, total) {
			return BadRequest(msgInsufficient)
		}

		items = cart.Clone().CartItems
		balance, err = s.committer.CommitCheckout(ctx, cart, user.ID, total)
		if err != nil {
			// le solde a pu baisser entre la relecture et le commit
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return BadRequest(msgInsufficient)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.WalletMoney = balance
	if s.opts.Accounts != nil {
		if err := s.opts.Accounts.Invalidate(ctx, user.ID); err != nil {
			log.Printf("⚠️ Invalidation du cache compte %s impossible: %v", user.ID, err)
		}
	}
	s.publish(ctx, user.Email, CartEventCleared)

	receipt := &models.Receipt{
		ID:        uuid.NewString(),
		Email:     user.Email,
		Items:     items,
		Total:     total,
		Balance:   balance,
		CreatedAt: time.Now(),
	}
	s.sendReceipt(user, receipt)

	log.Printf("✅ Checkout %s: %.2f débités, solde %.2f", user.Email, total, balance)
	return receipt, nil
}

// sendReceipt envoie le reçu en arrière-plan, la réponse HTTP n'attend pas le SMTP
func (s *CartService) sendReceipt(user *models.User, receipt *models.Receipt) {
	if s.opts.Receipts == nil {
		return
	}
	u, r := *user, *receipt
	r.Items = append([]models.CartItem(nil), receipt.Items...)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), receiptSendTimeout)
		defer cancel()
		if err := s.opts.Receipts.SendReceipt(ctx, &u, &r); err != nil {
			log.Printf("⚠️ Envoi du reçu %s à %s échoué: %v", r.ID, u.Email, err)
		}
	}()
}

func (s *CartService) findOrCreate(ctx context.Context, email string) (*models.Cart, error) {
	cart, err := s.carts.FindByEmail(ctx, email)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repository.ErrCartNotFound) {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	cart = &models.Cart{
		ID:            uuid.NewString(),
		Email:         email,
		CartItems:     []models.CartItem{},
		PaymentOption: s.opts.DefaultPaymentOption,
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) lookupProduct(ctx context.Context, productID, notFoundMsg string) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, NotFound(notFoundMsg)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// withRetry rejoue fn tant que l'écriture échoue sur un conflit de version
func (s *CartService) withRetry(email string, fn func() error) error {
	for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
		err := fn()
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		log.Printf("⚠️ Conflit de version sur le panier de %s (tentative %d/%d)", email, attempt, s.opts.MaxRetries)
	}
	return Conflict(msgCartBusy)
}

func (s *CartService) publish(ctx context.Context, email, event string) {
	if s.opts.Events == nil {
		return
	}
	if err := s.opts.Events.PublishCart(ctx, email, event); err != nil {
		log.Printf("⚠️ Publication de l'événement panier %s échouée: %v", event, err)
	}
}
