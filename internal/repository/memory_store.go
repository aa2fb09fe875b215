package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"qart_back_end/internal/models"

	"github.com/google/uuid"
)

// MemoryStore implémente les mêmes contrats que MongoStore en mémoire (STORE_DRIVER=memory et tests).
// Un seul verrou couvre users et carts pour que CommitCheckout reste atomique.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User // userID -> user
	emails   map[string]string       // email -> userID
	products map[string]models.Product
	carts    map[string]*models.Cart // email -> cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		emails:   make(map[string]string),
		products: make(map[string]models.Product),
		carts:    make(map[string]*models.Cart),
	}
}

// --- Users ---

func (s *MemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[user.Email]; taken {
		return ErrEmailTaken
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	cp := *user
	s.users[user.ID] = &cp
	s.emails[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	id, ok := s.emails[email]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *MemoryStore) UpdateAddress(_ context.Context, id, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Address = address
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) CreditWallet(_ context.Context, id string, amount float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, ErrUserNotFound
	}
	u.WalletMoney = models.AddMoney(u.WalletMoney, amount)
	u.UpdatedAt = time.Now()
	return u.WalletMoney, nil
}

// --- Products ---

type MemoryProducts struct {
	store *MemoryStore
}

func (s *MemoryStore) Products() *MemoryProducts {
	return &MemoryProducts{store: s}
}

func (p *MemoryProducts) List(_ context.Context) ([]models.Product, error) {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	products := make([]models.Product, 0, len(p.store.products))
	for _, product := range p.store.products {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (p *MemoryProducts) FindByID(_ context.Context, id string) (*models.Product, error) {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	product, ok := p.store.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

func (p *MemoryProducts) Upsert(_ context.Context, product models.Product) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	p.store.products[product.ID] = product
	return nil
}

// --- Carts ---

type MemoryCarts struct {
	store *MemoryStore
}

func (s *MemoryStore) Carts() *MemoryCarts {
	return &MemoryCarts{store: s}
}

func (c *MemoryCarts) FindByEmail(_ context.Context, email string) (*models.Cart, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	cart, ok := c.store.carts[email]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cart.Clone(), nil
}

func (c *MemoryCarts) Create(_ context.Context, cart *models.Cart) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if _, exists := c.store.carts[cart.Email]; exists {
		return ErrVersionConflict
	}
	if cart.ID == "" {
		cart.ID = uuid.NewString()
	}
	now := time.Now()
	cart.CreatedAt = now
	cart.UpdatedAt = now
	cart.Version = 0
	if cart.CartItems == nil {
		cart.CartItems = []models.CartItem{}
	}
	c.store.carts[cart.Email] = cart.Clone()
	return nil
}

func (c *MemoryCarts) Save(_ context.Context, cart *models.Cart) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	stored, ok := c.store.carts[cart.Email]
	if !ok || stored.ID != cart.ID || stored.Version != cart.Version {
		return ErrVersionConflict
	}
	if cart.CartItems == nil {
		cart.CartItems = []models.CartItem{}
	}
	cart.Version++
	cart.UpdatedAt = time.Now()
	c.store.carts[cart.Email] = cart.Clone()
	return nil
}

// --- Checkout ---

func (s *MemoryStore) CommitCheckout(_ context.Context, cart *models.Cart, userID string, total float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.carts[cart.Email]
	if !ok || stored.ID != cart.ID || stored.Version != cart.Version {
		return 0, ErrVersionConflict
	}
	u, ok := s.users[userID]
	if !ok {
		return 0, ErrUserNotFound
	}
	if !models.CoversMoney(u.WalletMoney, total) {
		return 0, ErrInsufficientFunds
	}

	now := time.Now()
	u.WalletMoney = models.SubMoney(u.WalletMoney, total)
	u.UpdatedAt = now

	cart.CartItems = []models.CartItem{}
	cart.Version++
	cart.UpdatedAt = now
	s.carts[cart.Email] = cart.Clone()
	return u.WalletMoney, nil
}
