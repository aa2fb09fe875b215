package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"qart_back_end/internal/models"
	"qart_back_end/internal/repository"
)

const testDefaultAddress = "ADDRESS_NOT_SET"

type recordedEvent struct {
	email string
	event string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) PublishCart(_ context.Context, email, event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{email: email, event: event})
	return nil
}

func (f *fakeEvents) last() recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return recordedEvent{}
	}
	return f.events[len(f.events)-1]
}

type fakeReceipts struct {
	mu          sync.Mutex
	sent        []*models.Receipt
	hasDeadline bool
	err         error
}

func (f *fakeReceipts) SendReceipt(ctx context.Context, _ *models.User, r *models.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, f.hasDeadline = ctx.Deadline()
	f.sent = append(f.sent, r)
	return f.err
}

func (f *fakeReceipts) snapshot() []*models.Receipt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Receipt(nil), f.sent...)
}

type fakeWelcome struct {
	sent []string
}

func (f *fakeWelcome) SendWelcome(_ context.Context, u *models.User) error {
	f.sent = append(f.sent, u.Email)
	return nil
}

type fakeAccounts struct {
	mu          sync.Mutex
	invalidated []string
}

func (f *fakeAccounts) Invalidate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, id)
	return nil
}

type fakeSearcher struct {
	indexed []string
	hits    []models.Product
	err     error
}

func (f *fakeSearcher) Index(_ context.Context, p models.Product) error {
	f.indexed = append(f.indexed, p.ID)
	return nil
}

func (f *fakeSearcher) Search(_ context.Context, _ string) ([]models.Product, error) {
	return f.hits, f.err
}

type fakeSigner struct{}

func (fakeSigner) SignedURL(_ context.Context, key string) (string, error) {
	if strings.Contains(key, "broken") {
		return "", errors.New("boom")
	}
	return "https://minio.local/qart-images/" + key + "?X-Amz-Signature=abc", nil
}

type fakeGateway struct {
	event    *PaymentEvent
	parseErr error
	created  []int64
}

func (f *fakeGateway) CreateTopUpIntent(_ context.Context, _ string, cents int64) (string, string, error) {
	f.created = append(f.created, cents)
	return "pi_123", "pi_123_secret_abc", nil
}

func (f *fakeGateway) ParseEvent(_ []byte, _ string) (*PaymentEvent, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.event, nil
}

type fakeOnce struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeOnce() *fakeOnce { return &fakeOnce{keys: map[string]bool{}} }

func (f *fakeOnce) MarkOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeOnce) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	return nil
}

// conflictingCarts force n conflits de version avant de déléguer au vrai dépôt
type conflictingCarts struct {
	repository.CartRepository
	mu        sync.Mutex
	conflicts int
}

func (c *conflictingCarts) Save(ctx context.Context, cart *models.Cart) error {
	c.mu.Lock()
	if c.conflicts > 0 {
		c.conflicts--
		c.mu.Unlock()
		return repository.ErrVersionConflict
	}
	c.mu.Unlock()
	return c.CartRepository.Save(ctx, cart)
}

// lowerBalanceCommitter simule un débit concurrent passé entre la lecture du compte et le commit
type lowerBalanceCommitter struct{}

func (lowerBalanceCommitter) CommitCheckout(context.Context, *models.Cart, string, float64) (float64, error) {
	return 0, repository.ErrInsufficientFunds
}

func seedProducts(store *repository.MemoryStore) {
	ctx := context.Background()
	products := store.Products()
	_ = products.Upsert(ctx, models.Product{ID: "p10", Name: "Desk Lamp", Category: "Home", Cost: 10, Rating: 4, Image: "products/lamp.png"})
	_ = products.Upsert(ctx, models.Product{ID: "p5", Name: "Coffee Mug", Category: "Kitchen", Cost: 5, Rating: 5, Image: "https://cdn.qart.io/mug.png"})
	_ = products.Upsert(ctx, models.Product{ID: "p1", Name: "Sticker", Category: "Stationery", Cost: 0.1, Rating: 3})
}

func newUserAccount(store *repository.MemoryStore, email string, wallet float64, address string) *models.User {
	u := &models.User{
		ID:          "id-" + email,
		Name:        "Crio",
		Email:       email,
		Provider:    models.ProviderLocal,
		Address:     address,
		WalletMoney: wallet,
	}
	_ = store.Create(context.Background(), u)
	return u
}

func lineIDs(cart *models.Cart) []string {
	ids := make([]string, 0, len(cart.CartItems))
	for _, item := range cart.CartItems {
		ids = append(ids, item.Product.ID)
	}
	sort.Strings(ids)
	return ids
}
