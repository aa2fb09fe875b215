package repository

import (
	"context"
	"testing"

	"qart_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stores regroupe les quatre contrats pour rejouer les mêmes tests sur chaque backend
type stores struct {
	users     UserRepository
	products  ProductRepository
	carts     CartRepository
	committer CheckoutCommitter
}

func newUser(email string, wallet float64) *models.User {
	return &models.User{
		ID:          uuid.NewString(),
		Name:        "Crio User",
		Email:       email,
		Password:    "hash",
		Provider:    models.ProviderLocal,
		Address:     "ADDRESS_NOT_SET",
		WalletMoney: wallet,
	}
}

func runStoreContract(t *testing.T, setup func(t *testing.T) stores) {
	t.Run("UserCreateAndFind", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		u := newUser("a@qart.io", 500)
		require.NoError(t, s.users.Create(ctx, u))

		byEmail, err := s.users.FindByEmail(ctx, "a@qart.io")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)

		byID, err := s.users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 500.0, byID.WalletMoney)

		_, err = s.users.FindByEmail(ctx, "missing@qart.io")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("UserDuplicateEmail", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		require.NoError(t, s.users.Create(ctx, newUser("dup@qart.io", 500)))
		err := s.users.Create(ctx, newUser("dup@qart.io", 500))
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("UserAddressAndCredit", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		u := newUser("b@qart.io", 100)
		require.NoError(t, s.users.Create(ctx, u))
		require.NoError(t, s.users.UpdateAddress(ctx, u.ID, "221B Baker Street, London"))
		balance, err := s.users.CreditWallet(ctx, u.ID, 25.5)
		require.NoError(t, err)
		assert.Equal(t, 125.5, balance)

		got, err := s.users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "221B Baker Street, London", got.Address)
		assert.Equal(t, 125.5, got.WalletMoney)

		assert.ErrorIs(t, s.users.UpdateAddress(ctx, "nobody", "x"), ErrUserNotFound)
		_, err = s.users.CreditWallet(ctx, "nobody", 1)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("UserCreditRoundsToCents", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		u := newUser("cents@qart.io", 0.1)
		require.NoError(t, s.users.Create(ctx, u))
		balance, err := s.users.CreditWallet(ctx, u.ID, 0.2)
		require.NoError(t, err)
		assert.Equal(t, 0.3, balance)

		got, err := s.users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.3, got.WalletMoney)
	})

	t.Run("ProductsUpsertListFind", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		require.NoError(t, s.products.Upsert(ctx, models.Product{ID: "p2", Name: "Zebra lamp", Cost: 5}))
		require.NoError(t, s.products.Upsert(ctx, models.Product{ID: "p1", Name: "Apple crate", Cost: 10}))
		require.NoError(t, s.products.Upsert(ctx, models.Product{ID: "p1", Name: "Apple crate", Cost: 12}))

		list, err := s.products.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "p1", list[0].ID)

		p, err := s.products.FindByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 12.0, p.Cost)

		_, err = s.products.FindByID(ctx, "nope")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("CartCreateAndSave", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		_, err := s.carts.FindByEmail(ctx, "c@qart.io")
		assert.ErrorIs(t, err, ErrCartNotFound)

		cart := &models.Cart{ID: uuid.NewString(), Email: "c@qart.io", PaymentOption: "PAYMENT_OPTION_DEFAULT"}
		require.NoError(t, s.carts.Create(ctx, cart))

		cart.CartItems = append(cart.CartItems, models.CartItem{Product: models.Product{ID: "p1", Cost: 10}, Quantity: 2})
		require.NoError(t, s.carts.Save(ctx, cart))
		assert.Equal(t, int64(1), cart.Version)

		got, err := s.carts.FindByEmail(ctx, "c@qart.io")
		require.NoError(t, err)
		require.Len(t, got.CartItems, 1)
		assert.Equal(t, 2, got.CartItems[0].Quantity)
		assert.Equal(t, int64(1), got.Version)
	})

	t.Run("CartCreateTwiceConflicts", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		require.NoError(t, s.carts.Create(ctx, &models.Cart{ID: uuid.NewString(), Email: "d@qart.io"}))
		err := s.carts.Create(ctx, &models.Cart{ID: uuid.NewString(), Email: "d@qart.io"})
		assert.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("CartStaleSaveConflicts", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		require.NoError(t, s.carts.Create(ctx, &models.Cart{ID: uuid.NewString(), Email: "e@qart.io"}))

		first, err := s.carts.FindByEmail(ctx, "e@qart.io")
		require.NoError(t, err)
		second, err := s.carts.FindByEmail(ctx, "e@qart.io")
		require.NoError(t, err)

		first.CartItems = append(first.CartItems, models.CartItem{Product: models.Product{ID: "p1"}, Quantity: 1})
		require.NoError(t, s.carts.Save(ctx, first))

		second.CartItems = append(second.CartItems, models.CartItem{Product: models.Product{ID: "p1"}, Quantity: 1})
		assert.ErrorIs(t, s.carts.Save(ctx, second), ErrVersionConflict)

		got, err := s.carts.FindByEmail(ctx, "e@qart.io")
		require.NoError(t, err)
		assert.Len(t, got.CartItems, 1)
	})

	t.Run("CommitCheckout", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		u := newUser("f@qart.io", 100)
		require.NoError(t, s.users.Create(ctx, u))
		cart := &models.Cart{ID: uuid.NewString(), Email: u.Email}
		require.NoError(t, s.carts.Create(ctx, cart))
		cart.CartItems = []models.CartItem{
			{Product: models.Product{ID: "p1", Cost: 10}, Quantity: 2},
			{Product: models.Product{ID: "p2", Cost: 5}, Quantity: 1},
		}
		require.NoError(t, s.carts.Save(ctx, cart))

		balance, err := s.committer.CommitCheckout(ctx, cart, u.ID, cart.Total())
		require.NoError(t, err)
		assert.Equal(t, 75.0, balance)

		got, err := s.users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 75.0, got.WalletMoney)

		stored, err := s.carts.FindByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Empty(t, stored.CartItems)
		assert.Equal(t, cart.Version, stored.Version)
	})

	t.Run("CommitCheckoutInsufficientFundsLeavesEverything", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		u := newUser("g@qart.io", 20)
		require.NoError(t, s.users.Create(ctx, u))
		cart := &models.Cart{ID: uuid.NewString(), Email: u.Email}
		require.NoError(t, s.carts.Create(ctx, cart))
		cart.CartItems = []models.CartItem{{Product: models.Product{ID: "p1", Cost: 10}, Quantity: 3}}
		require.NoError(t, s.carts.Save(ctx, cart))

		_, err := s.committer.CommitCheckout(ctx, cart, u.ID, cart.Total())
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		got, _ := s.users.FindByID(ctx, u.ID)
		assert.Equal(t, 20.0, got.WalletMoney)
		stored, _ := s.carts.FindByEmail(ctx, u.Email)
		assert.Len(t, stored.CartItems, 1)
	})

	t.Run("CommitCheckoutStaleCartRollsBackDebit", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		u := newUser("h@qart.io", 100)
		require.NoError(t, s.users.Create(ctx, u))
		cart := &models.Cart{ID: uuid.NewString(), Email: u.Email}
		require.NoError(t, s.carts.Create(ctx, cart))
		cart.CartItems = []models.CartItem{{Product: models.Product{ID: "p1", Cost: 10}, Quantity: 1}}
		require.NoError(t, s.carts.Save(ctx, cart))

		stale := cart.Clone()
		cart.CartItems[0].Quantity = 2
		require.NoError(t, s.carts.Save(ctx, cart))

		_, err := s.committer.CommitCheckout(ctx, stale, u.ID, stale.Total())
		assert.ErrorIs(t, err, ErrVersionConflict)

		got, _ := s.users.FindByID(ctx, u.ID)
		assert.Equal(t, 100.0, got.WalletMoney)
	})

	t.Run("CommitCheckoutStaleCartConflictsBeforeFunds", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		u := newUser("i@qart.io", 15)
		require.NoError(t, s.users.Create(ctx, u))
		cart := &models.Cart{ID: uuid.NewString(), Email: u.Email}
		require.NoError(t, s.carts.Create(ctx, cart))
		cart.CartItems = []models.CartItem{{Product: models.Product{ID: "p1", Cost: 10}, Quantity: 1}}
		require.NoError(t, s.carts.Save(ctx, cart))

		// le panier stocké (20) dépasse le solde, le panier périmé (10) non
		stale := cart.Clone()
		cart.CartItems[0].Quantity = 2
		require.NoError(t, s.carts.Save(ctx, cart))

		_, err := s.committer.CommitCheckout(ctx, stale, u.ID, 20)
		assert.ErrorIs(t, err, ErrVersionConflict)

		got, _ := s.users.FindByID(ctx, u.ID)
		assert.Equal(t, 15.0, got.WalletMoney)
	})

	t.Run("CommitCheckoutSuccessiveDebitsStayOnCents", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		u := newUser("j@qart.io", 0.3)
		require.NoError(t, s.users.Create(ctx, u))
		cart := &models.Cart{ID: uuid.NewString(), Email: u.Email}
		require.NoError(t, s.carts.Create(ctx, cart))

		cart.CartItems = []models.CartItem{{Product: models.Product{ID: "p1", Cost: 0.1}, Quantity: 1}}
		require.NoError(t, s.carts.Save(ctx, cart))
		balance, err := s.committer.CommitCheckout(ctx, cart, u.ID, cart.Total())
		require.NoError(t, err)
		assert.Equal(t, 0.2, balance)

		cart.CartItems = []models.CartItem{{Product: models.Product{ID: "p1", Cost: 0.1}, Quantity: 2}}
		require.NoError(t, s.carts.Save(ctx, cart))
		balance, err = s.committer.CommitCheckout(ctx, cart, u.ID, cart.Total())
		require.NoError(t, err)
		assert.Equal(t, 0.0, balance)

		got, err := s.users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got.WalletMoney)
	})
}
