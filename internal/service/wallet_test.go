package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"qart_back_end/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWalletFixture() (*WalletService, *repository.MemoryStore, *fakeGateway, *fakeAccounts) {
	store := repository.NewMemoryStore()
	gateway := &fakeGateway{}
	accounts := &fakeAccounts{}
	return NewWalletService(store, gateway, newFakeOnce(), accounts), store, gateway, accounts
}

func TestCreateTopUp(t *testing.T) {
	svc, store, gateway, _ := newWalletFixture()
	user := newUserAccount(store, "a@qart.io", 100, testDefaultAddress)

	topUp, err := svc.CreateTopUp(context.Background(), user, 12.34)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", topUp.IntentID)
	assert.Equal(t, "pi_123_secret_abc", topUp.ClientSecret)
	assert.Equal(t, 12.34, topUp.Amount)
	assert.Equal(t, []int64{1234}, gateway.created)
}

func TestCreateTopUp_InvalidAmounts(t *testing.T) {
	svc, store, gateway, _ := newWalletFixture()
	user := newUserAccount(store, "a@qart.io", 100, testDefaultAddress)

	for _, amount := range []float64{0, -5, 10000.01, 0.001} {
		_, err := svc.CreateTopUp(context.Background(), user, amount)
		assertAPIError(t, err, http.StatusBadRequest, "")
	}
	assert.Empty(t, gateway.created)

	_, err := svc.CreateTopUp(context.Background(), user, 10000)
	assert.NoError(t, err)
}

func TestCreateTopUp_Disabled(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewWalletService(store, nil, nil, nil)
	user := newUserAccount(store, "a@qart.io", 100, testDefaultAddress)

	_, err := svc.CreateTopUp(context.Background(), user, 10)
	assertAPIError(t, err, http.StatusServiceUnavailable, "")
}

func TestHandleWebhook_CreditsOnce(t *testing.T) {
	svc, store, gateway, accounts := newWalletFixture()
	ctx := context.Background()
	user := newUserAccount(store, "a@qart.io", 100, testDefaultAddress)
	gateway.event = &PaymentEvent{ID: "evt_1", Type: EventPaymentSucceeded, IntentID: "pi_1", UserID: user.ID, AmountCents: 2550}

	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"))
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"))

	stored, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 125.5, stored.WalletMoney)
	assert.Equal(t, []string{user.ID}, accounts.invalidated)
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	svc, store, gateway, _ := newWalletFixture()
	ctx := context.Background()
	user := newUserAccount(store, "a@qart.io", 100, testDefaultAddress)
	gateway.event = &PaymentEvent{ID: "evt_2", Type: "payment_intent.payment_failed", IntentID: "pi_2", UserID: user.ID, AmountCents: 1000}

	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"))

	stored, _ := store.FindByID(ctx, user.ID)
	assert.Equal(t, 100.0, stored.WalletMoney)
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	svc, _, gateway, _ := newWalletFixture()
	gateway.parseErr = errors.New("bad signature")

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	assertAPIError(t, err, http.StatusBadRequest, "Invalid webhook signature")
}

func TestHandleWebhook_UnknownUserReleasesKey(t *testing.T) {
	svc, store, gateway, _ := newWalletFixture()
	ctx := context.Background()
	gateway.event = &PaymentEvent{ID: "evt_3", Type: EventPaymentSucceeded, IntentID: "pi_3", UserID: "ghost", AmountCents: 1000}

	err := svc.HandleWebhook(ctx, []byte("{}"), "sig")
	assertAPIError(t, err, http.StatusNotFound, "")

	// une relivraison après création du compte doit encore créditer
	user := newUserAccount(store, "late@qart.io", 0, testDefaultAddress)
	gateway.event.UserID = user.ID
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"))
	stored, _ := store.FindByID(ctx, user.ID)
	assert.Equal(t, 10.0, stored.WalletMoney)
}
