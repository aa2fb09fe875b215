package service

import (
	"context"
	"net/http"
	"testing"

	"qart_back_end/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture() (*UserService, *repository.MemoryStore, *fakeWelcome, *fakeAccounts) {
	store := repository.NewMemoryStore()
	welcome := &fakeWelcome{}
	accounts := &fakeAccounts{}
	svc := NewUserService(store, UserOptions{
		DefaultAddress:     testDefaultAddress,
		DefaultWalletMoney: 500,
		Welcome:            welcome,
		Accounts:           accounts,
	})
	return svc, store, welcome, accounts
}

func TestUserCreate_Defaults(t *testing.T) {
	svc, _, welcome, _ := newUserFixture()
	ctx := context.Background()

	user, err := svc.Create(ctx, "crio.do", " Crio@Qart.io ", "learnwithcrio")
	require.NoError(t, err)
	assert.Equal(t, "crio@qart.io", user.Email)
	assert.Equal(t, testDefaultAddress, user.Address)
	assert.Equal(t, 500.0, user.WalletMoney)
	assert.NotEqual(t, "learnwithcrio", user.Password)
	assert.Equal(t, []string{"crio@qart.io"}, welcome.sent)
	assert.False(t, user.HasAddress(testDefaultAddress))
}

func TestUserCreate_EmailTaken(t *testing.T) {
	svc, _, _, _ := newUserFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, "a", "crio@qart.io", "pw")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "b", "CRIO@qart.io", "pw")
	assertAPIError(t, err, http.StatusBadRequest, "Email already taken")
}

func TestUserCreate_MissingFields(t *testing.T) {
	svc, _, _, _ := newUserFixture()

	_, err := svc.Create(context.Background(), "a", "", "pw")
	assertAPIError(t, err, http.StatusBadRequest, "")
}

func TestAuthenticate(t *testing.T) {
	svc, _, _, _ := newUserFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, "crio", "crio@qart.io", "learnwithcrio")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "crio@qart.io", "learnwithcrio")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.Authenticate(ctx, "crio@qart.io", "wrong")
	assertAPIError(t, err, http.StatusUnauthorized, "Incorrect email or password")

	_, err = svc.Authenticate(ctx, "ghost@qart.io", "learnwithcrio")
	assertAPIError(t, err, http.StatusUnauthorized, "Incorrect email or password")
}

func TestGetUser(t *testing.T) {
	svc, _, _, _ := newUserFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, "crio", "crio@qart.io", "pw")
	require.NoError(t, err)

	byID, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)

	byEmail, err := svc.GetByEmail(ctx, "crio@qart.io")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = svc.GetByID(ctx, "ghost")
	assertAPIError(t, err, http.StatusNotFound, "User not found")
	_, err = svc.GetByEmail(ctx, "ghost@qart.io")
	assertAPIError(t, err, http.StatusNotFound, "User not found")
}

func TestSetAddress(t *testing.T) {
	svc, store, _, accounts := newUserFixture()
	ctx := context.Background()

	user, err := svc.Create(ctx, "crio", "crio@qart.io", "pw")
	require.NoError(t, err)

	_, err = svc.SetAddress(ctx, user, "   ")
	assertAPIError(t, err, http.StatusBadRequest, "")

	address, err := svc.SetAddress(ctx, user, " 221B Baker Street ")
	require.NoError(t, err)
	assert.Equal(t, "221B Baker Street", address)
	assert.True(t, user.HasAddress(testDefaultAddress))
	assert.Equal(t, []string{user.ID}, accounts.invalidated)

	stored, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "221B Baker Street", stored.Address)
}

func TestFindOrCreateOAuth(t *testing.T) {
	svc, _, _, _ := newUserFixture()
	ctx := context.Background()

	first, err := svc.FindOrCreateOAuth(ctx, "google", "social@qart.io", "")
	require.NoError(t, err)
	assert.Equal(t, "google", first.Provider)
	assert.Equal(t, "social", first.Name)
	assert.Equal(t, 500.0, first.WalletMoney)

	again, err := svc.FindOrCreateOAuth(ctx, "google", "SOCIAL@qart.io", "Social")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// le mot de passe aléatoire ne doit pas permettre une connexion locale triviale
	_, err = svc.Authenticate(ctx, "social@qart.io", "")
	assertAPIError(t, err, http.StatusUnauthorized, "")

	_, err = svc.FindOrCreateOAuth(ctx, "google", "", "x")
	assertAPIError(t, err, http.StatusBadRequest, "")
}
