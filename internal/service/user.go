package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"qart_back_end/internal/models"
	"qart_back_end/internal/repository"
	"qart_back_end/internal/utils"

	"github.com/google/uuid"
)

type WelcomeSender interface {
	SendWelcome(ctx context.Context, user *models.User) error
}

type UserOptions struct {
	DefaultAddress     string
	DefaultWalletMoney float64
	Welcome            WelcomeSender
	Accounts           AccountCache
}

type UserService struct {
	users repository.UserRepository
	opts  UserOptions
}

func NewUserService(users repository.UserRepository, opts UserOptions) *UserService {
	return &UserService{users: users, opts: opts}
}

// Create enregistre un compte local avec l'adresse et le solde par défaut
func (s *UserService) Create(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, BadRequest("Email and password are required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, BadRequest(msgEmailTaken)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := s.newAccount(name, email, hash, models.ProviderLocal)
	if err := s.persist(ctx, user); err != nil {
		return nil, err
	}

	if s.opts.Welcome != nil {
		if err := s.opts.Welcome.SendWelcome(ctx, user); err != nil {
			log.Printf("⚠️ E-mail de bienvenue non envoyé à %s: %v", user.Email, err)
		}
	}
	log.Println("✅ Nouveau compte:", user.Email)
	return user, nil
}

// Authenticate vérifie email + mot de passe, le message d'erreur ne révèle pas lequel est faux
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, Unauthorized(msgBadCredentials)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil || !ok {
		return nil, Unauthorized(msgBadCredentials)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	return s.found(user, err)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	return s.found(user, err)
}

// SetAddress remplace l'adresse de livraison et retourne la valeur enregistrée
func (s *UserService) SetAddress(ctx context.Context, user *models.User, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", BadRequest(msgAddressRequired)
	}

	if err := s.users.UpdateAddress(ctx, user.ID, address); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", NotFound(msgUserNotFound)
		}
		return "", fmt.Errorf("update address: %w", err)
	}

	user.Address = address
	s.invalidate(ctx, user.ID)
	return address, nil
}

// FindOrCreateOAuth rattache une connexion sociale au compte de même email, ou en crée un
func (s *UserService) FindOrCreateOAuth(ctx context.Context, provider, email, name string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, BadRequest("OAuth provider did not return an email")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	// mot de passe aléatoire : le compte ne peut pas se connecter en local
	secret, err := utils.RandomSecret(32)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(secret)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user = s.newAccount(name, email, hash, provider)
	if err := s.users.Create(ctx, user); err != nil {
		// deux callbacks simultanés pour le même email
		if errors.Is(err, repository.ErrEmailTaken) {
			return s.GetByEmail(ctx, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.Printf("✅ Nouveau compte %s via %s", user.Email, provider)
	return user, nil
}

func (s *UserService) newAccount(name, email, hash, provider string) *models.User {
	return &models.User{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Email:       email,
		Password:    hash,
		Provider:    provider,
		Address:     s.opts.DefaultAddress,
		WalletMoney: s.opts.DefaultWalletMoney,
	}
}

func (s *UserService) persist(ctx context.Context, user *models.User) error {
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return BadRequest(msgEmailTaken)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *UserService) found(user *models.User, err error) (*models.User, error) {
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) invalidate(ctx context.Context, userID string) {
	if s.opts.Accounts == nil {
		return
	}
	if err := s.opts.Accounts.Invalidate(ctx, userID); err != nil {
		log.Printf("⚠️ Invalidation du cache compte %s impossible: %v", userID, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
