package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"qart_back_end/internal/models"
	"qart_back_end/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"

	MaxTopUpAmount = 10000
	webhookKeyTTL  = 7 * 24 * time.Hour
)

// PaymentEvent est la partie d'un événement Stripe utile au crédit du wallet
type PaymentEvent struct {
	ID          string
	Type        string
	IntentID    string
	UserID      string
	AmountCents int64
}

type PaymentGateway interface {
	CreateTopUpIntent(ctx context.Context, userID string, amountCents int64) (intentID, clientSecret string, err error)
	ParseEvent(payload []byte, signature string) (*PaymentEvent, error)
}

// OnceMarker pose une clé unique (SETNX) pour ne traiter qu'une fois chaque livraison de webhook
type OnceMarker interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type TopUp struct {
	IntentID     string  `json:"paymentIntentId"`
	ClientSecret string  `json:"clientSecret"`
	Amount       float64 `json:"amount"`
}

type WalletService struct {
	users    repository.UserRepository
	gateway  PaymentGateway
	once     OnceMarker
	accounts AccountCache
}

func NewWalletService(users repository.UserRepository, gateway PaymentGateway, once OnceMarker, accounts AccountCache) *WalletService {
	return &WalletService{users: users, gateway: gateway, once: once, accounts: accounts}
}

func (s *WalletService) Enabled() bool {
	return s.gateway != nil && s.once != nil
}

// CreateTopUp crée un PaymentIntent ; le wallet n'est crédité qu'à réception du webhook
func (s *WalletService) CreateTopUp(ctx context.Context, user *models.User, amount float64) (*TopUp, error) {
	if !s.Enabled() {
		return nil, &APIError{Status: http.StatusServiceUnavailable, Message: msgPaymentsDisabled}
	}
	if amount <= 0 || amount > MaxTopUpAmount {
		return nil, BadRequest(msgInvalidAmount)
	}
	cents := decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if cents < 1 {
		return nil, BadRequest(msgInvalidAmount)
	}

	intentID, secret, err := s.gateway.CreateTopUpIntent(ctx, user.ID, cents)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	log.Printf("💳 PaymentIntent %s créé pour %s (%d centimes)", intentID, user.Email, cents)
	return &TopUp{IntentID: intentID, ClientSecret: secret, Amount: decimal.New(cents, -2).InexactFloat64()}, nil
}

// HandleWebhook crédite le wallet une seule fois par PaymentIntent réussi
func (s *WalletService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if !s.Enabled() {
		return &APIError{Status: http.StatusServiceUnavailable, Message: msgPaymentsDisabled}
	}

	event, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		log.Println("❌ Webhook Stripe rejeté:", err)
		return BadRequest(msgInvalidSignature)
	}
	if event.Type != EventPaymentSucceeded {
		return nil
	}
	if event.UserID == "" || event.IntentID == "" || event.AmountCents <= 0 {
		log.Printf("⚠️ Webhook %s sans user_id ou montant, ignoré", event.ID)
		return nil
	}

	key := "stripe:intent:" + event.IntentID
	first, err := s.once.MarkOnce(ctx, key, webhookKeyTTL)
	if err != nil {
		return fmt.Errorf("mark webhook: %w", err)
	}
	if !first {
		log.Printf("⚠️ PaymentIntent %s déjà traité", event.IntentID)
		return nil
	}

	amount := decimal.New(event.AmountCents, -2).InexactFloat64()
	balance, err := s.users.CreditWallet(ctx, event.UserID, amount)
	if err != nil {
		// Stripe relivrera l'événement : la clé doit être libérée
		if relErr := s.once.Release(ctx, key); relErr != nil {
			log.Printf("❌ Libération de %s impossible: %v", key, relErr)
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return NotFound(msgUserNotFound)
		}
		return fmt.Errorf("credit wallet: %w", err)
	}

	if s.accounts != nil {
		if err := s.accounts.Invalidate(ctx, event.UserID); err != nil {
			log.Printf("⚠️ Invalidation du cache compte %s impossible: %v", event.UserID, err)
		}
	}
	log.Printf("✅ Wallet %s crédité de %.2f, solde %.2f", event.UserID, amount, balance)
	return nil
}
