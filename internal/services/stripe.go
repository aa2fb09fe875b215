package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"qart_back_end/internal/service"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

const topUpPurpose = "wallet_topup"

// StripeGateway crée les PaymentIntents de recharge et vérifie les webhooks.
// stripe.Key doit être initialisée au démarrage.
type StripeGateway struct {
	webhookSecret string
	currency      string
}

var _ service.PaymentGateway = (*StripeGateway)(nil)

func NewStripeGateway(webhookSecret, currency string) *StripeGateway {
	if currency == "" {
		currency = string(stripe.CurrencyEUR)
	}
	return &StripeGateway{webhookSecret: webhookSecret, currency: currency}
}

func (g *StripeGateway) CreateTopUpIntent(ctx context.Context, userID string, amountCents int64) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"user_id": userID,
			"purpose": topUpPurpose,
		},
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", "", err
	}
	return intent.ID, intent.ClientSecret, nil
}

// ParseEvent vérifie la signature Stripe-Signature puis extrait le PaymentIntent
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*service.PaymentEvent, error) {
	if g.webhookSecret == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET non configuré")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, err
	}

	out := &service.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != service.EventPaymentSucceeded || event.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("erreur décodage PaymentIntent: %w", err)
	}
	out.IntentID = pi.ID
	// seuls les PaymentIntents de recharge créditent le wallet
	if pi.Metadata["purpose"] == topUpPurpose {
		out.UserID = pi.Metadata["user_id"]
		out.AmountCents = pi.AmountReceived
		if out.AmountCents == 0 {
			out.AmountCents = pi.Amount
		}
	}
	return out, nil
}
