package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type CartEvent struct {
	Type  string    `json:"type"`
	Email string    `json:"email"`
	At    time.Time `json:"at"`
}

// CartEvents publie les changements de panier sur le canal Redis "cart:<email>"
type CartEvents struct {
	client *redis.Client
}

func NewCartEvents(client *redis.Client) *CartEvents {
	return &CartEvents{client: client}
}

func cartChannel(email string) string {
	return "cart:" + email
}

func (e *CartEvents) PublishCart(ctx context.Context, email, event string) error {
	payload, err := json.Marshal(CartEvent{Type: event, Email: email, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return e.client.Publish(ctx, cartChannel(email), payload).Err()
}

// Subscribe ne retourne qu'une fois l'abonnement confirmé par Redis.
// Le canal est fermé après l'appel de la fonction close ou l'annulation de ctx.
func (e *CartEvents) Subscribe(ctx context.Context, email string) (<-chan CartEvent, func() error, error) {
	sub := e.client.Subscribe(ctx, cartChannel(email))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe cart events: %w", err)
	}

	out := make(chan CartEvent)
	msgs := sub.Channel()
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev CartEvent
				if json.Unmarshal([]byte(msg.Payload), &ev) != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, sub.Close, nil
}
