package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const PendingChannel = "orders:pending"

// PendingMessage est publié à chaque changement du nombre de commandes en attente.
type PendingMessage struct {
	Pending int `json:"pending"`
}

// PendingCounter renvoie le nombre courant de commandes en attente.
type PendingCounter func(ctx context.Context) (int, error)

// PendingPublisher diffuse le compteur de commandes en attente via Redis Pub/Sub.
type PendingPublisher struct {
	client *redis.Client
	count  PendingCounter
}

func NewPendingPublisher(client *redis.Client, count PendingCounter) *PendingPublisher {
	return &PendingPublisher{client: client, count: count}
}

// PendingChanged recalcule le compteur et le publie. Les erreurs sont seulement journalisées.
func (p *PendingPublisher) PendingChanged(ctx context.Context) {
	n, err := p.count(ctx)
	if err != nil {
		zap.L().Error("❌ Comptage des commandes en attente", zap.Error(err))
		return
	}
	if err := p.Publish(ctx, n); err != nil {
		zap.L().Error("❌ Publication du compteur en attente", zap.Error(err))
	}
}

func (p *PendingPublisher) Publish(ctx context.Context, pending int) error {
	payload, err := json.Marshal(PendingMessage{Pending: pending})
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, PendingChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// Subscribe ouvre un abonnement au canal. L'appelant doit fermer le PubSub.
func (p *PendingPublisher) Subscribe(ctx context.Context) *redis.PubSub {
	return p.client.Subscribe(ctx, PendingChannel)
}

// DecodePending lit un message publié sur PendingChannel.
func DecodePending(payload string) (PendingMessage, error) {
	var msg PendingMessage
	err := json.Unmarshal([]byte(payload), &msg)
	return msg, err
}
