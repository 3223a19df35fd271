package dashboard

import (
	"context"
	"net/http"
	"time"

	"storefront_back_end/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// PendingSubscriber ouvre un abonnement aux changements du compteur en attente.
type PendingSubscriber interface {
	Subscribe(ctx context.Context) *redis.PubSub
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Les origines sont déjà filtrées par le middleware CORS
		return true
	},
}

// PendingStream pousse {pending:n} au client à chaque changement publié par le ledger.
func (h *Handler) PendingStream(c *gin.Context) {
	if h.stream == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Flux temps réel indisponible"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("❌ Erreur upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.stream.Subscribe(ctx)
	defer pubsub.Close()

	// Attendre la confirmation pour ne perdre aucun message publié après l'envoi initial
	if _, err := pubsub.Receive(ctx); err != nil {
		zap.L().Error("❌ Abonnement Redis échoué", zap.Error(err))
		return
	}

	n, err := h.pending.PendingCount(ctx)
	if err != nil {
		zap.L().Error("❌ Erreur comptage des commandes en attente", zap.Error(err))
		return
	}
	if err := writeJSON(conn, cache.PendingMessage{Pending: n}); err != nil {
		return
	}

	// Lecture nécessaire pour traiter les trames de contrôle et détecter la fermeture
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := pubsub.Channel()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			pending, err := cache.DecodePending(msg.Payload)
			if err != nil {
				zap.L().Warn("⚠️ Message en attente illisible", zap.String("payload", msg.Payload))
				continue
			}
			if err := writeJSON(conn, pending); err != nil {
				zap.L().Debug("❌ Erreur envoi WebSocket", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
