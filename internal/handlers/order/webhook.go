package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront_back_end/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/zap"
)

const maxWebhookBodyBytes = int64(65536)

// StripeWebhook marque la commande payée à la réception de payment_intent.succeeded.
// Le PaymentIntent porte l'id de commande dans metadata.order_id.
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.webhookSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Webhook non configuré"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		zap.L().Warn("❌ Signature Stripe invalide", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	zap.L().Info("📥 Événement Stripe reçu", zap.String("type", string(event.Type)))

	if event.Type != "payment_intent.succeeded" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "PaymentIntent invalide"})
		return
	}

	parsed, err := uuid.Parse(pi.Metadata["order_id"])
	if err != nil {
		// Rien à rejouer : on acquitte pour que Stripe cesse les envois
		zap.L().Warn("⚠️ PaymentIntent sans order_id exploitable", zap.String("payment_intent", pi.ID))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	id := gocql.UUID(parsed)

	_, err = h.ledger.MarkPaid(c.Request.Context(), id)
	switch {
	case err == nil, errors.Is(err, ledger.ErrAlreadyPaid):
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, ledger.ErrOrderNotFound), errors.Is(err, ledger.ErrInvalidTransition):
		zap.L().Warn("⚠️ Paiement Stripe ignoré",
			zap.String("order_id", id.String()),
			zap.String("payment_intent", pi.ID),
			zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true})
	default:
		// Erreur transitoire : Stripe renverra l'événement
		zap.L().Error("❌ Erreur enregistrement paiement Stripe", zap.String("order_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement paiement"})
	}
}
