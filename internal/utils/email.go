package utils

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/models"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender envoie un message déjà construit.
type Sender func(msg *mail.Msg) error

// OrderMailer envoie la confirmation de paiement. L'envoi est asynchrone :
// un SMTP lent ne bloque jamais la transition de statut.
type OrderMailer struct {
	from string
	send Sender
	wg   sync.WaitGroup
}

// NewOrderMailer construit le client SMTP à partir de la configuration.
func NewOrderMailer(cfg config.SMTP) *OrderMailer {
	return NewOrderMailerWithSender(cfg.From, func(msg *mail.Msg) error {
		client, err := mail.NewClient(cfg.Host,
			mail.WithPort(cfg.Port),
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
		if err != nil {
			return err
		}
		return client.DialAndSend(msg)
	})
}

func NewOrderMailerWithSender(from string, send Sender) *OrderMailer {
	return &OrderMailer{from: from, send: send}
}

// OrderPaid implémente ledger.Notifier.
func (m *OrderMailer) OrderPaid(_ context.Context, order models.Order) {
	if order.ContactEmail == "" {
		zap.L().Debug("📭 Pas d'email de contact, confirmation ignorée", zap.String("order_id", order.ID.String()))
		return
	}

	msg, err := m.buildConfirmation(order)
	if err != nil {
		zap.L().Error("❌ Construction email de confirmation", zap.String("order_id", order.ID.String()), zap.Error(err))
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		zap.L().Info("📤 Envoi de l'e-mail", zap.String("to", order.ContactEmail))
		if err := m.send(msg); err != nil {
			zap.L().Error("❌ Envoi email de confirmation", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}()
}

// Wait attend la fin des envois en cours (arrêt du serveur, tests).
func (m *OrderMailer) Wait() {
	m.wg.Wait()
}

func (m *OrderMailer) buildConfirmation(order models.Order) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, err
	}
	if err := msg.To(order.ContactEmail); err != nil {
		return nil, err
	}
	msg.Subject(fmt.Sprintf("Paiement confirmé : commande %s", shortID(order)))

	body, err := RenderPaymentConfirmation(order)
	if err != nil {
		return nil, err
	}
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func shortID(order models.Order) string {
	id := order.ID.String()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Confirmation de paiement</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Paiement confirmé</h2>
		<p>Bonjour,</p>
		<p>Le paiement de votre commande {{.ID}} a bien été reçu.</p>
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produit</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>
			{{range .Items}}
				<tr>
					<td>{{.ProductName}}</td>
					<td>{{.Quantity}}</td>
					<td>{{.UnitPrice.StringFixed 2}}€</td>
					<td>{{.Subtotal.StringFixed 2}}€</td>
				</tr>
			{{end}}
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">{{.Total.StringFixed 2}}€</td>
				</tr>
			</tfoot>
		</table>
	</div>
</body>
</html>`))

// RenderPaymentConfirmation génère le HTML de confirmation de paiement.
func RenderPaymentConfirmation(order models.Order) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, order); err != nil {
		return "", err
	}
	return buf.String(), nil
}
