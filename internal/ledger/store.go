package ledger

import (
	"context"
	"time"

	"storefront_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Store définit la persistance des commandes
type Store interface {
	// CreateOrder enregistre la commande et ses lignes en une seule écriture
	CreateOrder(ctx context.Context, order *models.Order) error

	GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error)

	// FindOrdersSince retourne les commandes créées à partir de from dont le statut est dans statuses
	FindOrdersSince(ctx context.Context, from time.Time, statuses []models.OrderStatus) ([]models.Order, error)

	CountByStatus(ctx context.Context, status models.OrderStatus) (int, error)

	CountOrders(ctx context.Context) (int, error)

	// ListRecent retourne les dernières commandes, les plus récentes en premier
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)

	// ListByUser retourne les commandes d'un client, les plus récentes en premier
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Order, error)

	// CompareAndSetStatus passe la commande de from à to seulement si son statut
	// courant vaut from. paidAt n'est écrit que lorsque to vaut Paid.
	// Retourne applied=false et l'état courant sinon.
	CompareAndSetStatus(ctx context.Context, id gocql.UUID, from, to models.OrderStatus, at time.Time) (applied bool, current *models.Order, err error)
}

func statusSet(statuses []models.OrderStatus) map[models.OrderStatus]bool {
	set := make(map[models.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}
