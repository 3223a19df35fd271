package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront_back_end/internal/database"
	"storefront_back_end/internal/models"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"
)

const orderColumns = `order_id, user_id, shipping_address_id, contact_email, status, total, items, created_at, updated_at, paid_at`

// ScyllaStore implémente Store sur le keyspace des commandes.
// Les lignes sont sérialisées en JSON dans la même ligne que la commande :
// la création reste une écriture unique, donc atomique.
type ScyllaStore struct {
	session *gocql.Session
}

func NewScyllaStore(session *gocql.Session) *ScyllaStore {
	return &ScyllaStore{session: session}
}

func (s *ScyllaStore) CreateOrder(ctx context.Context, order *models.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	query := `INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`
	applied, err := s.session.Query(query,
		order.ID,
		order.UserID,
		order.ShippingAddressID,
		order.ContactEmail,
		string(order.Status),
		database.ToInfDec(order.Total),
		string(itemsJSON),
		order.CreatedAt,
		order.UpdatedAt,
		order.PaidAt,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if !applied {
		return ErrDuplicateOrder
	}
	return nil
}

func (s *ScyllaStore) GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	iter := s.session.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id).WithContext(ctx).Iter()

	orders, err := scanOrders(iter)
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return &orders[0], nil
}

func (s *ScyllaStore) FindOrdersSince(ctx context.Context, from time.Time, statuses []models.OrderStatus) ([]models.Order, error) {
	iter := s.session.Query(`SELECT `+orderColumns+` FROM orders WHERE created_at >= ? ALLOW FILTERING`, from).
		WithContext(ctx).Iter()

	orders, err := scanOrders(iter)
	if err != nil {
		return nil, fmt.Errorf("query orders since %s: %w", from.Format(time.RFC3339), err)
	}

	wanted := statusSet(statuses)
	result := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		if wanted[order.Status] {
			result = append(result, order)
		}
	}
	return result, nil
}

func (s *ScyllaStore) CountByStatus(ctx context.Context, status models.OrderStatus) (int, error) {
	var count int
	err := s.session.Query(`SELECT COUNT(*) FROM orders WHERE status = ? ALLOW FILTERING`, string(status)).
		WithContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orders by status: %w", err)
	}
	return count, nil
}

func (s *ScyllaStore) CountOrders(ctx context.Context) (int, error) {
	var count int
	if err := s.session.Query(`SELECT COUNT(*) FROM orders`).WithContext(ctx).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (s *ScyllaStore) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	// Pas d'ordre global en Scylla : on trie côté application
	orders, err := scanOrders(s.session.Query(`SELECT ` + orderColumns + ` FROM orders`).WithContext(ctx).Iter())
	if err != nil {
		return nil, fmt.Errorf("query recent orders: %w", err)
	}

	sortNewestFirst(orders)
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// ListByUser passe par l'index secondaire sur user_id.
func (s *ScyllaStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	orders, err := scanOrders(s.session.Query(`SELECT `+orderColumns+` FROM orders WHERE user_id = ?`, userID).WithContext(ctx).Iter())
	if err != nil {
		return nil, fmt.Errorf("query orders of user: %w", err)
	}

	sortNewestFirst(orders)
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// CompareAndSetStatus s'appuie sur une transaction légère (LWT) : deux paiements
// concurrents sur la même commande sont sérialisés par Paxos, un seul est appliqué.
func (s *ScyllaStore) CompareAndSetStatus(ctx context.Context, id gocql.UUID, from, to models.OrderStatus, at time.Time) (bool, *models.Order, error) {
	if _, err := s.GetOrder(ctx, id); err != nil {
		return false, nil, err
	}

	var q *gocql.Query
	if to == models.OrderStatusPaid {
		q = s.session.Query(`UPDATE orders SET status = ?, updated_at = ?, paid_at = ? WHERE order_id = ? IF status = ?`,
			string(to), at, at, id, string(from))
	} else {
		q = s.session.Query(`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ? IF status = ?`,
			string(to), at, id, string(from))
	}

	applied, err := q.WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, nil, fmt.Errorf("update order status: %w", err)
	}

	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return applied, nil, err
	}
	return applied, current, nil
}

func scanOrders(iter *gocql.Iter) ([]models.Order, error) {
	var orders []models.Order

	for {
		var (
			order     models.Order
			status    string
			itemsJSON string
			paidAt    *time.Time
			total     = new(inf.Dec)
		)

		if !iter.Scan(&order.ID, &order.UserID, &order.ShippingAddressID, &order.ContactEmail,
			&status, total, &itemsJSON, &order.CreatedAt, &order.UpdatedAt, &paidAt) {
			break
		}

		order.Status = models.OrderStatus(status)
		order.Total = database.FromInfDec(total)
		order.PaidAt = paidAt
		if itemsJSON != "" {
			if err := json.Unmarshal([]byte(itemsJSON), &order.Items); err != nil {
				iter.Close()
				return nil, fmt.Errorf("unmarshal order items: %w", err)
			}
		}
		orders = append(orders, order)
	}

	if err := iter.Close(); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return orders, nil
}
