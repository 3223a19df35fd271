package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront_back_end/internal/models"

	"github.com/gocql/gocql"
)

// MemoryStore implémente Store en mémoire (mode dev et tests)
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[gocql.UUID]*models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[gocql.UUID]*models.Order),
	}
}

func (s *MemoryStore) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return ErrDuplicateOrder
	}

	stored := order.Clone()
	s.orders[order.ID] = &stored
	return nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id gocql.UUID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	c := order.Clone()
	return &c, nil
}

func (s *MemoryStore) FindOrdersSince(_ context.Context, from time.Time, statuses []models.OrderStatus) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := statusSet(statuses)
	result := make([]models.Order, 0)
	for _, order := range s.orders {
		if order.CreatedAt.Before(from) || !wanted[order.Status] {
			continue
		}
		result = append(result, order.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) CountByStatus(_ context.Context, status models.OrderStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, order := range s.orders {
		if order.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountOrders(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders), nil
}

func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		result = append(result, order.Clone())
	}
	sortNewestFirst(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Order, 0)
	for _, order := range s.orders {
		if order.UserID == userID {
			result = append(result, order.Clone())
		}
	}
	sortNewestFirst(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) CompareAndSetStatus(_ context.Context, id gocql.UUID, from, to models.OrderStatus, at time.Time) (bool, *models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[id]
	if !exists {
		return false, nil, ErrOrderNotFound
	}

	if order.Status != from {
		c := order.Clone()
		return false, &c, nil
	}

	order.Status = to
	order.UpdatedAt = at
	if to == models.OrderStatusPaid {
		paidAt := at
		order.PaidAt = &paidAt
	}

	c := order.Clone()
	return true, &c, nil
}

func sortNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
