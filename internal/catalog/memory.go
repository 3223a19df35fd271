package catalog

import (
	"context"
	"sort"
	"sync"

	"storefront_back_end/internal/models"
)

// MemoryCatalog est le catalogue en mémoire utilisé en développement et en test.
type MemoryCatalog struct {
	mu         sync.RWMutex
	products   map[int64]models.Product
	categories map[int64]models.Category
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		products:   make(map[int64]models.Product),
		categories: make(map[int64]models.Category),
	}
}

func (m *MemoryCatalog) PutCategory(c models.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
}

func (m *MemoryCatalog) PutProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// DeleteProduct retire un produit. Les lignes de commande qui le référencent deviennent orphelines.
func (m *MemoryCatalog) DeleteProduct(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

func (m *MemoryCatalog) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryCatalog) ListProducts(_ context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryCatalog) GetProducts(_ context.Context, ids []int64) (map[int64]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[int64]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}
