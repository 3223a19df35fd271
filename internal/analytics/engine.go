package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/models"

	"github.com/shopspring/decimal"
)

var ErrNoStatuses = errors.New("at least one order status is required")

// OrderSource est la partie du ledger lue par l'analytique.
type OrderSource interface {
	FindOrdersSince(ctx context.Context, from time.Time, statuses []models.OrderStatus) ([]models.Order, error)
	CountOrders(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.OrderStatus) (int, error)
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
}

type EngineOption func(*Engine)

// WithLabelLayout change le format des libellés (layout time.Format).
func WithLabelLayout(layout string) EngineOption {
	return func(e *Engine) { e.layout = layout }
}

type Engine struct {
	orders  OrderSource
	catalog catalog.Catalog
	layout  string
}

func NewEngine(orders OrderSource, c catalog.Catalog, opts ...EngineOption) *Engine {
	e := &Engine{orders: orders, catalog: c, layout: DefaultLabelLayout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

// Aggregate calcule le chiffre d'affaires journalier des commandes créées depuis from
// dont le statut figure dans statuses.
func (e *Engine) Aggregate(ctx context.Context, from time.Time, statuses []models.OrderStatus, filter Filter) (*Series, error) {
	if len(statuses) == 0 {
		return nil, ErrNoStatuses
	}

	orders, err := e.orders.FindOrdersSince(ctx, from, statuses)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var products map[int64]models.Product
	if !filter.IsNone() {
		products, err = e.catalog.GetProducts(ctx, productIDs(orders))
		if err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}
	}

	buckets := make(map[dayKey]*Point)
	for _, order := range orders {
		amount := order.Total
		if !filter.IsNone() {
			amount = matchingSubtotal(order, filter, products)
			if !amount.IsPositive() {
				continue
			}
		}

		y, m, d := order.CreatedAt.Date()
		key := dayKey{y, m, d}
		if p, ok := buckets[key]; ok {
			p.Revenue = p.Revenue.Add(amount)
			continue
		}
		buckets[key] = &Point{
			Day:     time.Date(y, m, d, 0, 0, 0, 0, order.CreatedAt.Location()),
			Revenue: amount,
		}
	}

	keys := make([]dayKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.year != b.year {
			return a.year < b.year
		}
		if a.month != b.month {
			return a.month < b.month
		}
		return a.day < b.day
	})

	series := &Series{Points: make([]Point, 0, len(keys)), layout: e.layout}
	for _, k := range keys {
		series.Points = append(series.Points, *buckets[k])
	}
	return series, nil
}

func matchingSubtotal(order models.Order, filter Filter, products map[int64]models.Product) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range order.Items {
		var product *models.Product
		if p, ok := products[item.ProductID]; ok {
			product = &p
		}
		if filter.matches(product) {
			sum = sum.Add(item.Subtotal)
		}
	}
	return sum
}

func productIDs(orders []models.Order) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, order := range orders {
		for _, item := range order.Items {
			if !seen[item.ProductID] {
				seen[item.ProductID] = true
				ids = append(ids, item.ProductID)
			}
		}
	}
	return ids
}
