package analytics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
)

const (
	summaryTopLimit    = 5
	summaryRecentLimit = 10
	summaryRangeDays   = 30
)

type KPIs struct {
	Products int             `json:"products"`
	Orders   int             `json:"orders"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type ProductRevenue struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Revenue   decimal.Decimal `json:"revenue"`
	Quantity  int             `json:"qty"`
}

type CategoryRevenue struct {
	Name    string          `json:"name"`
	Revenue decimal.Decimal `json:"revenue"`
}

type RecentOrder struct {
	ID        gocql.UUID         `json:"id"`
	UserID    string             `json:"user_id"`
	Status    models.OrderStatus `json:"status"`
	Total     decimal.Decimal    `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
}

type Summary struct {
	KPIs          KPIs                     `json:"kpis"`
	TopProducts   []ProductRevenue         `json:"top_products"`
	TopCategories []CategoryRevenue        `json:"top_categories"`
	RecentOrders  []RecentOrder            `json:"latest_orders"`
	Sales         Response                 `json:"sales"`
	Filters       []catalog.FilterCategory `json:"category_filters"`
}

// StaffOverview est la vue du tableau de bord des employés.
type StaffOverview struct {
	Products     int           `json:"products"`
	Pending      int           `json:"pending"`
	RecentOrders []RecentOrder `json:"latest_orders"`
}

// Summary assemble la vue d'ensemble du tableau de bord administrateur.
func (e *Engine) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	idx, err := catalog.Snapshot(ctx, e.catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	paid, err := e.orders.FindOrdersSince(ctx, time.Time{}, models.PaidStatuses())
	if err != nil {
		return nil, fmt.Errorf("load paid orders: %w", err)
	}

	orderCount, err := e.orders.CountOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	recent, err := e.orders.ListRecent(ctx, summaryRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("load recent orders: %w", err)
	}

	series, err := e.Aggregate(ctx, MidnightDaysAgo(now, summaryRangeDays), models.PaidStatuses(), NoFilter())
	if err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	for _, order := range paid {
		revenue = revenue.Add(order.Total)
	}

	products := make([]models.Product, 0, len(idx.Products))
	categories := make([]models.Category, 0, len(idx.Categories))
	for _, p := range idx.Products {
		products = append(products, p)
	}
	for _, c := range idx.Categories {
		categories = append(categories, c)
	}

	summary := &Summary{
		KPIs: KPIs{
			Products: len(idx.Products),
			Orders:   orderCount,
			Revenue:  revenue,
		},
		TopProducts:   topProducts(paid, idx),
		TopCategories: topCategories(paid, idx),
		RecentOrders:  toRecentOrders(recent),
		Sales:         series.Response(),
		Filters:       catalog.BuildFilterTree(categories, products),
	}
	return summary, nil
}

// StaffOverview ne lit ni le chiffre d'affaires ni les séries.
func (e *Engine) StaffOverview(ctx context.Context) (*StaffOverview, error) {
	products, err := e.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	pending, err := e.orders.CountByStatus(ctx, models.OrderStatusPending)
	if err != nil {
		return nil, fmt.Errorf("count pending orders: %w", err)
	}

	recent, err := e.orders.ListRecent(ctx, summaryRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("load recent orders: %w", err)
	}

	return &StaffOverview{
		Products:     len(products),
		Pending:      pending,
		RecentOrders: toRecentOrders(recent),
	}, nil
}

func toRecentOrders(orders []models.Order) []RecentOrder {
	result := make([]RecentOrder, 0, len(orders))
	for _, o := range orders {
		result = append(result, RecentOrder{
			ID:        o.ID,
			UserID:    o.UserID,
			Status:    o.Status,
			Total:     o.Total,
			CreatedAt: o.CreatedAt,
		})
	}
	return result
}

// MidnightDaysAgo retourne minuit, days jours avant now, dans le fuseau de now.
func MidnightDaysAgo(now time.Time, days int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-days, 0, 0, 0, 0, now.Location())
}

func topProducts(orders []models.Order, idx *catalog.Index) []ProductRevenue {
	byID := make(map[int64]*ProductRevenue)
	for _, order := range orders {
		for _, item := range order.Items {
			entry, ok := byID[item.ProductID]
			if !ok {
				name := item.ProductName
				if p, exists := idx.Products[item.ProductID]; exists {
					name = p.Name
				}
				entry = &ProductRevenue{ProductID: item.ProductID, Name: name, Revenue: decimal.Zero}
				byID[item.ProductID] = entry
			}
			entry.Revenue = entry.Revenue.Add(item.Subtotal)
			entry.Quantity += item.Quantity
		}
	}

	result := make([]ProductRevenue, 0, len(byID))
	for _, entry := range byID {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Revenue.Equal(result[j].Revenue) {
			return result[i].Revenue.GreaterThan(result[j].Revenue)
		}
		return result[i].Name < result[j].Name
	})
	if len(result) > summaryTopLimit {
		result = result[:summaryTopLimit]
	}
	return result
}

func topCategories(orders []models.Order, idx *catalog.Index) []CategoryRevenue {
	byName := make(map[string]decimal.Decimal)
	for _, order := range orders {
		for _, item := range order.Items {
			name := categoryName(item.ProductID, idx)
			byName[name] = byName[name].Add(item.Subtotal)
		}
	}

	result := make([]CategoryRevenue, 0, len(byName))
	for name, revenue := range byName {
		result = append(result, CategoryRevenue{Name: name, Revenue: revenue})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Revenue.Equal(result[j].Revenue) {
			return result[i].Revenue.GreaterThan(result[j].Revenue)
		}
		return result[i].Name < result[j].Name
	})
	if len(result) > summaryTopLimit {
		result = result[:summaryTopLimit]
	}
	return result
}

func categoryName(productID int64, idx *catalog.Index) string {
	p, ok := idx.Products[productID]
	if !ok || p.IsUncategorized() {
		return "Uncategorized"
	}
	if c, ok := idx.Categories[*p.CategoryID]; ok {
		return c.Name
	}
	return "Category #" + strconv.FormatInt(*p.CategoryID, 10)
}
