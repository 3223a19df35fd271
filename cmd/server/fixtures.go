package main

import (
	"context"
	"time"

	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/ledger"
	"storefront_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
)

func categoryRef(id int64) *int64 { return &id }

var demoCategories = []models.Category{
	{ID: 1, Name: "Cuisine"},
	{ID: 2, Name: "Salon"},
	{ID: 3, Name: "Jardin"},
}

var demoProducts = []models.Product{
	{ID: 1, Name: "Poêle en fonte", Price: decimal.RequireFromString("39.90"), CategoryID: categoryRef(1)},
	{ID: 2, Name: "Couteau de chef", Price: decimal.RequireFromString("59.00"), CategoryID: categoryRef(1)},
	{ID: 3, Name: "Lampe de table", Price: decimal.RequireFromString("24.50"), CategoryID: categoryRef(2)},
	{ID: 4, Name: "Canapé deux places", Price: decimal.RequireFromString("449.00"), CategoryID: categoryRef(2)},
	{ID: 5, Name: "Carte cadeau", Price: decimal.RequireFromString("25.00")},
}

// seedFixtures remplit le stockage mémoire avec un mois d'activité.
func seedFixtures(ctx context.Context, store ledger.Store, products *catalog.MemoryCatalog, now time.Time) error {
	for _, c := range demoCategories {
		products.PutCategory(c)
	}
	for _, p := range demoProducts {
		products.PutProduct(p)
	}

	statuses := []models.OrderStatus{
		models.OrderStatusPaid,
		models.OrderStatusShipped,
		models.OrderStatusCompleted,
		models.OrderStatusPending,
		models.OrderStatusCompleted,
		models.OrderStatusCancelled,
	}

	for day := 0; day < 30; day++ {
		createdAt := now.AddDate(0, 0, -day).Add(-time.Duration(day%5) * time.Hour)
		p1 := demoProducts[day%len(demoProducts)]
		p2 := demoProducts[(day*3+1)%len(demoProducts)]

		order := &models.Order{
			ID:                gocql.TimeUUID(),
			UserID:            "demo-customer",
			ShippingAddressID: "demo-address",
			Status:            statuses[day%len(statuses)],
			CreatedAt:         createdAt,
			UpdatedAt:         createdAt,
			Items: []models.OrderItem{
				models.NewOrderItem(p1, 1+day%3),
				models.NewOrderItem(p2, 1),
			},
		}
		for i := range order.Items {
			order.Items[i].ID = i + 1
			order.Items[i].OrderID = order.ID
		}
		order.Total = order.ItemsSubtotal()
		if order.Status.IsPaid() {
			paidAt := createdAt.Add(10 * time.Minute)
			order.PaidAt = &paidAt
		}

		if err := store.CreateOrder(ctx, order); err != nil {
			return err
		}
	}
	return nil
}
