package models

import (
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID                gocql.UUID      `json:"id"`
	UserID            string          `json:"user_id"`
	ShippingAddressID string          `json:"shipping_address_id"`
	ContactEmail      string          `json:"contact_email,omitempty"`
	Status            OrderStatus     `json:"status"`
	Total             decimal.Decimal `json:"total"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	Items             []OrderItem     `json:"items"`
}

// OrderItem est une ligne de commande. Le prix est figé au moment de la commande.
type OrderItem struct {
	ID          int             `json:"id"`
	OrderID     gocql.UUID      `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// NewOrderItem calcule le sous-total à partir du prix unitaire courant
func NewOrderItem(product Product, quantity int) OrderItem {
	return OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		Subtotal:    product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// ItemsSubtotal additionne les sous-totaux des lignes
func (o Order) ItemsSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.Subtotal)
	}
	return sum
}

// IsPaid indique si la commande compte dans le chiffre d'affaires
func (o Order) IsPaid() bool {
	return o.Status.IsPaid()
}

// Clone retourne une copie profonde (les stores ne partagent jamais leurs pointeurs)
func (o Order) Clone() Order {
	c := o
	if o.PaidAt != nil {
		paidAt := *o.PaidAt
		c.PaidAt = &paidAt
	}
	c.Items = append([]OrderItem(nil), o.Items...)
	return c
}
