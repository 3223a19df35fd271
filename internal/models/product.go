package models

import "github.com/shopspring/decimal"

type Product struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CategoryID *int64          `json:"category_id,omitempty"`
}

// IsUncategorized : produit sans catégorie
func (p Product) IsUncategorized() bool {
	return p.CategoryID == nil
}
