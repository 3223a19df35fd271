package analytics

import (
	"fmt"

	"storefront_back_end/internal/models"
)

type filterKind int

const (
	filterNone filterKind = iota
	filterCategory
	filterProduct
	filterUncategorized
)

// Filter restreint l'agrégation à une partie du catalogue.
// La valeur zéro équivaut à NoFilter.
type Filter struct {
	kind filterKind
	id   int64
}

func NoFilter() Filter { return Filter{} }

func ByCategory(id int64) Filter { return Filter{kind: filterCategory, id: id} }

func ByProduct(id int64) Filter { return Filter{kind: filterProduct, id: id} }

// OnlyUncategorized garde les produits sans catégorie ainsi que les produits supprimés du catalogue.
func OnlyUncategorized() Filter { return Filter{kind: filterUncategorized} }

func (f Filter) IsNone() bool { return f.kind == filterNone }

// matches décide si une ligne compte. product vaut nil quand le produit n'existe plus.
func (f Filter) matches(product *models.Product) bool {
	switch f.kind {
	case filterNone:
		return true
	case filterProduct:
		return product != nil && product.ID == f.id
	case filterCategory:
		return product != nil && product.CategoryID != nil && *product.CategoryID == f.id
	case filterUncategorized:
		return product == nil || product.IsUncategorized()
	}
	return false
}

func (f Filter) String() string {
	switch f.kind {
	case filterCategory:
		return fmt.Sprintf("category:%d", f.id)
	case filterProduct:
		return fmt.Sprintf("product:%d", f.id)
	case filterUncategorized:
		return "uncategorized"
	}
	return "none"
}
