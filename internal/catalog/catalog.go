package catalog

import (
	"context"

	"storefront_back_end/internal/models"
)

// Catalog donne accès en lecture aux produits et catégories.
type Catalog interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	// GetProducts ignore les ids inconnus : ils sont simplement absents du résultat.
	GetProducts(ctx context.Context, ids []int64) (map[int64]models.Product, error)
}

// Index regroupe un instantané du catalogue indexé par id.
type Index struct {
	Products   map[int64]models.Product
	Categories map[int64]models.Category
}

// Snapshot lit tout le catalogue en une fois.
func Snapshot(ctx context.Context, c Catalog) (*Index, error) {
	categories, err := c.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		Products:   make(map[int64]models.Product, len(products)),
		Categories: make(map[int64]models.Category, len(categories)),
	}
	for _, p := range products {
		idx.Products[p.ID] = p
	}
	for _, cat := range categories {
		idx.Categories[cat.ID] = cat
	}
	return idx, nil
}
