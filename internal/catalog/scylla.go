package catalog

import (
	"context"
	"fmt"

	"storefront_back_end/internal/database"
	"storefront_back_end/internal/models"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"
)

// ScyllaCatalog lit les tables products et categories du keyspace produits.
type ScyllaCatalog struct {
	session *gocql.Session
}

func NewScyllaCatalog(session *gocql.Session) *ScyllaCatalog {
	return &ScyllaCatalog{session: session}
}

func (s *ScyllaCatalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	iter := s.session.Query(`SELECT category_id, name FROM categories`).WithContext(ctx).Iter()

	var (
		categories []models.Category
		c          models.Category
	)
	for iter.Scan(&c.ID, &c.Name) {
		categories = append(categories, c)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *ScyllaCatalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	iter := s.session.Query(`SELECT product_id, name, price, category_id FROM products`).WithContext(ctx).Iter()
	products, err := scanProducts(iter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *ScyllaCatalog) GetProducts(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	result := make(map[int64]models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	iter := s.session.Query(`SELECT product_id, name, price, category_id FROM products WHERE product_id IN ?`, ids).
		WithContext(ctx).Iter()
	products, err := scanProducts(iter)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

// PutCategory et PutProduct servent au chargement des données de démonstration.
func (s *ScyllaCatalog) PutCategory(ctx context.Context, c models.Category) error {
	return s.session.Query(`INSERT INTO categories (category_id, name) VALUES (?, ?)`, c.ID, c.Name).
		WithContext(ctx).Exec()
}

func (s *ScyllaCatalog) PutProduct(ctx context.Context, p models.Product) error {
	return s.session.Query(`INSERT INTO products (product_id, name, price, category_id) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, database.ToInfDec(p.Price), p.CategoryID).WithContext(ctx).Exec()
}

func scanProducts(iter *gocql.Iter) ([]models.Product, error) {
	var products []models.Product
	for {
		var (
			p          models.Product
			price      = new(inf.Dec)
			categoryID *int64
		)
		if !iter.Scan(&p.ID, &p.Name, price, &categoryID) {
			break
		}
		p.Price = database.FromInfDec(price)
		p.CategoryID = categoryID
		products = append(products, p)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return products, nil
}
