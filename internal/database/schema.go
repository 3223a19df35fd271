package database

import (
	"fmt"
	"time"

	"storefront_back_end/internal/config"

	"github.com/gocql/gocql"
	"go.uber.org/zap"
)

// OrdersSchema crée la table des commandes. Les lignes sont stockées en JSON
// dans la colonne items.
var OrdersSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		order_id uuid PRIMARY KEY,
		user_id text,
		shipping_address_id text,
		contact_email text,
		status text,
		total decimal,
		items text,
		created_at timestamp,
		updated_at timestamp,
		paid_at timestamp
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id)`,
}

// CatalogSchema crée les tables produits et catégories lues par l'analytique.
var CatalogSchema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		category_id bigint PRIMARY KEY,
		name text
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id bigint PRIMARY KEY,
		name text,
		price decimal,
		category_id bigint
	)`,
}

// ApplyStatements exécute des instructions DDL dans l'ordre.
func ApplyStatements(session *gocql.Session, statements []string) error {
	for _, stmt := range statements {
		if err := session.Query(stmt).Exec(); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// EnsureKeyspace crée le keyspace s'il n'existe pas, via une session sans keyspace.
func EnsureKeyspace(hosts []string, keyspace string, timeout time.Duration) error {
	cluster := gocql.NewCluster(hosts...)
	cluster.Timeout = timeout
	cluster.Consistency = gocql.One

	session, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("session système: %w", err)
	}
	defer session.Close()

	stmt := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
		WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`, keyspace)
	if err := session.Query(stmt).Exec(); err != nil {
		return fmt.Errorf("création keyspace %s: %w", keyspace, err)
	}
	return nil
}

// ApplySchema crée les tables dans les keyspaces configurés.
func (c *Connections) ApplySchema(cfg config.Scylla) error {
	orders, err := c.OrdersSession(cfg)
	if err != nil {
		return err
	}
	if err := ApplyStatements(orders, OrdersSchema); err != nil {
		return err
	}

	products, err := c.ProductsSession(cfg)
	if err != nil {
		return err
	}
	if err := ApplyStatements(products, CatalogSchema); err != nil {
		return err
	}

	zap.L().Info("📐 Schéma ScyllaDB appliqué")
	return nil
}
