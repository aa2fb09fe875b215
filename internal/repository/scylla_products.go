package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"qart_back_end/internal/models"

	"github.com/gocql/gocql"
)

// ScyllaProducts sert l'annuaire produits depuis ScyllaDB (PRODUCTS_BACKEND=scylla).
// Les tables doivent être créées via scripts/scylladb_init.cql.
type ScyllaProducts struct {
	session *gocql.Session
}

func NewScyllaProducts(session *gocql.Session) *ScyllaProducts {
	return &ScyllaProducts{session: session}
}

func (s *ScyllaProducts) List(ctx context.Context) ([]models.Product, error) {
	iter := s.session.Query(`SELECT product_id, name, category, cost, rating, image FROM products`).
		WithContext(ctx).Iter()

	products := []models.Product{}
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Category, &p.Cost, &p.Rating, &p.Image) {
		products = append(products, p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	// ScyllaDB ne trie pas sur une colonne non clusterisée
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *ScyllaProducts) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.session.Query(`SELECT product_id, name, category, cost, rating, image FROM products WHERE product_id = ?`, id).
		WithContext(ctx).
		Scan(&p.ID, &p.Name, &p.Category, &p.Cost, &p.Rating, &p.Image)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (s *ScyllaProducts) Upsert(ctx context.Context, p models.Product) error {
	err := s.session.Query(`INSERT INTO products (product_id, name, category, cost, rating, image) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category, p.Cost, p.Rating, p.Image).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}
