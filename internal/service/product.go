package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"qart_back_end/internal/models"
	"qart_back_end/internal/repository"
)

type ProductSearcher interface {
	Index(ctx context.Context, product models.Product) error
	Search(ctx context.Context, query string) ([]models.Product, error)
}

// ImageSigner transforme une clé d'objet en URL de lecture temporaire
type ImageSigner interface {
	SignedURL(ctx context.Context, key string) (string, error)
}

type ProductService struct {
	products repository.ProductRepository
	search   ProductSearcher
	images   ImageSigner
}

// search et images sont optionnels
func NewProductService(products repository.ProductRepository, search ProductSearcher, images ImageSigner) *ProductService {
	return &ProductService{products: products, search: search, images: images}
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return s.resolveImages(ctx, products), nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, NotFound(msgProductNotFound)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	resolved := s.resolveImages(ctx, []models.Product{*product})
	return &resolved[0], nil
}

// Search passe par Elasticsearch si disponible, sinon filtre l'annuaire sur name/category
func (s *ProductService) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}

	if s.search != nil {
		hits, err := s.search.Search(ctx, query)
		if err == nil {
			return s.resolveImages(ctx, hits), nil
		}
		log.Println("⚠️ Recherche Elastic indisponible, repli sur l'annuaire:", err)
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	needle := strings.ToLower(query)
	matches := []models.Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Category), needle) {
			matches = append(matches, p)
		}
	}
	return s.resolveImages(ctx, matches), nil
}

// Seed importe les produits de référence et les indexe pour la recherche
func (s *ProductService) Seed(ctx context.Context, products []models.Product) error {
	for _, p := range products {
		if p.ID == "" {
			return BadRequest("Product id is required")
		}
		if err := s.products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
		if s.search != nil {
			if err := s.search.Index(ctx, p); err != nil {
				log.Printf("⚠️ Indexation de %s échouée: %v", p.Name, err)
			}
		}
	}
	log.Printf("✅ %d produits importés", len(products))
	return nil
}

func (s *ProductService) resolveImages(ctx context.Context, products []models.Product) []models.Product {
	if s.images == nil {
		return products
	}
	for i := range products {
		img := products[i].Image
		if img == "" || strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
			continue
		}
		signed, err := s.images.SignedURL(ctx, img)
		if err != nil {
			log.Printf("⚠️ URL signée impossible pour %s: %v", img, err)
			continue
		}
		products[i].Image = signed
	}
	return products
}
