package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"qart_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultProductIndex = "products"

// productDoc : _id est un champ de métadonnée Elastic, il ne peut pas figurer dans le document
type productDoc struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Cost     float64 `json:"cost"`
	Rating   float64 `json:"rating"`
	Image    string  `json:"image"`
}

type ProductIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewProductIndex(client *elasticsearch.Client, index string) *ProductIndex {
	if index == "" {
		index = DefaultProductIndex
	}
	return &ProductIndex{client: client, index: index}
}

//
// --- INDEXATION DANS ELASTICSEARCH ---
//

func (p *ProductIndex) Index(ctx context.Context, product models.Product) error {
	data, err := json.Marshal(productDoc(product))
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      p.index,
		DocumentID: product.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true", // rend la donnée immédiatement visible
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return fmt.Errorf("erreur envoi Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elastic a renvoyé une erreur pour %s: %s", product.Name, res.String())
	}
	return nil
}

//
// --- RECHERCHE DANS ELASTICSEARCH ---
//

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source productDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search cherche par nom ou catégorie, avec tolérance aux fautes de frappe
func (p *ProductIndex) Search(ctx context.Context, query string) ([]models.Product, error) {
	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "category"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{p.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("❌ Elasticsearch erreur: %s", res.String())
		return nil, fmt.Errorf("recherche Elastic en erreur: %s", res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}

	products := make([]models.Product, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		products = append(products, models.Product(hit.Source))
	}
	return products, nil
}
