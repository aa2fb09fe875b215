package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"qart_back_end/internal/models"
	"qart_back_end/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductList_SignsStorageKeys(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProducts(store)
	svc := NewProductService(store.Products(), nil, fakeSigner{})

	products, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)

	byID := map[string]models.Product{}
	for _, p := range products {
		byID[p.ID] = p
	}
	assert.Equal(t, "https://minio.local/qart-images/products/lamp.png?X-Amz-Signature=abc", byID["p10"].Image)
	assert.Equal(t, "https://cdn.qart.io/mug.png", byID["p5"].Image)
	assert.Equal(t, "", byID["p1"].Image)
}

func TestProductList_SigningFailureKeepsKey(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.Products().Upsert(context.Background(), models.Product{ID: "x", Name: "X", Image: "broken/key.png"}))
	svc := NewProductService(store.Products(), nil, fakeSigner{})

	products, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "broken/key.png", products[0].Image)
}

func TestProductGet(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProducts(store)
	svc := NewProductService(store.Products(), nil, nil)

	p, err := svc.Get(context.Background(), "p5")
	require.NoError(t, err)
	assert.Equal(t, "Coffee Mug", p.Name)

	_, err = svc.Get(context.Background(), "ghost")
	assertAPIError(t, err, http.StatusNotFound, "Product not found")
}

func TestProductSearch_Fallback(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProducts(store)
	svc := NewProductService(store.Products(), nil, nil)
	ctx := context.Background()

	byName, err := svc.Search(ctx, "lamp")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "p10", byName[0].ID)

	byCategory, err := svc.Search(ctx, "KITCHEN")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "p5", byCategory[0].ID)

	none, err := svc.Search(ctx, "zzz")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	all, err := svc.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestProductSearch_UsesSearcher(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProducts(store)
	searcher := &fakeSearcher{hits: []models.Product{{ID: "p5", Name: "Coffee Mug"}}}
	svc := NewProductService(store.Products(), searcher, nil)

	hits, err := svc.Search(context.Background(), "cofee")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p5", hits[0].ID)
}

func TestProductSearch_SearcherErrorFallsBack(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProducts(store)
	searcher := &fakeSearcher{err: errors.New("cluster down")}
	svc := NewProductService(store.Products(), searcher, nil)

	hits, err := svc.Search(context.Background(), "mug")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p5", hits[0].ID)
}

func TestProductSeed(t *testing.T) {
	store := repository.NewMemoryStore()
	searcher := &fakeSearcher{}
	svc := NewProductService(store.Products(), searcher, nil)
	ctx := context.Background()

	err := svc.Seed(ctx, []models.Product{
		{ID: "a", Name: "Alpha", Cost: 1},
		{ID: "b", Name: "Beta", Cost: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, searcher.indexed)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	err = svc.Seed(ctx, []models.Product{{Name: "no id"}})
	assertAPIError(t, err, http.StatusBadRequest, "")
}
