package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront_back_end/internal/catalog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	FilterCatalogKey = "analytics:filter_catalog"
	FilterCatalogTTL = time.Hour

	rebuildTimeout = 10 * time.Second
)

// FilterCatalogCache met en cache l'arbre des filtres du tableau de bord.
// Les reconstructions concurrentes sont regroupées en une seule lecture du catalogue.
type FilterCatalogCache struct {
	client *redis.Client
	source catalog.Catalog
	ttl    time.Duration
	sfg    singleflight.Group
}

func NewFilterCatalogCache(client *redis.Client, source catalog.Catalog, ttl time.Duration) *FilterCatalogCache {
	if ttl <= 0 {
		ttl = FilterCatalogTTL
	}
	return &FilterCatalogCache{client: client, source: source, ttl: ttl}
}

func (f *FilterCatalogCache) Get(ctx context.Context) ([]catalog.FilterCategory, error) {
	tree, err := f.cached(ctx)
	if err == nil {
		return tree, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		zap.L().Warn("⚠️ Lecture cache catalogue échouée", zap.Error(err))
	}

	v, err, _ := f.sfg.Do(FilterCatalogKey, func() (interface{}, error) {
		// partagée par tous les appelants : ne dépend pas de l'annulation du premier
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rebuildTimeout)
		defer cancel()
		return f.rebuild(rctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalog.FilterCategory), nil
}

// Invalidate force la reconstruction au prochain Get.
func (f *FilterCatalogCache) Invalidate(ctx context.Context) error {
	if err := f.client.Del(ctx, FilterCatalogKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (f *FilterCatalogCache) cached(ctx context.Context) ([]catalog.FilterCategory, error) {
	data, err := f.client.Get(ctx, FilterCatalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var tree []catalog.FilterCategory
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("unmarshal filter catalog failed: %w", err)
	}
	return tree, nil
}

func (f *FilterCatalogCache) rebuild(ctx context.Context) ([]catalog.FilterCategory, error) {
	categories, err := f.source.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	products, err := f.source.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	tree := catalog.BuildFilterTree(categories, products)

	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("marshal filter catalog failed: %w", err)
	}
	// Un cache indisponible ne doit pas casser l'endpoint
	if err := f.client.Set(ctx, FilterCatalogKey, data, f.ttl).Err(); err != nil {
		zap.L().Warn("⚠️ Écriture cache catalogue échouée", zap.Error(err))
	}
	return tree, nil
}
