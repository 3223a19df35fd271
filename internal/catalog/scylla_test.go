package catalog

import (
	"context"
	"testing"

	"storefront_back_end/internal/database"
	"storefront_back_end/internal/database/scyllatest"
	"storefront_back_end/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScyllaCatalog(t *testing.T) {
	session := scyllatest.Session(t, database.CatalogSchema)
	c := NewScyllaCatalog(session)
	ctx := context.Background()

	require.NoError(t, c.PutCategory(ctx, models.Category{ID: 1, Name: "Cuisine"}))
	require.NoError(t, c.PutProduct(ctx, models.Product{ID: 1, Name: "Poêle", Price: decimal.RequireFromString("24.90"), CategoryID: ptr(1)}))
	require.NoError(t, c.PutProduct(ctx, models.Product{ID: 2, Name: "Affiche", Price: decimal.RequireFromString("5.00")}))

	categories, err := c.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	found, err := c.GetProducts(ctx, []int64{1, 2, 42})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.True(t, decimal.RequireFromString("24.90").Equal(found[1].Price))
	require.NotNil(t, found[1].CategoryID)
	assert.Equal(t, int64(1), *found[1].CategoryID)
	assert.Nil(t, found[2].CategoryID)
}
