package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/ledger"
	"storefront_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(id int64) *int64 { return &id }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

type fixture struct {
	store   *ledger.MemoryStore
	catalog *catalog.MemoryCatalog
	engine  *Engine
}

func newFixture(t *testing.T, opts ...EngineOption) *fixture {
	t.Helper()
	f := &fixture{store: ledger.NewMemoryStore(), catalog: catalog.NewMemoryCatalog()}
	f.catalog.PutCategory(models.Category{ID: 1, Name: "Cuisine"})
	f.catalog.PutCategory(models.Category{ID: 2, Name: "Salon"})
	f.catalog.PutProduct(models.Product{ID: 10, Name: "Poêle", Price: dec("20"), CategoryID: ptr(1)})
	f.catalog.PutProduct(models.Product{ID: 11, Name: "Casserole", Price: dec("35"), CategoryID: ptr(1)})
	f.catalog.PutProduct(models.Product{ID: 20, Name: "Lampe", Price: dec("15.50"), CategoryID: ptr(2)})
	f.catalog.PutProduct(models.Product{ID: 30, Name: "Affiche", Price: dec("5")})
	f.engine = NewEngine(f.store, f.catalog, opts...)
	return f
}

func (f *fixture) add(t *testing.T, status models.OrderStatus, at time.Time, items ...models.OrderItem) models.Order {
	t.Helper()
	order := models.Order{
		ID:        gocql.TimeUUID(),
		Status:    status,
		CreatedAt: at,
		UpdatedAt: at,
		Items:     items,
	}
	order.Total = order.ItemsSubtotal()
	require.NoError(t, f.store.CreateOrder(context.Background(), &order))
	return order
}

func (f *fixture) addTotal(t *testing.T, status models.OrderStatus, at time.Time, total string) {
	t.Helper()
	order := models.Order{ID: gocql.TimeUUID(), Status: status, CreatedAt: at, UpdatedAt: at, Total: dec(total)}
	require.NoError(t, f.store.CreateOrder(context.Background(), &order))
}

func line(productID int64, qty int, unit string) models.OrderItem {
	return models.OrderItem{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: dec(unit),
		Subtotal:  dec(unit).Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestAggregate_DailyTotals(t *testing.T) {
	f := newFixture(t)
	f.addTotal(t, models.OrderStatusPaid, day(2024, 1, 1, 10), "100.00")
	f.addTotal(t, models.OrderStatusPaid, day(2024, 1, 3, 15), "50.00")

	series, err := f.engine.Aggregate(context.Background(), day(2023, 12, 10, 0), models.PaidStatuses(), NoFilter())
	require.NoError(t, err)

	assert.Equal(t, []string{"01.01", "03.01"}, series.Labels())
	assert.Equal(t, []float64{100, 50}, series.Data())
}

func TestAggregate_MonthDayLayout(t *testing.T) {
	f := newFixture(t, WithLabelLayout("01.02"))
	f.addTotal(t, models.OrderStatusPaid, day(2024, 1, 1, 10), "100.00")
	f.addTotal(t, models.OrderStatusPaid, day(2024, 1, 3, 15), "50.00")

	series, err := f.engine.Aggregate(context.Background(), day(2023, 12, 10, 0), models.PaidStatuses(), NoFilter())
	require.NoError(t, err)
	assert.Equal(t, []string{"01.01", "01.03"}, series.Labels())
}

func TestAggregate_MergesSameDayAndSkipsOtherStatuses(t *testing.T) {
	f := newFixture(t)
	f.addTotal(t, models.OrderStatusPaid, day(2024, 2, 5, 8), "10.10")
	f.addTotal(t, models.OrderStatusShipped, day(2024, 2, 5, 22), "20.20")
	f.addTotal(t, models.OrderStatusPending, day(2024, 2, 5, 12), "999")
	f.addTotal(t, models.OrderStatusCancelled, day(2024, 2, 6, 12), "999")
	f.addTotal(t, models.OrderStatusCompleted, day(2024, 2, 4, 12), "1")

	series, err := f.engine.Aggregate(context.Background(), day(2024, 2, 1, 0), models.PaidStatuses(), NoFilter())
	require.NoError(t, err)

	assert.Equal(t, []string{"04.02", "05.02"}, series.Labels())
	assert.Equal(t, []float64{1, 30.3}, series.Data())
}

func TestAggregate_FromIsInclusive(t *testing.T) {
	f := newFixture(t)
	from := day(2024, 3, 1, 0)
	f.addTotal(t, models.OrderStatusPaid, from, "5")
	f.addTotal(t, models.OrderStatusPaid, from.Add(-time.Nanosecond), "7")

	series, err := f.engine.Aggregate(context.Background(), from, models.PaidStatuses(), NoFilter())
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, series.Data())
}

func TestAggregate_Empty(t *testing.T) {
	f := newFixture(t)

	series, err := f.engine.Aggregate(context.Background(), day(2024, 1, 1, 0), models.PaidStatuses(), NoFilter())
	require.NoError(t, err)

	raw, err := json.Marshal(series.Response())
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":[],"data":[]}`, string(raw))
}

func TestAggregate_RequiresStatuses(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Aggregate(context.Background(), day(2024, 1, 1, 0), nil, NoFilter())
	assert.ErrorIs(t, err, ErrNoStatuses)
}

func TestAggregate_Filters(t *testing.T) {
	f := newFixture(t)
	f.add(t, models.OrderStatusPaid, day(2024, 1, 2, 9), line(10, 2, "20"), line(20, 1, "15.50"))
	f.add(t, models.OrderStatusPaid, day(2024, 1, 4, 9), line(11, 1, "35"), line(30, 3, "5"))
	f.add(t, models.OrderStatusPaid, day(2024, 1, 5, 9), line(20, 2, "15.50"))
	from := day(2024, 1, 1, 0)
	ctx := context.Background()

	byCategory, err := f.engine.Aggregate(ctx, from, models.PaidStatuses(), ByCategory(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"02.01", "04.01"}, byCategory.Labels())
	assert.Equal(t, []float64{40, 35}, byCategory.Data())

	byProduct, err := f.engine.Aggregate(ctx, from, models.PaidStatuses(), ByProduct(20))
	require.NoError(t, err)
	assert.Equal(t, []string{"02.01", "05.01"}, byProduct.Labels())
	assert.Equal(t, []float64{15.5, 31}, byProduct.Data())

	uncategorized, err := f.engine.Aggregate(ctx, from, models.PaidStatuses(), OnlyUncategorized())
	require.NoError(t, err)
	assert.Equal(t, []string{"04.01"}, uncategorized.Labels())
	assert.Equal(t, []float64{15}, uncategorized.Data())

	unknown, err := f.engine.Aggregate(ctx, from, models.PaidStatuses(), ByCategory(99))
	require.NoError(t, err)
	assert.Empty(t, unknown.Points)
}

func TestAggregate_CategoriesPartitionRevenue(t *testing.T) {
	f := newFixture(t)
	f.add(t, models.OrderStatusPaid, day(2024, 1, 2, 9), line(10, 2, "20"), line(20, 1, "15.50"))
	f.add(t, models.OrderStatusShipped, day(2024, 1, 2, 18), line(30, 1, "5"), line(77, 1, "12.25"))
	f.add(t, models.OrderStatusCompleted, day(2024, 1, 6, 9), line(11, 1, "35"))
	f.catalog.DeleteProduct(77)
	from := day(2024, 1, 1, 0)
	ctx := context.Background()

	all, err := f.engine.Aggregate(ctx, from, models.PaidStatuses(), NoFilter())
	require.NoError(t, err)

	sum := decimal.Zero
	for _, filter := range []Filter{ByCategory(1), ByCategory(2), OnlyUncategorized()} {
		s, err := f.engine.Aggregate(ctx, from, models.PaidStatuses(), filter)
		require.NoError(t, err)
		sum = sum.Add(s.Total())
	}

	assert.True(t, all.Total().Equal(sum), "all=%s sum=%s", all.Total(), sum)
	assert.True(t, dec("107.75").Equal(all.Total()))
}

func TestAggregate_DanglingProduct(t *testing.T) {
	f := newFixture(t)
	f.add(t, models.OrderStatusPaid, day(2024, 1, 2, 9), line(77, 1, "12.25"))
	f.catalog.DeleteProduct(77)
	from := day(2024, 1, 1, 0)
	ctx := context.Background()

	uncategorized, err := f.engine.Aggregate(ctx, from, models.PaidStatuses(), OnlyUncategorized())
	require.NoError(t, err)
	assert.Equal(t, []float64{12.25}, uncategorized.Data())

	byProduct, err := f.engine.Aggregate(ctx, from, models.PaidStatuses(), ByProduct(77))
	require.NoError(t, err)
	assert.Empty(t, byProduct.Points)
}

func TestAggregate_ProductInMissingCategory(t *testing.T) {
	f := newFixture(t)
	f.catalog.PutProduct(models.Product{ID: 90, Name: "Tapis", Price: dec("8"), CategoryID: ptr(9)})
	f.add(t, models.OrderStatusPaid, day(2024, 1, 2, 9), line(90, 2, "8"))
	from := day(2024, 1, 1, 0)
	ctx := context.Background()

	byCategory, err := f.engine.Aggregate(ctx, from, models.PaidStatuses(), ByCategory(9))
	require.NoError(t, err)
	assert.Equal(t, []float64{16}, byCategory.Data())

	uncategorized, err := f.engine.Aggregate(ctx, from, models.PaidStatuses(), OnlyUncategorized())
	require.NoError(t, err)
	assert.Empty(t, uncategorized.Points)
}

func TestSeries_RoundsAtEmission(t *testing.T) {
	s := &Series{Points: []Point{{Day: day(2024, 1, 1, 0), Revenue: dec("10.005")}, {Day: day(2024, 1, 2, 0), Revenue: dec("0.1").Add(dec("0.2"))}}}
	assert.Equal(t, []float64{10.01, 0.3}, s.Data())
}

func TestFilter_String(t *testing.T) {
	assert.Equal(t, "none", NoFilter().String())
	assert.Equal(t, "category:3", ByCategory(3).String())
	assert.Equal(t, "product:4", ByProduct(4).String())
	assert.Equal(t, "uncategorized", OnlyUncategorized().String())
	assert.True(t, Filter{}.IsNone())
}

func TestMidnightDaysAgo(t *testing.T) {
	now := time.Date(2024, 3, 1, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), MidnightDaysAgo(now, 1))
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), MidnightDaysAgo(now, 30))
}
