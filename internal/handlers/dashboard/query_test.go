package dashboard

import (
	"net/url"
	"testing"
	"time"

	"storefront_back_end/internal/analytics"

	"github.com/stretchr/testify/assert"
)

func TestParseSalesQuery(t *testing.T) {
	now := time.Date(2024, 1, 31, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		query  string
		days   int
		filter analytics.Filter
	}{
		{"defaults", "", 30, analytics.NoFilter()},
		{"range", "range=7", 7, analytics.NoFilter()},
		{"range zero", "range=0", 1, analytics.NoFilter()},
		{"range negative", "range=-5", 1, analytics.NoFilter()},
		{"range garbage", "range=abc", 1, analytics.NoFilter()},
		{"range empty", "range=", 1, analytics.NoFilter()},
		{"category all", "category=all", 30, analytics.NoFilter()},
		{"category id", "category=4", 30, analytics.ByCategory(4)},
		{"category uncategorized", "category=uncategorized", 30, analytics.OnlyUncategorized()},
		{"category malformed", "category=4x", 30, analytics.NoFilter()},
		{"category signed", "category=-4", 30, analytics.NoFilter()},
		{"product", "product=12", 30, analytics.ByProduct(12)},
		{"product wins", "category=4&product=12", 30, analytics.ByProduct(12)},
		{"product all keeps category", "category=4&product=all", 30, analytics.ByCategory(4)},
		{"product malformed keeps category", "category=uncategorized&product=x1", 30, analytics.OnlyUncategorized()},
		{"overflow", "product=99999999999999999999", 30, analytics.NoFilter()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			q := ParseSalesQuery(values, now, DefaultRangeDays)
			assert.Equal(t, tt.days, q.RangeDays)
			assert.Equal(t, tt.filter, q.Filter)
			assert.Equal(t, analytics.MidnightDaysAgo(now, tt.days), q.From)
		})
	}
}

func TestParseSalesQuery_FromIsMidnight(t *testing.T) {
	now := time.Date(2024, 1, 31, 15, 4, 5, 0, time.UTC)
	q := ParseSalesQuery(url.Values{"range": {"30"}}, now, DefaultRangeDays)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), q.From)
}

func TestParseSalesQuery_ConfiguredDefault(t *testing.T) {
	now := time.Date(2024, 1, 31, 15, 4, 5, 0, time.UTC)

	q := ParseSalesQuery(url.Values{}, now, 7)
	assert.Equal(t, 7, q.RangeDays)
	assert.Equal(t, time.Date(2024, 1, 24, 0, 0, 0, 0, time.UTC), q.From)

	q = ParseSalesQuery(url.Values{"range": {"90"}}, now, 7)
	assert.Equal(t, 90, q.RangeDays)

	q = ParseSalesQuery(url.Values{"range": {"bad"}}, now, 7)
	assert.Equal(t, 1, q.RangeDays)

	q = ParseSalesQuery(url.Values{}, now, 0)
	assert.Equal(t, DefaultRangeDays, q.RangeDays)
}
