package dashboard

import (
	"net/url"
	"strconv"
	"time"

	"storefront_back_end/internal/analytics"
)

const DefaultRangeDays = 30

// SalesQuery est la requête du graphique une fois validée.
type SalesQuery struct {
	RangeDays int
	From      time.Time
	Filter    analytics.Filter
}

// ParseSalesQuery interprète range, category et product.
// Les valeurs invalides ne produisent jamais d'erreur : elles retombent sur un défaut.
// defaultDays s'applique quand range est absent.
func ParseSalesQuery(q url.Values, now time.Time, defaultDays int) SalesQuery {
	rangeDays := defaultDays
	if rangeDays < 1 {
		rangeDays = DefaultRangeDays
	}
	if _, present := q["range"]; present {
		n, err := strconv.Atoi(q.Get("range"))
		if err != nil || n < 1 {
			n = 1
		}
		rangeDays = n
	}

	filter := analytics.NoFilter()
	switch category := q.Get("category"); {
	case category == "uncategorized":
		filter = analytics.OnlyUncategorized()
	case isDigits(category):
		if id, err := strconv.ParseInt(category, 10, 64); err == nil {
			filter = analytics.ByCategory(id)
		}
	}

	// Le produit l'emporte sur la catégorie
	if product := q.Get("product"); isDigits(product) {
		if id, err := strconv.ParseInt(product, 10, 64); err == nil {
			filter = analytics.ByProduct(id)
		}
	}

	return SalesQuery{
		RangeDays: rangeDays,
		From:      analytics.MidnightDaysAgo(now, rangeDays),
		Filter:    filter,
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
