package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront_back_end/internal/analytics"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/handlers/dashboard"
	"storefront_back_end/internal/handlers/order"
	"storefront_back_end/internal/ledger"
	"storefront_back_end/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("routes-secret")

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	products := catalog.NewMemoryCatalog()
	products.PutCategory(models.Category{ID: 1, Name: "Cuisine"})
	store := ledger.NewMemoryStore()
	service := ledger.NewService(store, products)
	publisher := cache.NewPendingPublisher(client, service.PendingCount)

	r := gin.New()
	RegisterRoutes(r, Deps{
		JWTSecret:   secret,
		RateLimiter: cache.NewRateLimiter(client),
		Dashboard: dashboard.NewHandler(
			analytics.NewEngine(store, products),
			cache.NewFilterCatalogCache(client, products, time.Hour),
			service,
			publisher,
		),
		Orders: order.NewHandler(service, "whsec_test"),
	})
	return r
}

func token(t *testing.T, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-" + role,
		"email":   role + "@example.com",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestRoleGates(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		path   string
		role   string
		status int
	}{
		{"/api/admin/sales-data", "", http.StatusUnauthorized},
		{"/api/admin/sales-data", "customer", http.StatusForbidden},
		{"/api/admin/sales-data", "employee", http.StatusForbidden},
		{"/api/admin/sales-data", "admin", http.StatusOK},
		{"/api/admin/filter-catalog", "admin", http.StatusOK},
		{"/api/admin/dashboard", "admin", http.StatusOK},
		{"/api/employee/orders-status", "customer", http.StatusForbidden},
		{"/api/employee/orders-status", "employee", http.StatusOK},
		{"/api/employee/orders-status", "admin", http.StatusOK},
		{"/api/employee/dashboard", "customer", http.StatusForbidden},
		{"/api/employee/dashboard", "employee", http.StatusOK},
		{"/api/orders", "", http.StatusUnauthorized},
		{"/api/orders", "customer", http.StatusOK},
		{"/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path+" "+tt.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.role != "" {
				req.Header.Set("Authorization", token(t, tt.role))
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRateLimitHeaders(t *testing.T) {
	r := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/employee/orders-status", nil)
	req.Header.Set("Authorization", token(t, "employee"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
}
