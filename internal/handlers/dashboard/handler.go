package dashboard

import (
	"context"
	"net/http"
	"time"

	"storefront_back_end/internal/analytics"
	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FilterSource fournit l'arbre des filtres, en général via le cache Redis.
type FilterSource interface {
	Get(ctx context.Context) ([]catalog.FilterCategory, error)
}

// PendingSource compte les commandes en attente.
type PendingSource interface {
	PendingCount(ctx context.Context) (int, error)
}

type Handler struct {
	engine       *analytics.Engine
	filters      FilterSource
	pending      PendingSource
	stream       PendingSubscriber
	defaultRange int
	now          func() time.Time
}

type HandlerOption func(*Handler)

// WithDefaultRange fixe la période du graphique quand la requête n'en précise pas.
func WithDefaultRange(days int) HandlerOption {
	return func(h *Handler) { h.defaultRange = days }
}

func NewHandler(engine *analytics.Engine, filters FilterSource, pending PendingSource, stream PendingSubscriber, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:       engine,
		filters:      filters,
		pending:      pending,
		stream:       stream,
		defaultRange: DefaultRangeDays,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SalesData retourne la série journalière {labels, data} du graphique.
func (h *Handler) SalesData(c *gin.Context) {
	query := ParseSalesQuery(c.Request.URL.Query(), h.now(), h.defaultRange)

	series, err := h.engine.Aggregate(c.Request.Context(), query.From, models.PaidStatuses(), query.Filter)
	if err != nil {
		zap.L().Error("❌ Erreur agrégation des ventes",
			zap.Int("range", query.RangeDays),
			zap.Stringer("filter", query.Filter),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération des ventes"})
		return
	}

	c.JSON(http.StatusOK, series.Response())
}

// FilterCatalog retourne les catégories et leurs produits pour les sélecteurs.
func (h *Handler) FilterCatalog(c *gin.Context) {
	tree, err := h.filters.Get(c.Request.Context())
	if err != nil {
		zap.L().Error("❌ Erreur lecture catalogue des filtres", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération du catalogue"})
		return
	}
	c.JSON(http.StatusOK, tree)
}

// OrdersStatus retourne le nombre de commandes en attente.
func (h *Handler) OrdersStatus(c *gin.Context) {
	n, err := h.pending.PendingCount(c.Request.Context())
	if err != nil {
		zap.L().Error("❌ Erreur comptage des commandes en attente", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération du statut des commandes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": n})
}

// Summary retourne la vue d'ensemble du tableau de bord administrateur.
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.engine.Summary(c.Request.Context(), h.now())
	if err != nil {
		zap.L().Error("❌ Erreur construction du tableau de bord", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération du tableau de bord"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// StaffDashboard retourne la vue employé : produits, commandes en attente et dernières commandes.
func (h *Handler) StaffDashboard(c *gin.Context) {
	overview, err := h.engine.StaffOverview(c.Request.Context())
	if err != nil {
		zap.L().Error("❌ Erreur construction du tableau de bord employé", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération du tableau de bord"})
		return
	}
	c.JSON(http.StatusOK, overview)
}
