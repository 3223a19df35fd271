package order

import (
	"errors"
	"net/http"
	"strconv"

	"storefront_back_end/internal/ledger"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	ledger        *ledger.Service
	webhookSecret string
}

func NewHandler(svc *ledger.Service, webhookSecret string) *Handler {
	return &Handler{ledger: svc, webhookSecret: webhookSecret}
}

// PlaceOrder crée une commande en attente à partir des lignes du checkout.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req ledger.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	req.UserID = c.GetString(middleware.ContextUserID)
	req.ContactEmail = c.GetString(middleware.ContextEmail)

	order, err := h.ledger.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		var unknown *ledger.UnknownProductError
		switch {
		case errors.Is(err, ledger.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
		case errors.Is(err, ledger.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		case errors.As(err, &unknown):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Produit introuvable", "product_id": unknown.ProductID})
		default:
			zap.L().Error("❌ Erreur création commande", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// ListOrders retourne les commandes de l'utilisateur connecté, les plus récentes en premier.
// ?limit=10 donne la vue tableau de bord du client.
func (h *Handler) ListOrders(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Limite invalide"})
			return
		}
		limit = n
	}

	userID := c.GetString(middleware.ContextUserID)
	orders, err := h.ledger.ListUserOrders(c.Request.Context(), userID, limit)
	if err != nil {
		zap.L().Error("❌ Erreur lecture des commandes", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération des commandes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder retourne une commande à son propriétaire ou au personnel.
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	order, err := h.ledger.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, id, err)
		return
	}
	if !canAccess(c, order) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// PayOrder confirme le paiement. Rejouer la requête est sans effet.
func (h *Handler) PayOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	existing, err := h.ledger.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, id, err)
		return
	}
	if !canAccess(c, existing) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	order, err := h.ledger.MarkPaid(c.Request.Context(), id)
	if errors.Is(err, ledger.ErrAlreadyPaid) {
		c.JSON(http.StatusOK, gin.H{"order": order, "already_paid": true})
		return
	}
	if err != nil {
		h.writeError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "already_paid": false})
}

// UpdateOrderStatus permet à l'administration d'expédier, terminer ou annuler une commande.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	status, valid := models.ParseOrderStatus(req.Status)
	if !valid || status == models.OrderStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Statut invalide",
			"valid_statuses": []models.OrderStatus{models.OrderStatusPaid, models.OrderStatusShipped, models.OrderStatusCompleted, models.OrderStatusCancelled},
		})
		return
	}

	order, err := h.ledger.Transition(c.Request.Context(), id, status)
	if errors.Is(err, ledger.ErrAlreadyPaid) {
		c.JSON(http.StatusOK, gin.H{"order": order, "already_paid": true})
		return
	}
	if err != nil {
		h.writeError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) writeError(c *gin.Context, id gocql.UUID, err error) {
	switch {
	case errors.Is(err, ledger.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
	case errors.Is(err, ledger.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Transition de statut impossible", "details": err.Error()})
	default:
		zap.L().Error("❌ Erreur commande", zap.String("order_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour commande"})
	}
}

func orderID(c *gin.Context) (gocql.UUID, bool) {
	parsed, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return gocql.UUID{}, false
	}
	return gocql.UUID(parsed), true
}

// canAccess : le client ne voit que ses commandes, le personnel voit tout.
func canAccess(c *gin.Context, order *models.Order) bool {
	switch c.GetString(middleware.ContextRole) {
	case middleware.RoleAdmin, middleware.RoleEmployee:
		return true
	}
	return order.UserID == c.GetString(middleware.ContextUserID)
}
