package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront_back_end/internal/models"

	"github.com/gocql/gocql"
	"go.uber.org/zap"
)

// ProductLookup résout les produits du catalogue au moment de la commande
type ProductLookup interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]models.Product, error)
}

// Notifier reçoit les commandes dont le paiement vient d'être appliqué.
// Il n'est jamais appelé deux fois pour la même commande.
type Notifier interface {
	OrderPaid(ctx context.Context, order models.Order)
}

// Events est prévenu quand le nombre de commandes en attente peut avoir changé
type Events interface {
	PendingChanged(ctx context.Context)
}

// MaxLineQuantity borne la quantité d'un produit dans une commande, lignes fusionnées comprises.
const MaxLineQuantity = 10000

type CheckoutLine struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

type CheckoutRequest struct {
	UserID            string         `json:"-"`
	ContactEmail      string         `json:"-"`
	ShippingAddressID string         `json:"shipping_address_id" binding:"required"`
	Lines             []CheckoutLine `json:"items"`
}

// UnknownProductError signale un produit du panier absent du catalogue
type UnknownProductError struct {
	ProductID int64
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithEvents(e Events) Option {
	return func(s *Service) { s.events = e }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	store    Store
	products ProductLookup
	notifier Notifier
	events   Events
	now      func() time.Time
}

func NewService(store Store, products ProductLookup, opts ...Option) *Service {
	s := &Service{
		store:    store,
		products: products,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder crée la commande et ses lignes à la confirmation du checkout.
// Les prix sont figés à partir du catalogue courant.
func (s *Service) PlaceOrder(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	quantities := make(map[int64]int)
	ids := make([]int64, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.Quantity <= 0 || line.Quantity > MaxLineQuantity {
			return nil, ErrInvalidQuantity
		}
		if _, seen := quantities[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		// chaque terme est borné : la somme ne peut pas déborder avant ce contrôle
		quantities[line.ProductID] += line.Quantity
		if quantities[line.ProductID] > MaxLineQuantity {
			return nil, ErrInvalidQuantity
		}
	}

	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	now := s.now()
	order := &models.Order{
		ID:                gocql.TimeUUID(),
		UserID:            req.UserID,
		ShippingAddressID: req.ShippingAddressID,
		ContactEmail:      req.ContactEmail,
		Status:            models.OrderStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	for i, id := range ids {
		product, ok := products[id]
		if !ok {
			return nil, &UnknownProductError{ProductID: id}
		}
		item := models.NewOrderItem(product, quantities[id])
		item.ID = i + 1
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}
	order.Total = order.ItemsSubtotal()

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	zap.L().Info("🧾 Commande créée",
		zap.String("order_id", order.ID.String()),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)))

	s.pendingChanged(ctx)
	return order, nil
}

// MarkPaid est le seul point de sérialisation du paiement.
// Un second appel ne modifie rien : il retourne la commande stockée (même paidAt) et ErrAlreadyPaid.
func (s *Service) MarkPaid(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	applied, current, err := s.store.CompareAndSetStatus(ctx, id, models.OrderStatusPending, models.OrderStatusPaid, s.now())
	if err != nil {
		return nil, err
	}

	if !applied {
		if current.Status.IsPaid() {
			zap.L().Info("🔁 Commande déjà payée, on ignore", zap.String("order_id", id.String()))
			return current, ErrAlreadyPaid
		}
		return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, models.OrderStatusPaid)
	}

	zap.L().Info("💳 Paiement enregistré", zap.String("order_id", id.String()))

	if s.notifier != nil {
		s.notifier.OrderPaid(ctx, *current)
	}
	s.pendingChanged(ctx)
	return current, nil
}

func (s *Service) Ship(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	return s.transition(ctx, id, models.OrderStatusShipped)
}

func (s *Service) Complete(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	return s.transition(ctx, id, models.OrderStatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	order, err := s.transition(ctx, id, models.OrderStatusCancelled)
	if err == nil {
		s.pendingChanged(ctx)
	}
	return order, err
}

// Transition applique un changement de statut demandé par l'administration
func (s *Service) Transition(ctx context.Context, id gocql.UUID, to models.OrderStatus) (*models.Order, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	switch to {
	case models.OrderStatusPaid:
		return s.MarkPaid(ctx, id)
	case models.OrderStatusCancelled:
		return s.Cancel(ctx, id)
	default:
		return s.transition(ctx, id, to)
	}
}

func (s *Service) transition(ctx context.Context, id gocql.UUID, to models.OrderStatus) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if from.IsTerminal() {
		return order, fmt.Errorf("%w: order is already %s", ErrInvalidTransition, from)
	}
	if !from.CanTransitionTo(to) {
		return order, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	applied, current, err := s.store.CompareAndSetStatus(ctx, id, from, to, s.now())
	if err != nil {
		return nil, err
	}
	if !applied {
		// modifiée entre la lecture et l'écriture
		return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	zap.L().Info("✅ Statut de commande mis à jour",
		zap.String("order_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return current, nil
}

func (s *Service) GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// ListUserOrders retourne les commandes d'un client, les plus récentes en premier.
// limit <= 0 retourne tout.
func (s *Service) ListUserOrders(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	return s.store.ListByUser(ctx, userID, limit)
}

// RecentOrders retourne les dernières commandes, tous clients confondus.
func (s *Service) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	return s.store.ListRecent(ctx, limit)
}

func (s *Service) FindOrdersSince(ctx context.Context, from time.Time, statuses []models.OrderStatus) ([]models.Order, error) {
	return s.store.FindOrdersSince(ctx, from, statuses)
}

func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.store.CountByStatus(ctx, models.OrderStatusPending)
}

func (s *Service) pendingChanged(ctx context.Context) {
	if s.events != nil {
		s.events.PendingChanged(ctx)
	}
}

// IsNotFound regroupe les erreurs « introuvable » du ledger
func IsNotFound(err error) bool {
	var unknown *UnknownProductError
	return errors.Is(err, ErrOrderNotFound) || errors.As(err, &unknown)
}
